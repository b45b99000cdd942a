package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ems/internal/core"
)

func TestBudgetUniquenessOnCreate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := uuid.New()
	env.wholeMonthBudget(t, user, "100", "11-2025")

	_, err := env.budgets.Create(ctx, user, BudgetInput{Name: "again", Amount: money(t, "5"), Period: period(t, "11-2025")})
	require.ErrorIs(t, err, core.ErrConflict)
	assert.Equal(t, "The total budget for 11-2025 already exists!", err.Error())

	food := BudgetInput{Name: "Food", Amount: money(t, "5"), Period: period(t, "11-2025"),
		CategoryID: uuid.NullUUID{UUID: foodID, Valid: true}}
	_, err = env.budgets.Create(ctx, user, food)
	require.NoError(t, err)
	_, err = env.budgets.Create(ctx, user, food)
	require.ErrorIs(t, err, core.ErrConflict)
	assert.Equal(t, "The budget for 'Food & Dining' for 11-2025 already exists!", err.Error())

	_, err = env.budgets.Create(ctx, uuid.New(), food)
	assert.NoError(t, err, "other users have their own keys")
}

func TestBudgetUniquenessOnUpdate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := uuid.New()
	env.wholeMonthBudget(t, user, "100", "11-2025")
	dec := env.wholeMonthBudget(t, user, "100", "12-2025")

	_, err := env.budgets.Update(ctx, user, dec.ID, BudgetInput{Name: "moved", Amount: money(t, "100"), Period: period(t, "11-2025")})
	assert.ErrorIs(t, err, core.ErrConflict, "retargeting onto an existing key fails")

	same, err := env.budgets.Update(ctx, user, dec.ID, BudgetInput{Name: "renamed", Amount: money(t, "250"), Period: period(t, "12-2025")})
	require.NoError(t, err, "an unchanged key never conflicts with itself")
	assert.Equal(t, "renamed", same.Name)
	assert.EqualValues(t, 25000, same.Amount.Cents)

	moved, err := env.budgets.Update(ctx, user, dec.ID, BudgetInput{Name: "jan", Amount: money(t, "250"), Period: period(t, "01-2026")})
	require.NoError(t, err)
	assert.Equal(t, "01-2026", moved.Period.String())
}

func TestBudgetUpdateKeepsDeletedCategory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := uuid.New()

	cat, err := env.categories.Create(ctx, user, CategoryInput{Name: "Hobbies", Type: core.CategoryExpense})
	require.NoError(t, err)
	b, err := env.budgets.Create(ctx, user, BudgetInput{Name: "Hobbies", Amount: money(t, "100"),
		Period: period(t, "11-2025"), CategoryID: uuid.NullUUID{UUID: cat.ID, Valid: true}})
	require.NoError(t, err)
	require.NoError(t, env.categories.Delete(ctx, user, cat.ID))

	updated, err := env.budgets.Update(ctx, user, b.ID, BudgetInput{Name: "Hobbies", Amount: money(t, "200"),
		Period: period(t, "11-2025"), CategoryID: uuid.NullUUID{UUID: cat.ID, Valid: true}})
	require.NoError(t, err, "an unchanged key does not re-resolve the category")
	assert.EqualValues(t, 20000, updated.Amount.Cents)
	assert.Equal(t, "Hobbies", updated.CategoryName)

	_, err = env.budgets.Update(ctx, user, b.ID, BudgetInput{Name: "Hobbies", Amount: money(t, "200"),
		Period: period(t, "12-2025"), CategoryID: uuid.NullUUID{UUID: cat.ID, Valid: true}})
	assert.ErrorIs(t, err, core.ErrNotFound, "moving the budget re-resolves its deleted category")
}

func TestBudgetValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := uuid.New()

	for _, amount := range []core.Money{{Cents: 0}, {Cents: -100}} {
		_, err := env.budgets.Create(ctx, user, BudgetInput{Name: "x", Amount: amount, Period: period(t, "11-2025")})
		assert.ErrorIs(t, err, core.ErrInvalidArgument)
	}

	_, err := env.budgets.Create(ctx, user, BudgetInput{Name: "x", Amount: money(t, "1")})
	assert.ErrorIs(t, err, core.ErrInvalidArgument, "period is required")

	_, err = env.budgets.Create(ctx, user, BudgetInput{Name: "x", Amount: money(t, "1"), Period: period(t, "11-2025"),
		CategoryID: uuid.NullUUID{UUID: salaryID, Valid: true}})
	assert.ErrorIs(t, err, core.ErrInvalidArgument, "budgets only apply to expense categories")

	_, err = env.budgets.Create(ctx, user, BudgetInput{Name: "x", Amount: money(t, "1"), Period: period(t, "11-2025"),
		CategoryID: uuid.NullUUID{UUID: uuid.New(), Valid: true}})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestBudgetOwnership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice, bob := uuid.New(), uuid.New()
	b := env.wholeMonthBudget(t, alice, "100", "11-2025")

	_, err := env.budgets.Get(ctx, bob, b.ID)
	assert.ErrorIs(t, err, core.ErrForbidden)
	assert.ErrorIs(t, env.budgets.Delete(ctx, bob, b.ID), core.ErrForbidden)

	require.NoError(t, env.budgets.Delete(ctx, alice, b.ID))
	_, err = env.budgets.Get(ctx, alice, b.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestResolvePrecedence(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := uuid.New()
	nov := period(t, "11-2025")

	_, ok, err := env.budgets.Resolve(ctx, user, nov, uuid.NullUUID{UUID: foodID, Valid: true})
	require.NoError(t, err)
	assert.False(t, ok)

	whole := env.wholeMonthBudget(t, user, "100", "11-2025")
	got, ok, err := env.budgets.Resolve(ctx, user, nov, uuid.NullUUID{UUID: foodID, Valid: true})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, whole.ID, got.ID, "falls back to the whole-month budget")

	food, err := env.budgets.Create(ctx, user, BudgetInput{Name: "Food", Amount: money(t, "5"), Period: nov,
		CategoryID: uuid.NullUUID{UUID: foodID, Valid: true}})
	require.NoError(t, err)

	got, ok, err = env.budgets.Resolve(ctx, user, nov, uuid.NullUUID{UUID: foodID, Valid: true})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, food.ID, got.ID)

	got, ok, err = env.budgets.Resolve(ctx, user, nov, uuid.NullUUID{UUID: transportID, Valid: true})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, whole.ID, got.ID)
}

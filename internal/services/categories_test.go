package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ems/internal/core"
)

func TestResolveForUseIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice, bob := uuid.New(), uuid.New()

	private, err := env.categories.Create(ctx, alice, CategoryInput{Name: "Pets", Type: core.CategoryExpense})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		c, err := env.categories.ResolveForUse(ctx, private.ID, alice)
		require.NoError(t, err)
		assert.Equal(t, private.ID, c.ID)

		_, err = env.categories.ResolveForUse(ctx, private.ID, bob)
		assert.ErrorIs(t, err, core.ErrForbidden)

		g, err := env.categories.ResolveForUse(ctx, foodID, bob)
		require.NoError(t, err)
		assert.True(t, g.Owner.IsGlobal())
	}

	_, err = env.categories.ResolveForUse(ctx, uuid.New(), alice)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestGlobalCategoriesAreImmutable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := uuid.New()

	_, err := env.categories.Update(ctx, user, foodID, CategoryInput{Name: "Mine", Type: core.CategoryExpense})
	require.ErrorIs(t, err, core.ErrForbidden)
	assert.Equal(t, "You cannot modify or delete global categories.", err.Error())

	err = env.categories.Delete(ctx, user, foodID)
	assert.ErrorIs(t, err, core.ErrForbidden)
}

func TestPrivateCategoryOnlyMutableByOwner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice, bob := uuid.New(), uuid.New()

	c, err := env.categories.Create(ctx, alice, CategoryInput{Name: " Pets ", Icon: "paw", Type: core.CategoryExpense})
	require.NoError(t, err)
	assert.Equal(t, "Pets", c.Name)

	_, err = env.categories.Update(ctx, bob, c.ID, CategoryInput{Name: "Stolen", Type: core.CategoryExpense})
	require.ErrorIs(t, err, core.ErrForbidden)
	assert.Equal(t, "You do not have permission to access or modify this category.", err.Error())
	assert.ErrorIs(t, env.categories.Delete(ctx, bob, c.ID), core.ErrForbidden)

	updated, err := env.categories.Update(ctx, alice, c.ID, CategoryInput{Name: "Animals", Icon: "dog", Type: core.CategoryExpense})
	require.NoError(t, err)
	assert.Equal(t, "Animals", updated.Name)
}

func TestCategoryTypeChangeRejectedWhenInUse(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := uuid.New()

	c, err := env.categories.Create(ctx, user, CategoryInput{Name: "Side job", Type: core.CategoryExpense})
	require.NoError(t, err)

	_, err = env.categories.Update(ctx, user, c.ID, CategoryInput{Name: "Side job", Type: core.CategoryIncome})
	require.NoError(t, err, "unused category may change type")

	_, err = env.incomes.Create(ctx, user, RecordInput{Title: "gig", Amount: money(t, "10"), Date: core.NewDate(2025, 1, 1), CategoryID: c.ID})
	require.NoError(t, err)

	_, err = env.categories.Update(ctx, user, c.ID, CategoryInput{Name: "Side job", Type: core.CategoryExpense})
	assert.ErrorIs(t, err, core.ErrInvalidArgument)
}

func TestDeletedCategoryKeepsHistory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := uuid.New()

	c, err := env.categories.Create(ctx, user, CategoryInput{Name: "Pets", Icon: "paw", Type: core.CategoryExpense})
	require.NoError(t, err)
	env.spend(t, user, "25", core.NewDate(2025, 11, 1), c.ID)

	require.NoError(t, env.categories.Delete(ctx, user, c.ID))

	res, err := env.expenses.List(ctx, user, core.RecordCriteria{}, core.PageRequest{})
	require.NoError(t, err)
	require.Len(t, res.Page.Items, 1)
	assert.Equal(t, "Pets", res.Page.Items[0].Category.Name)
	assert.Equal(t, "paw", res.Page.Items[0].Category.Icon)

	_, err = env.expenses.Create(ctx, user, RecordInput{Title: "food", Amount: money(t, "1"), Date: core.NewDate(2025, 11, 2), CategoryID: c.ID})
	assert.ErrorIs(t, err, core.ErrNotFound)

	err = env.categories.Delete(ctx, user, c.ID)
	assert.ErrorIs(t, err, core.ErrNotFound, "a deleted category cannot be deleted again")

	list, err := env.categories.List(ctx, user, "")
	require.NoError(t, err)
	for _, cat := range list {
		assert.NotEqual(t, c.ID, cat.ID)
	}
}

func TestListCategories(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice, bob := uuid.New(), uuid.New()

	_, err := env.categories.Create(ctx, alice, CategoryInput{Name: "Pets", Type: core.CategoryExpense})
	require.NoError(t, err)

	all, err := env.categories.List(ctx, alice, "")
	require.NoError(t, err)
	assert.Len(t, all, 10)

	incomes, err := env.categories.List(ctx, alice, core.CategoryIncome)
	require.NoError(t, err)
	assert.Len(t, incomes, 3)

	others, err := env.categories.List(ctx, bob, core.CategoryExpense)
	require.NoError(t, err)
	assert.Len(t, others, 6)
}

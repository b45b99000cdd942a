package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ems/internal/amqp"
	"ems/internal/core"
)

func TestRecordAmountMustBePositive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := uuid.New()

	for _, cents := range []int64{0, -1, -80000000} {
		_, err := env.expenses.Create(ctx, user, RecordInput{
			Title: "x", Amount: core.Money{Cents: cents}, Date: core.NewDate(2025, 11, 1), CategoryID: foodID,
		})
		assert.ErrorIs(t, err, core.ErrInvalidArgument, "create with %d", cents)
	}

	res := env.spend(t, user, "10", core.NewDate(2025, 11, 1), foodID)
	_, err := env.expenses.Update(ctx, user, res.Record.ID, RecordInput{
		Title: "x", Amount: core.Money{Cents: 0}, Date: core.NewDate(2025, 11, 1), CategoryID: foodID,
	})
	assert.ErrorIs(t, err, core.ErrInvalidArgument)

	stored, err := env.expenses.Get(ctx, user, res.Record.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1000, stored.Amount.Cents, "rejected update leaves the row alone")
}

func TestRecordCategoryTypeMustMatchKind(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := uuid.New()

	_, err := env.expenses.Create(ctx, user, RecordInput{
		Title: "x", Amount: money(t, "1"), Date: core.NewDate(2025, 11, 1), CategoryID: salaryID,
	})
	require.ErrorIs(t, err, core.ErrInvalidArgument)
	assert.Contains(t, err.Error(), "cannot use INCOME category for expense")

	_, err = env.incomes.Create(ctx, user, RecordInput{
		Title: "x", Amount: money(t, "1"), Date: core.NewDate(2025, 11, 1), CategoryID: foodID,
	})
	assert.ErrorIs(t, err, core.ErrInvalidArgument)

	income, err := env.incomes.Create(ctx, user, RecordInput{
		Title: "pay", Amount: money(t, "1"), Date: core.NewDate(2025, 11, 1), CategoryID: salaryID,
	})
	require.NoError(t, err)
	assert.Nil(t, income.Alert, "incomes never carry alerts")
}

func TestRecordOwnership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice, bob := uuid.New(), uuid.New()
	res := env.spend(t, alice, "10", core.NewDate(2025, 11, 1), foodID)

	_, err := env.expenses.Get(ctx, bob, res.Record.ID)
	assert.ErrorIs(t, err, core.ErrForbidden)

	_, err = env.expenses.Update(ctx, bob, res.Record.ID, RecordInput{
		Title: "mine", Amount: money(t, "1"), Date: core.NewDate(2025, 11, 1), CategoryID: foodID,
	})
	assert.ErrorIs(t, err, core.ErrForbidden)
	assert.ErrorIs(t, env.expenses.Delete(ctx, bob, res.Record.ID), core.ErrForbidden)

	bobs, err := env.expenses.List(ctx, bob, core.RecordCriteria{}, core.PageRequest{})
	require.NoError(t, err)
	assert.Empty(t, bobs.Page.Items)

	require.NoError(t, env.expenses.Delete(ctx, alice, res.Record.ID))
	_, err = env.expenses.Get(ctx, alice, res.Record.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestListPagingDefaults(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := uuid.New()
	for i := 1; i <= 12; i++ {
		env.spend(t, user, "1", core.NewDate(2025, 11, i), foodID)
	}

	res, err := env.expenses.List(ctx, user, core.RecordCriteria{}, core.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Page.PageNo)
	assert.Equal(t, 10, res.Page.PageSize)
	assert.Len(t, res.Page.Items, 10)
	assert.EqualValues(t, 12, res.Page.TotalElements)
	assert.Equal(t, 2, res.Page.TotalPages())
	assert.False(t, res.Page.Last())

	res, err = env.expenses.List(ctx, user, core.RecordCriteria{}, core.PageRequest{Page: 2, Size: 500})
	require.NoError(t, err)
	assert.Equal(t, 50, res.Page.PageSize, "size is capped")
	assert.Empty(t, res.Page.Items)
}

func TestListRejectsInvertedRange(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.expenses.List(context.Background(), uuid.New(), core.RecordCriteria{
		StartDate: core.NewDate(2025, 12, 1),
		EndDate:   core.NewDate(2025, 11, 1),
	}, core.PageRequest{})
	assert.ErrorIs(t, err, core.ErrInvalidArgument)
}

func TestRecordEventsPublished(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := uuid.New()

	res := env.spend(t, user, "10", core.NewDate(2025, 11, 1), foodID)
	require.NoError(t, env.expenses.Delete(ctx, user, res.Record.ID))

	require.Len(t, env.publisher.events, 2)
	assert.Equal(t, amqp.RecordCreated, env.publisher.events[0].Type)
	assert.Equal(t, amqp.RecordDeleted, env.publisher.events[1].Type)
	assert.Equal(t, res.Record.ID, env.publisher.events[1].ID)
	assert.Equal(t, core.CategoryExpense, env.publisher.events[1].Kind)
}

func TestPublishFailureDoesNotFailWrite(t *testing.T) {
	env := newTestEnv(t)
	env.publisher.err = errors.New("broker down")

	res := env.spend(t, uuid.New(), "10", core.NewDate(2025, 11, 1), foodID)
	assert.NotEqual(t, uuid.Nil, res.Record.ID)
}

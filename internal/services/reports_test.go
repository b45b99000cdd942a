package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ems/internal/core"
)

func TestReportStats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := uuid.New()

	_, err := env.incomes.Create(ctx, user, RecordInput{Title: "pay", Amount: money(t, "1000"), Date: core.NewDate(2025, 11, 1), CategoryID: salaryID})
	require.NoError(t, err)
	env.spend(t, user, "300.25", core.NewDate(2025, 11, 2), foodID)
	env.spend(t, user, "99", core.NewDate(2025, 12, 2), foodID)

	stats, err := env.reports.Stats(ctx, user, core.NewDate(2025, 11, 1), core.NewDate(2025, 11, 30))
	require.NoError(t, err)
	assert.EqualValues(t, 100000, stats.TotalIncome.Cents)
	assert.EqualValues(t, 30025, stats.TotalExpense.Cents)
	assert.EqualValues(t, 69975, stats.Balance.Cents)

	empty, err := env.reports.Stats(ctx, uuid.New(), core.NewDate(2025, 11, 1), core.NewDate(2025, 11, 30))
	require.NoError(t, err)
	assert.True(t, empty.Balance.IsZero())
}

func TestReportsRejectInvertedRange(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	start, end := core.NewDate(2025, 12, 1), core.NewDate(2025, 11, 1)

	_, err := env.reports.Stats(ctx, uuid.New(), start, end)
	assert.ErrorIs(t, err, core.ErrInvalidArgument)
	_, err = env.reports.Categories(ctx, uuid.New(), start, end)
	assert.ErrorIs(t, err, core.ErrInvalidArgument)
	_, err = env.reports.History(ctx, uuid.New(), start, end)
	assert.ErrorIs(t, err, core.ErrInvalidArgument)
}

func TestReportCategoriesAndHistory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := uuid.New()

	env.spend(t, user, "10", core.NewDate(2025, 10, 2), foodID)
	env.spend(t, user, "30", core.NewDate(2025, 11, 2), transportID)
	env.spend(t, user, "5", core.NewDate(2025, 11, 3), foodID)

	byCat, err := env.reports.Categories(ctx, user, core.NewDate(2025, 10, 1), core.NewDate(2025, 11, 30))
	require.NoError(t, err)
	require.Len(t, byCat, 2)
	assert.Equal(t, "Transportation", byCat[0].Name)
	assert.EqualValues(t, 3000, byCat[0].Amount.Cents)
	assert.Equal(t, "Food & Dining", byCat[1].Name)
	assert.EqualValues(t, 1500, byCat[1].Amount.Cents)

	history, err := env.reports.History(ctx, user, core.NewDate(2025, 1, 1), core.NewDate(2025, 12, 31))
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "10-2025", history[0].Period.String())
	assert.Equal(t, "11-2025", history[1].Period.String())
	assert.EqualValues(t, 3500, history[1].Amount.Cents)
}

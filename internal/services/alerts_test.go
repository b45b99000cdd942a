package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ems/internal/core"
)

func TestWholeMonthBudgetOverageOnThirdExpense(t *testing.T) {
	env := newTestEnv(t)
	user := uuid.New()
	env.wholeMonthBudget(t, user, "2000000", "11-2025")

	first := env.spend(t, user, "800000", core.NewDate(2025, 11, 3), foodID)
	assert.Nil(t, first.Alert)
	second := env.spend(t, user, "800000", core.NewDate(2025, 11, 10), transportID)
	assert.Nil(t, second.Alert)

	third := env.spend(t, user, "800000", core.NewDate(2025, 11, 20), foodID)
	require.NotNil(t, third.Alert)
	assert.True(t, third.Alert.IsWholeMonth())
	assert.EqualValues(t, 40000000, third.Alert.Overage.Cents)
	assert.Equal(t,
		"Warning: Total spending for 11-2025 has exceeded the global budget by 400,000.00 VND",
		third.Alert.Message())
	assert.Empty(t, third.Diagnostics())
}

func TestCategoryBudgetTakesPrecedence(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := uuid.New()

	_, err := env.budgets.Create(ctx, user, BudgetInput{
		Name:       "Food",
		Amount:     money(t, "500000"),
		Period:     period(t, "11-2025"),
		CategoryID: uuid.NullUUID{UUID: foodID, Valid: true},
	})
	require.NoError(t, err)
	env.wholeMonthBudget(t, user, "2000000", "11-2025")

	res := env.spend(t, user, "600000", core.NewDate(2025, 11, 5), foodID)
	require.NotNil(t, res.Alert)
	assert.False(t, res.Alert.IsWholeMonth())
	assert.EqualValues(t, 10000000, res.Alert.Overage.Cents)
	assert.Equal(t,
		"Warning: Spending for category 'Food & Dining' in 11-2025 has exceeded the budget by 100,000.00 VND",
		res.Alert.Message())
}

func TestCategoryBudgetComparesCategoryTotalOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := uuid.New()

	_, err := env.budgets.Create(ctx, user, BudgetInput{
		Name:       "Food",
		Amount:     money(t, "500000"),
		Period:     period(t, "11-2025"),
		CategoryID: uuid.NullUUID{UUID: foodID, Valid: true},
	})
	require.NoError(t, err)

	env.spend(t, user, "900000", core.NewDate(2025, 11, 1), transportID)
	res := env.spend(t, user, "400000", core.NewDate(2025, 11, 2), foodID)
	assert.Nil(t, res.Alert, "transport spending does not count against the food budget")
}

func TestNoBudgetNoAlert(t *testing.T) {
	env := newTestEnv(t)
	user := uuid.New()
	env.wholeMonthBudget(t, user, "100", "10-2025")

	res := env.spend(t, user, "999999", core.NewDate(2025, 11, 5), foodID)
	assert.Nil(t, res.Alert)
	assert.NoError(t, res.AlertErr)
}

func TestListAlertsBatchedAcrossPage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := uuid.New()
	env.wholeMonthBudget(t, user, "100", "10-2025")
	env.wholeMonthBudget(t, user, "1000000", "11-2025")

	for i := 0; i < 25; i++ {
		month, day := 10, 1+i
		if i >= 12 {
			month, day = 11, i-11
		}
		env.spend(t, user, "10", core.NewDate(2025, month, day), foodID)
	}

	for _, size := range []int{5, 25, 50} {
		env.store.reset()
		res, err := env.expenses.List(ctx, user, core.RecordCriteria{}, core.PageRequest{Page: 1, Size: size})
		require.NoError(t, err)

		assert.Equal(t, 1, env.store.monthlySums, "page size %d", size)
		assert.Equal(t, 1, env.store.wholeMonth, "page size %d", size)
		assert.Zero(t, env.store.sumInRange, "list path never sums per row")
		assert.Zero(t, env.store.budgetsForPeriod)

		if size >= 25 {
			crit := env.store.lastSumsCriteria
			assert.Equal(t, "2025-10-01", crit.StartDate.String())
			assert.Equal(t, "2025-11-30", crit.EndDate.String())
			assert.Equal(t, user, crit.UserID)
			periods := make([]string, 0, len(env.store.lastPeriods))
			for _, p := range env.store.lastPeriods {
				periods = append(periods, p.String())
			}
			assert.Equal(t, []string{"10-2025", "11-2025"}, periods)

			assert.Len(t, res.Page.Items, 25)
			require.Len(t, res.Alerts, 1)
			assert.Equal(t, "10-2025", res.Alerts[0].Period.String())
			assert.EqualValues(t, 12*1000-10000, res.Alerts[0].Overage.Cents)
		}
	}
}

func TestListAlertsEmptyPage(t *testing.T) {
	env := newTestEnv(t)
	env.store.reset()

	res, err := env.expenses.List(context.Background(), uuid.New(), core.RecordCriteria{}, core.PageRequest{})
	require.NoError(t, err)
	assert.Empty(t, res.Page.Items)
	assert.NotNil(t, res.Alerts)
	assert.Empty(t, res.Alerts)
	assert.Zero(t, env.store.monthlySums, "no aggregation on an empty page")
	assert.Zero(t, env.store.wholeMonth)
}

func TestListAlertsIgnoreCategoryBudgets(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := uuid.New()

	_, err := env.budgets.Create(ctx, user, BudgetInput{
		Name: "Food", Amount: money(t, "1"), Period: period(t, "11-2025"),
		CategoryID: uuid.NullUUID{UUID: foodID, Valid: true},
	})
	require.NoError(t, err)
	env.spend(t, user, "50", core.NewDate(2025, 11, 1), foodID)

	res, err := env.expenses.List(ctx, user, core.RecordCriteria{}, core.PageRequest{})
	require.NoError(t, err)
	assert.Empty(t, res.Alerts)
}

func TestAlertFailureKeepsWrite(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := uuid.New()
	env.wholeMonthBudget(t, user, "1", "11-2025")

	env.store.failSums = true
	res, err := env.expenses.Create(ctx, user, RecordInput{
		Title: "Groceries", Amount: money(t, "10"), Date: core.NewDate(2025, 11, 1), CategoryID: foodID,
	})
	require.NoError(t, err, "alert failure must not fail the write")
	assert.Nil(t, res.Alert)
	assert.ErrorIs(t, res.AlertErr, errInjected)
	assert.Equal(t, []string{DiagnosticAlertUnavailable}, res.Diagnostics())

	stored, err := env.expenses.Get(ctx, user, res.Record.ID)
	require.NoError(t, err)
	assert.Equal(t, "Groceries", stored.Title)

	list, err := env.expenses.List(ctx, user, core.RecordCriteria{}, core.PageRequest{})
	require.NoError(t, err, "listing degrades to no alerts")
	assert.Len(t, list.Page.Items, 1)
	assert.Empty(t, list.Alerts)
}

func TestUpdateRecomputesAlert(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := uuid.New()
	env.wholeMonthBudget(t, user, "100", "11-2025")

	res := env.spend(t, user, "50", core.NewDate(2025, 11, 1), foodID)
	require.Nil(t, res.Alert)

	updated, err := env.expenses.Update(ctx, user, res.Record.ID, RecordInput{
		Title: "bigger", Amount: money(t, "150.50"), Date: core.NewDate(2025, 11, 1), CategoryID: foodID,
	})
	require.NoError(t, err)
	require.NotNil(t, updated.Alert)
	assert.EqualValues(t, 5050, updated.Alert.Overage.Cents, "the edited amount replaces the old one")
}

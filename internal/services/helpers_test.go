package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"ems/internal/amqp"
	"ems/internal/cache"
	"ems/internal/core"
	"ems/internal/storage"
)

// Global categories seeded by the migrations.
var (
	foodID      = uuid.MustParse("00000000-0000-4000-8000-000000000001")
	transportID = uuid.MustParse("00000000-0000-4000-8000-000000000002")
	salaryID    = uuid.MustParse("00000000-0000-4000-8000-000000000007")
)

var errInjected = errors.New("injected failure")

// countingStore counts the aggregation and budget queries that reach the
// database and can be told to fail them.
type countingStore struct {
	*storage.SQLiteRepository

	mu               sync.Mutex
	monthlySums      int
	sumInRange       int
	wholeMonth       int
	budgetsForPeriod int
	failSums         bool

	lastSumsCriteria core.RecordCriteria
	lastPeriods      []core.Period
}

func (c *countingStore) MonthlySums(ctx context.Context, kind core.CategoryType, crit core.RecordCriteria) ([]core.MonthlyStat, error) {
	c.mu.Lock()
	c.monthlySums++
	c.lastSumsCriteria = crit
	fail := c.failSums
	c.mu.Unlock()
	if fail {
		return nil, errInjected
	}
	return c.SQLiteRepository.MonthlySums(ctx, kind, crit)
}

func (c *countingStore) SumInRange(ctx context.Context, kind core.CategoryType, crit core.RecordCriteria) (core.Money, error) {
	c.mu.Lock()
	c.sumInRange++
	fail := c.failSums
	c.mu.Unlock()
	if fail {
		return core.Money{}, errInjected
	}
	return c.SQLiteRepository.SumInRange(ctx, kind, crit)
}

func (c *countingStore) WholeMonthBudgets(ctx context.Context, user uuid.UUID, periods []core.Period) ([]core.Budget, error) {
	c.mu.Lock()
	c.wholeMonth++
	c.lastPeriods = append([]core.Period(nil), periods...)
	c.mu.Unlock()
	return c.SQLiteRepository.WholeMonthBudgets(ctx, user, periods)
}

func (c *countingStore) BudgetsForPeriod(ctx context.Context, user uuid.UUID, period core.Period) ([]core.Budget, error) {
	c.mu.Lock()
	c.budgetsForPeriod++
	c.mu.Unlock()
	return c.SQLiteRepository.BudgetsForPeriod(ctx, user, period)
}

func (c *countingStore) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.monthlySums, c.sumInRange, c.wholeMonth, c.budgetsForPeriod = 0, 0, 0, 0
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*amqp.RecordEvent
	err    error
}

func (p *recordingPublisher) PublishRecordEvent(_ context.Context, evt *amqp.RecordEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, evt)
	return nil
}

type testEnv struct {
	store      *countingStore
	publisher  *recordingPublisher
	categories *CategoryService
	budgets    *BudgetService
	alerts     *AlertService
	expenses   *RecordService
	incomes    *RecordService
	reports    *ReportService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "ems.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	store := &countingStore{SQLiteRepository: repo}
	publisher := &recordingPublisher{}
	categories := NewCategoryService(store, cache.NewLRUCache[[]core.Category](4, time.Minute))
	budgets := NewBudgetService(store, categories)
	alerts := NewAlertService(NewAggregationService(store), budgets)

	return &testEnv{
		store:      store,
		publisher:  publisher,
		categories: categories,
		budgets:    budgets,
		alerts:     alerts,
		expenses:   NewExpenseService(store, categories, alerts, publisher, DefaultPaging()),
		incomes:    NewIncomeService(store, categories, publisher, DefaultPaging()),
		reports:    NewReportService(store),
	}
}

func money(t *testing.T, s string) core.Money {
	t.Helper()
	m, err := core.ParseMoney(s)
	require.NoError(t, err)
	return m
}

func period(t *testing.T, s string) core.Period {
	t.Helper()
	p, err := core.ParsePeriod(s)
	require.NoError(t, err)
	return p
}

func (e *testEnv) spend(t *testing.T, user uuid.UUID, amount string, date core.Date, category uuid.UUID) WriteResult {
	t.Helper()
	res, err := e.expenses.Create(context.Background(), user, RecordInput{
		Title:      "expense",
		Amount:     money(t, amount),
		Date:       date,
		CategoryID: category,
	})
	require.NoError(t, err)
	return res
}

func (e *testEnv) wholeMonthBudget(t *testing.T, user uuid.UUID, amount, p string) core.Budget {
	t.Helper()
	b, err := e.budgets.Create(context.Background(), user, BudgetInput{
		Name:   "Monthly " + p,
		Amount: money(t, amount),
		Period: period(t, p),
	})
	require.NoError(t, err)
	return b
}

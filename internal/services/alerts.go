package services

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"ems/internal/core"
	"ems/internal/log"
)

// AlertService computes budget overages for the write and list paths.
type AlertService struct {
	aggregates *AggregationService
	budgets    *BudgetService
	logger     *log.StructuredLogger
}

func NewAlertService(aggregates *AggregationService, budgets *BudgetService) *AlertService {
	return &AlertService{
		aggregates: aggregates,
		budgets:    budgets,
		logger:     log.NewStructuredLogger(log.ForComponent(log.ComponentAlert)),
	}
}

// ForWrite evaluates the budget governing a just-committed expense. The sum
// runs after the write so the new amount is included. A category budget is
// compared with the category's total, a whole-month budget with the month's.
// It returns nil when no budget applies or spending is within it.
func (s *AlertService) ForWrite(ctx context.Context, rec core.Record) (*core.Alert, error) {
	period := core.PeriodOf(rec.Date)
	category := uuid.NullUUID{UUID: rec.Category.ID, Valid: true}

	budget, ok, err := s.budgets.Resolve(ctx, rec.UserID, period, category)
	if err != nil || !ok {
		return nil, err
	}

	scope := uuid.NullUUID{}
	if !budget.IsWholeMonth() {
		scope = budget.CategoryID
	}
	used, err := s.aggregates.SumInRange(ctx, rec.UserID, scope, period.Start(), period.End())
	if err != nil {
		return nil, err
	}

	alert, ok := core.AlertFor(budget, used)
	if !ok {
		return nil, nil
	}
	s.logger.LogBudgetAlert(ctx, rec.UserID.String(), period.String(), alert.Overage.String(), alert.IsWholeMonth())
	return &alert, nil
}

// ForList returns the whole-month alerts for the months a page of expenses
// spans, oldest first. It costs one sum query and one budget query however
// long the page is. Category budgets are only evaluated on write.
func (s *AlertService) ForList(ctx context.Context, user uuid.UUID, page []core.Record) ([]core.Alert, error) {
	dates := make([]core.Date, len(page))
	for i, rec := range page {
		dates[i] = rec.Date
	}
	start, end, ok := core.MonthAlignedRange(dates)
	if !ok {
		return []core.Alert{}, nil
	}

	sums, err := s.aggregates.MonthlySums(ctx, user, core.CategoryExpense, start, end)
	if err != nil {
		return nil, err
	}
	if len(sums) == 0 {
		return []core.Alert{}, nil
	}

	var periods []core.Period
	for _, p := range core.PeriodsBetween(start, end) {
		if _, spent := sums[p.String()]; spent {
			periods = append(periods, p)
		}
	}

	budgets, err := s.budgets.WholeMonth(ctx, user, periods)
	if err != nil {
		return nil, err
	}

	alerts := []core.Alert{}
	for _, b := range budgets {
		if alert, over := core.AlertFor(b, sums[b.Period.String()]); over {
			alerts = append(alerts, alert)
		}
	}
	sort.Slice(alerts, func(i, j int) bool { return alerts[i].Period.Before(alerts[j].Period) })
	return alerts, nil
}

package services

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"ems/internal/core"
	"ems/internal/log"
)

// PeriodAmount is one month of the expense history.
type PeriodAmount struct {
	Period core.Period
	Amount core.Money
}

// ReportService summarises a user's records over a date range.
type ReportService struct {
	store  AggregateStore
	logger *log.Logger
}

func NewReportService(store AggregateStore) *ReportService {
	return &ReportService{store: store, logger: log.ForComponent(log.ComponentReport)}
}

// Stats returns total income, total expense and their difference. The two
// sums are independent reads and run concurrently.
func (s *ReportService) Stats(ctx context.Context, user uuid.UUID, start, end core.Date) (core.ReportStats, error) {
	c, err := reportRange(user, start, end)
	if err != nil {
		return core.ReportStats{}, err
	}

	var income, expense core.Money
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		income, err = s.store.SumInRange(gctx, core.CategoryIncome, c)
		return err
	})
	g.Go(func() error {
		var err error
		expense, err = s.store.SumInRange(gctx, core.CategoryExpense, c)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.WarnContext(ctx, "Report stats failed",
			log.FieldUserID, user,
			log.FieldError, err)
		return core.ReportStats{}, err
	}

	return core.ReportStats{
		TotalIncome:  income,
		TotalExpense: expense,
		Balance:      income.Sub(expense),
	}, nil
}

// Categories returns expense totals per category name, largest first.
func (s *ReportService) Categories(ctx context.Context, user uuid.UUID, start, end core.Date) ([]core.CategoryAmount, error) {
	c, err := reportRange(user, start, end)
	if err != nil {
		return nil, err
	}
	out, err := s.store.SumByCategory(ctx, core.CategoryExpense, c)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []core.CategoryAmount{}
	}
	return out, nil
}

// History returns monthly expense totals in ascending month order. Months
// without expenses are omitted.
func (s *ReportService) History(ctx context.Context, user uuid.UUID, start, end core.Date) ([]PeriodAmount, error) {
	c, err := reportRange(user, start, end)
	if err != nil {
		return nil, err
	}
	stats, err := s.store.MonthlySums(ctx, core.CategoryExpense, c)
	if err != nil {
		return nil, err
	}
	out := make([]PeriodAmount, 0, len(stats))
	for _, st := range stats {
		out = append(out, PeriodAmount{Period: st.Period(), Amount: st.Total})
	}
	return out, nil
}

func reportRange(user uuid.UUID, start, end core.Date) (core.RecordCriteria, error) {
	if start.IsEmpty() || end.IsEmpty() {
		return core.RecordCriteria{}, core.InvalidArgumentf("startDate and endDate are required")
	}
	c := core.InRange(user, start, end)
	return c, c.Validate()
}

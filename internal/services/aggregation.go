package services

import (
	"context"

	"github.com/google/uuid"

	"ems/internal/core"
)

// AggregationService turns grouped sums into the lookups the alert paths
// need. Each method issues exactly one store query.
type AggregationService struct {
	store AggregateStore
}

func NewAggregationService(store AggregateStore) *AggregationService {
	return &AggregationService{store: store}
}

// MonthlySums returns the user's totals keyed by MM-YYYY for every month in
// [start, end] that has at least one row.
func (s *AggregationService) MonthlySums(ctx context.Context, user uuid.UUID, kind core.CategoryType, start, end core.Date) (map[string]core.Money, error) {
	c := core.InRange(user, start, end)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	stats, err := s.store.MonthlySums(ctx, kind, c)
	if err != nil {
		return nil, err
	}
	out := make(map[string]core.Money, len(stats))
	for _, st := range stats {
		out[st.Period().String()] = st.Total
	}
	return out, nil
}

// SumInRange totals the user's expenses in [start, end], restricted to
// category when it is set. No rows sums to zero.
func (s *AggregationService) SumInRange(ctx context.Context, user uuid.UUID, category uuid.NullUUID, start, end core.Date) (core.Money, error) {
	c := core.InRange(user, start, end)
	c.CategoryID = category
	if err := c.Validate(); err != nil {
		return core.Money{}, err
	}
	return s.store.SumInRange(ctx, core.CategoryExpense, c)
}

package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"ems/internal/core"
	"ems/internal/log"
)

// BudgetInput is the caller-editable part of a budget. CategoryID is absent
// for a whole-month budget.
type BudgetInput struct {
	Name       string
	Amount     core.Money
	Period     core.Period
	CategoryID uuid.NullUUID
}

// BudgetService enforces one budget per (user, period, category-or-none)
// and resolves which budget applies to a write.
type BudgetService struct {
	store      BudgetStore
	categories *CategoryService
	logger     *log.Logger
}

func NewBudgetService(store BudgetStore, categories *CategoryService) *BudgetService {
	return &BudgetService{
		store:      store,
		categories: categories,
		logger:     log.ForComponent(log.ComponentBudget),
	}
}

// Resolve returns the budget that governs spending in period. A category
// budget wins over the whole-month budget; ok is false when neither exists.
// All of the period's budgets come back in one query.
func (s *BudgetService) Resolve(ctx context.Context, user uuid.UUID, period core.Period, category uuid.NullUUID) (core.Budget, bool, error) {
	budgets, err := s.store.BudgetsForPeriod(ctx, user, period)
	if err != nil {
		return core.Budget{}, false, err
	}
	return pickBudget(budgets, category)
}

func pickBudget(budgets []core.Budget, category uuid.NullUUID) (core.Budget, bool, error) {
	var (
		whole    core.Budget
		hasWhole bool
	)
	for _, b := range budgets {
		if category.Valid && b.CategoryID == category {
			return b, true, nil
		}
		if b.IsWholeMonth() {
			whole, hasWhole = b, true
		}
	}
	return whole, hasWhole, nil
}

// WholeMonth returns the user's whole-month budgets for periods in one
// query.
func (s *BudgetService) WholeMonth(ctx context.Context, user uuid.UUID, periods []core.Period) ([]core.Budget, error) {
	return s.store.WholeMonthBudgets(ctx, user, periods)
}

func (s *BudgetService) Get(ctx context.Context, user, id uuid.UUID) (core.Budget, error) {
	b, err := s.store.GetBudget(ctx, id)
	if err != nil {
		return core.Budget{}, err
	}
	if b.UserID != user {
		return core.Budget{}, core.Forbiddenf("You do not have permission to access this budget.")
	}
	return b, nil
}

// List returns the user's budgets; a zero period lists all periods.
func (s *BudgetService) List(ctx context.Context, user uuid.UUID, period core.Period) ([]core.Budget, error) {
	return s.store.ListBudgets(ctx, user, period)
}

func (s *BudgetService) Create(ctx context.Context, user uuid.UUID, in BudgetInput) (core.Budget, error) {
	b := core.Budget{
		ID:         uuid.New(),
		UserID:     user,
		Name:       strings.TrimSpace(in.Name),
		Amount:     in.Amount,
		Period:     in.Period,
		CategoryID: in.CategoryID,
	}
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	if err := s.attachCategory(ctx, user, &b); err != nil {
		return core.Budget{}, err
	}
	if err := s.ensureUnique(ctx, b, uuid.NullUUID{}); err != nil {
		return core.Budget{}, err
	}

	// The unique index still rejects a concurrent insert of the same key.
	if err := s.store.CreateBudget(ctx, b); err != nil {
		return core.Budget{}, err
	}
	s.logger.InfoContext(ctx, "Budget created",
		log.FieldBudgetID, b.ID,
		log.FieldUserID, user,
		log.FieldPeriod, b.Period.String())
	return b, nil
}

// Update rewrites a budget. The category and uniqueness are re-checked only
// when the period or category changes, and never against the budget itself.
func (s *BudgetService) Update(ctx context.Context, user, id uuid.UUID, in BudgetInput) (core.Budget, error) {
	current, err := s.Get(ctx, user, id)
	if err != nil {
		return core.Budget{}, err
	}

	b := current
	b.Name = strings.TrimSpace(in.Name)
	b.Amount = in.Amount
	b.Period = in.Period
	b.CategoryID = in.CategoryID
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}

	// An unchanged key keeps its category as stored, even if that category
	// has since been deleted.
	if b.Key() != current.Key() {
		if err := s.attachCategory(ctx, user, &b); err != nil {
			return core.Budget{}, err
		}
		if err := s.ensureUnique(ctx, b, uuid.NullUUID{UUID: id, Valid: true}); err != nil {
			return core.Budget{}, err
		}
	}

	if err := s.store.UpdateBudget(ctx, b); err != nil {
		return core.Budget{}, err
	}
	s.logger.InfoContext(ctx, "Budget updated",
		log.FieldBudgetID, b.ID,
		log.FieldUserID, user,
		"budget_key", b.Key().String())
	return b, nil
}

func (s *BudgetService) Delete(ctx context.Context, user, id uuid.UUID) error {
	if _, err := s.Get(ctx, user, id); err != nil {
		return err
	}
	return s.store.DeleteBudget(ctx, id)
}

// attachCategory checks a category budget's category is usable and of
// expense type, and fills in its name.
func (s *BudgetService) attachCategory(ctx context.Context, user uuid.UUID, b *core.Budget) error {
	if b.IsWholeMonth() {
		b.CategoryName = ""
		return nil
	}
	c, err := s.categories.ResolveForKind(ctx, b.CategoryID.UUID, user, core.CategoryExpense)
	if err != nil {
		return err
	}
	b.CategoryName = c.Name
	return nil
}

func (s *BudgetService) ensureUnique(ctx context.Context, b core.Budget, exclude uuid.NullUUID) error {
	exists, err := s.store.BudgetExists(ctx, b.Key(), exclude)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}
	if b.IsWholeMonth() {
		return core.Conflictf("The total budget for %s already exists!", b.Period)
	}
	return core.Conflictf("The budget for '%s' for %s already exists!", b.CategoryName, b.Period)
}

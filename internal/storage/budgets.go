package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"ems/internal/core"
)

const budgetSelect = `SELECT b.id, b.user_id, b.name, b.amount_cents, b.period, b.category_id, COALESCE(c.name, '')
  FROM budgets b
  LEFT JOIN categories c ON c.id = b.category_id`

func scanBudget(s rowScanner) (core.Budget, error) {
	var (
		b      core.Budget
		period string
	)
	if err := s.Scan(&b.ID, &b.UserID, &b.Name, &b.Amount.Cents, &period, &b.CategoryID, &b.CategoryName); err != nil {
		return core.Budget{}, err
	}
	p, err := core.ParsePeriod(period)
	if err != nil {
		return core.Budget{}, fmt.Errorf("stored period %q: %w", period, err)
	}
	b.Period = p
	return b, nil
}

// budgetConflict names the tuple a unique violation collided on.
func budgetConflict(b core.Budget) error {
	if b.IsWholeMonth() {
		return core.Conflictf("The total budget for %s already exists!", b.Period)
	}
	name := b.CategoryName
	if name == "" {
		name = b.CategoryID.UUID.String()
	}
	return core.Conflictf("The budget for '%s' for %s already exists!", name, b.Period)
}

// CreateBudget inserts b. A concurrent insert of the same key loses on the
// unique index and comes back as Conflict.
func (r *SQLiteRepository) CreateBudget(ctx context.Context, b core.Budget) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO budgets (id, user_id, name, amount_cents, period, category_id)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		b.ID, b.UserID, b.Name, b.Amount.Cents, b.Period.String(), b.CategoryID)
	if err = classify(err); err != nil {
		if errors.Is(err, errUniqueViolation) {
			return budgetConflict(b)
		}
		return fmt.Errorf("insert budget: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) UpdateBudget(ctx context.Context, b core.Budget) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE budgets
		    SET name = ?, amount_cents = ?, period = ?, category_id = ?, updated_at = CURRENT_TIMESTAMP
		  WHERE id = ?`,
		b.Name, b.Amount.Cents, b.Period.String(), b.CategoryID, b.ID)
	if err = classify(err); err != nil {
		if errors.Is(err, errUniqueViolation) {
			return budgetConflict(b)
		}
		return fmt.Errorf("update budget: %w", err)
	}
	return expectOne(res, "Budget")
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return expectOne(res, "Budget")
}

func (r *SQLiteRepository) GetBudget(ctx context.Context, id uuid.UUID) (core.Budget, error) {
	b, err := scanBudget(r.db.QueryRowContext(ctx, budgetSelect+` WHERE b.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, core.NotFoundf("Budget not found")
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget: %w", err)
	}
	return b, nil
}

// ListBudgets returns the user's budgets, newest period first. A zero period
// lists every period.
func (r *SQLiteRepository) ListBudgets(ctx context.Context, user uuid.UUID, period core.Period) ([]core.Budget, error) {
	query := budgetSelect + ` WHERE b.user_id = ?`
	args := []any{user}
	if !period.IsZero() {
		query += ` AND b.period = ?`
		args = append(args, period.String())
	}
	query += ` ORDER BY substr(b.period, 4, 4) DESC, substr(b.period, 1, 2) DESC, b.category_id IS NOT NULL, b.name`
	return r.queryBudgets(ctx, query, args...)
}

// BudgetsForPeriod returns every budget the user has for period: the
// whole-month one and all category ones.
func (r *SQLiteRepository) BudgetsForPeriod(ctx context.Context, user uuid.UUID, period core.Period) ([]core.Budget, error) {
	return r.queryBudgets(ctx, budgetSelect+` WHERE b.user_id = ? AND b.period = ?`, user, period.String())
}

// WholeMonthBudgets returns the user's whole-month budgets for any of
// periods in one query.
func (r *SQLiteRepository) WholeMonthBudgets(ctx context.Context, user uuid.UUID, periods []core.Period) ([]core.Budget, error) {
	if len(periods) == 0 {
		return nil, nil
	}
	args := make([]any, 0, len(periods)+1)
	args = append(args, user)
	for _, p := range periods {
		args = append(args, p.String())
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(periods)), ", ")
	query := budgetSelect + ` WHERE b.user_id = ? AND b.category_id IS NULL AND b.period IN (` + placeholders + `)`
	return r.queryBudgets(ctx, query, args...)
}

// BudgetExists reports whether a budget with key exists, ignoring the budget
// with id exclude when it is set.
func (r *SQLiteRepository) BudgetExists(ctx context.Context, key core.BudgetKey, exclude uuid.NullUUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM budgets WHERE user_id = ? AND period = ? AND `
	args := []any{key.UserID, key.Period.String()}
	if key.CategoryID.Valid {
		query += `category_id = ?`
		args = append(args, key.CategoryID.UUID)
	} else {
		query += `category_id IS NULL`
	}
	if exclude.Valid {
		query += ` AND id <> ?`
		args = append(args, exclude.UUID)
	}
	query += `)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("check budget exists: %w", err)
	}
	return exists, nil
}

func (r *SQLiteRepository) queryBudgets(ctx context.Context, query string, args ...any) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

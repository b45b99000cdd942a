package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"ems/internal/core"
)

const categoryColumns = `id, name, description, icon, type, user_id, deleted`

func scanCategory(s rowScanner) (core.Category, error) {
	var (
		c       core.Category
		typ     string
		owner   uuid.NullUUID
		deleted bool
	)
	if err := s.Scan(&c.ID, &c.Name, &c.Description, &c.Icon, &typ, &owner, &deleted); err != nil {
		return core.Category{}, err
	}
	c.Type = core.CategoryType(typ)
	if owner.Valid {
		c.Owner = core.OwnedBy(owner.UUID)
	}
	if deleted {
		c.State = core.CategoryDeleted
	}
	return c, nil
}

func ownerValue(o core.Owner) uuid.NullUUID {
	id, ok := o.UserID()
	return uuid.NullUUID{UUID: id, Valid: ok}
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (id, name, description, icon, type, user_id, deleted)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Description, c.Icon, string(c.Type), ownerValue(c.Owner), c.State == core.CategoryDeleted)
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

// GetCategory returns the category in any state; NotFound only when no row
// exists.
func (r *SQLiteRepository) GetCategory(ctx context.Context, id uuid.UUID) (core.Category, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, core.NotFoundf("Category not found")
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

func (r *SQLiteRepository) UpdateCategory(ctx context.Context, c core.Category) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE categories
		    SET name = ?, description = ?, icon = ?, type = ?, updated_at = CURRENT_TIMESTAMP
		  WHERE id = ?`,
		c.Name, c.Description, c.Icon, string(c.Type), c.ID)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return expectOne(res, "Category")
}

// DeleteCategory flips the category to Deleted. The row and every record
// pointing at it stay in place.
func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE categories SET deleted = 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("soft delete category: %w", err)
	}
	return expectOne(res, "Category")
}

// ListUserCategories returns the active categories owned by user. An empty
// typ returns both types.
func (r *SQLiteRepository) ListUserCategories(ctx context.Context, user uuid.UUID, typ core.CategoryType) ([]core.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE user_id = ? AND deleted = 0`
	args := []any{user}
	if typ != "" {
		query += ` AND type = ?`
		args = append(args, string(typ))
	}
	query += ` ORDER BY name`
	return r.queryCategories(ctx, query, args...)
}

// ListGlobalCategories returns every active global category.
func (r *SQLiteRepository) ListGlobalCategories(ctx context.Context) ([]core.Category, error) {
	return r.queryCategories(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE user_id IS NULL AND deleted = 0 ORDER BY name`)
}

// CategoryInUse reports whether any expense, income or budget references id.
func (r *SQLiteRepository) CategoryInUse(ctx context.Context, id uuid.UUID) (bool, error) {
	var used bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM expenses WHERE category_id = ?)
		     OR EXISTS (SELECT 1 FROM incomes WHERE category_id = ?)
		     OR EXISTS (SELECT 1 FROM budgets WHERE category_id = ?)`,
		id, id, id).Scan(&used)
	if err != nil {
		return false, fmt.Errorf("check category usage: %w", err)
	}
	return used, nil
}

func (r *SQLiteRepository) queryCategories(ctx context.Context, query string, args ...any) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

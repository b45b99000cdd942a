package storage

import (
	"context"
	"fmt"

	"ems/internal/core"
)

// MonthlySums groups the matching rows by calendar month in one query. Only
// months with at least one row are returned, oldest first.
func (r *SQLiteRepository) MonthlySums(ctx context.Context, kind core.CategoryType, c core.RecordCriteria) ([]core.MonthlyStat, error) {
	table, err := recordTable(kind)
	if err != nil {
		return nil, err
	}
	pred := BuildFilter(c)
	query := fmt.Sprintf(`SELECT CAST(substr(r.date, 1, 4) AS INTEGER) AS y,
	        CAST(substr(r.date, 6, 2) AS INTEGER) AS m,
	        SUM(r.amount_cents)
	   FROM %s r
	  WHERE %s
	  GROUP BY y, m
	  ORDER BY y, m`, table, pred.Where())

	rows, err := r.db.QueryContext(ctx, query, pred.Args()...)
	if err != nil {
		return nil, fmt.Errorf("monthly sums: %w", err)
	}
	defer rows.Close()

	var out []core.MonthlyStat
	for rows.Next() {
		var s core.MonthlyStat
		if err := rows.Scan(&s.Year, &s.Month, &s.Total.Cents); err != nil {
			return nil, fmt.Errorf("scan monthly sum: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// SumInRange totals the matching rows. No match yields zero.
func (r *SQLiteRepository) SumInRange(ctx context.Context, kind core.CategoryType, c core.RecordCriteria) (core.Money, error) {
	table, err := recordTable(kind)
	if err != nil {
		return core.Money{}, err
	}
	pred := BuildFilter(c)
	var cents int64
	query := fmt.Sprintf(`SELECT COALESCE(SUM(r.amount_cents), 0) FROM %s r WHERE %s`, table, pred.Where())
	if err := r.db.QueryRowContext(ctx, query, pred.Args()...).Scan(&cents); err != nil {
		return core.Money{}, fmt.Errorf("sum %s: %w", table, err)
	}
	return core.Money{Cents: cents}, nil
}

// SumByCategory totals the matching rows per category name, largest first.
func (r *SQLiteRepository) SumByCategory(ctx context.Context, kind core.CategoryType, c core.RecordCriteria) ([]core.CategoryAmount, error) {
	table, err := recordTable(kind)
	if err != nil {
		return nil, err
	}
	pred := BuildFilter(c)
	query := fmt.Sprintf(`SELECT c.name, SUM(r.amount_cents) AS total
	   FROM %s r
	   JOIN categories c ON c.id = r.category_id
	  WHERE %s
	  GROUP BY c.id, c.name
	  ORDER BY total DESC, c.name`, table, pred.Where())

	rows, err := r.db.QueryContext(ctx, query, pred.Args()...)
	if err != nil {
		return nil, fmt.Errorf("sum by category: %w", err)
	}
	defer rows.Close()

	var out []core.CategoryAmount
	for rows.Next() {
		var ca core.CategoryAmount
		if err := rows.Scan(&ca.Name, &ca.Amount.Cents); err != nil {
			return nil, fmt.Errorf("scan category sum: %w", err)
		}
		out = append(out, ca)
	}
	return out, rows.Err()
}

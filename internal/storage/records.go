package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"ems/internal/core"
)

// recordSelect joins the category so listed records carry its name, icon
// and type whatever state the category is in.
const recordSelect = `SELECT r.id, r.user_id, r.title, r.amount_cents, r.date, r.note,
       c.id, c.name, c.icon, c.type
  FROM %s r
  JOIN categories c ON c.id = r.category_id`

func scanRecord(s rowScanner, kind core.CategoryType) (core.Record, error) {
	var (
		rec     core.Record
		date    string
		catType string
	)
	err := s.Scan(&rec.ID, &rec.UserID, &rec.Title, &rec.Amount.Cents, &date, &rec.Note,
		&rec.Category.ID, &rec.Category.Name, &rec.Category.Icon, &catType)
	if err != nil {
		return core.Record{}, err
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return core.Record{}, fmt.Errorf("stored date %q: %w", date, err)
	}
	rec.Date = d
	rec.Kind = kind
	rec.Category.Type = core.CategoryType(catType)
	return rec, nil
}

// CreateRecord inserts an expense or income according to rec.Kind.
func (r *SQLiteRepository) CreateRecord(ctx context.Context, rec core.Record) error {
	table, err := recordTable(rec.Kind)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (id, user_id, title, amount_cents, date, note, category_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`, table),
		rec.ID, rec.UserID, rec.Title, rec.Amount.Cents, rec.Date.String(), rec.Note, rec.Category.ID)
	if err != nil {
		return fmt.Errorf("insert %s: %w", rec.Kind.Noun(), err)
	}
	return nil
}

func (r *SQLiteRepository) UpdateRecord(ctx context.Context, rec core.Record) error {
	table, err := recordTable(rec.Kind)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s
		    SET title = ?, amount_cents = ?, date = ?, note = ?, category_id = ?, updated_at = CURRENT_TIMESTAMP
		  WHERE id = ?`, table),
		rec.Title, rec.Amount.Cents, rec.Date.String(), rec.Note, rec.Category.ID, rec.ID)
	if err != nil {
		return fmt.Errorf("update %s: %w", rec.Kind.Noun(), err)
	}
	return expectOne(res, recordName(rec.Kind))
}

func (r *SQLiteRepository) DeleteRecord(ctx context.Context, kind core.CategoryType, id uuid.UUID) error {
	table, err := recordTable(kind)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, table), id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", kind.Noun(), err)
	}
	return expectOne(res, recordName(kind))
}

// GetRecord loads one record by id regardless of owner; ownership is the
// caller's check.
func (r *SQLiteRepository) GetRecord(ctx context.Context, kind core.CategoryType, id uuid.UUID) (core.Record, error) {
	table, err := recordTable(kind)
	if err != nil {
		return core.Record{}, err
	}
	row := r.db.QueryRowContext(ctx, fmt.Sprintf(recordSelect, table)+` WHERE r.id = ?`, id)
	rec, err := scanRecord(row, kind)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Record{}, core.NotFoundf("%s not found", recordName(kind))
	}
	if err != nil {
		return core.Record{}, fmt.Errorf("get %s: %w", kind.Noun(), err)
	}
	return rec, nil
}

// ListRecords returns one page of the rows matching criteria and the total
// match count. Incomes are newest first; expenses keep insertion order.
func (r *SQLiteRepository) ListRecords(ctx context.Context, kind core.CategoryType, c core.RecordCriteria, page core.PageRequest) ([]core.Record, int64, error) {
	table, err := recordTable(kind)
	if err != nil {
		return nil, 0, err
	}
	pred := BuildFilter(c)

	var total int64
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s r WHERE %s`, table, pred.Where())
	if err := r.db.QueryRowContext(ctx, countQuery, pred.Args()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", table, err)
	}
	if total == 0 {
		return nil, 0, nil
	}

	order := `r.rowid`
	if kind == core.CategoryIncome {
		order = `r.date DESC, r.rowid DESC`
	}
	query := fmt.Sprintf(recordSelect, table) +
		fmt.Sprintf(` WHERE %s ORDER BY %s LIMIT ? OFFSET ?`, pred.Where(), order)
	args := append(pred.Args(), page.Size, page.Offset())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list %s: %w", table, err)
	}
	defer rows.Close()

	var out []core.Record
	for rows.Next() {
		rec, err := scanRecord(rows, kind)
		if err != nil {
			return nil, 0, fmt.Errorf("scan %s: %w", kind.Noun(), err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func recordName(kind core.CategoryType) string {
	if kind == core.CategoryIncome {
		return "Income"
	}
	return "Expense"
}

// Package sheets defines the outbound port for exporting records to a
// spreadsheet. Adapters live in the google and memory subpackages.
package sheets

import (
	"context"
	"time"

	"github.com/google/uuid"

	"ems/internal/core"
)

type (
	// RecordExporter appends one row per exported change. Rows are never
	// edited in place; a deletion is its own tombstone row.
	RecordExporter interface {
		AppendRecord(ctx context.Context, rec core.Record, event string) (rowRef string, err error)
		AppendTombstone(ctx context.Context, t Tombstone) (rowRef string, err error)
	}

	// Tombstone marks a record deleted at a point in time.
	Tombstone struct {
		ID        uuid.UUID
		Kind      core.CategoryType
		UserID    uuid.UUID
		DeletedAt time.Time
	}
)

// Header is the column layout shared by every adapter.
var Header = []string{"Event", "Exported At", "Kind", "Record ID", "User ID", "Date", "Title", "Category", "Amount", "Note"}

// RecordRow renders rec as one row matching Header. Amounts use the plain
// two-decimal form so the sheet can parse them as numbers.
func RecordRow(rec core.Record, event string, at time.Time) []string {
	return []string{
		event,
		at.UTC().Format(time.RFC3339),
		string(rec.Kind),
		rec.ID.String(),
		rec.UserID.String(),
		rec.Date.String(),
		rec.Title,
		rec.Category.Name,
		rec.Amount.String(),
		rec.Note,
	}
}

// TombstoneRow renders t as one row matching Header.
func TombstoneRow(t Tombstone) []string {
	return []string{
		"deleted",
		t.DeletedAt.UTC().Format(time.RFC3339),
		string(t.Kind),
		t.ID.String(),
		t.UserID.String(),
		"", "", "", "", "",
	}
}

package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ems/internal/core"
	"ems/internal/sheets"
)

func TestExporter_AppendsRows(t *testing.T) {
	e := New()
	at := time.Date(2025, 11, 20, 8, 30, 0, 0, time.UTC)
	e.now = func() time.Time { return at }

	rec := core.Record{
		ID:       uuid.New(),
		Kind:     core.CategoryExpense,
		UserID:   uuid.New(),
		Title:    "Lunch",
		Amount:   core.Money{Cents: 123456},
		Date:     core.NewDate(2025, 11, 20),
		Category: core.CategoryRef{Name: "Food & Dining"},
	}
	ref, err := e.AppendRecord(context.Background(), rec, "created")
	require.NoError(t, err)
	assert.Equal(t, "mem:1", ref)

	ref, err = e.AppendTombstone(context.Background(), sheets.Tombstone{ID: rec.ID, Kind: rec.Kind, UserID: rec.UserID, DeletedAt: at})
	require.NoError(t, err)
	assert.Equal(t, "mem:2", ref)

	rows := e.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, []string{
		"created", "2025-11-20T08:30:00Z", "EXPENSE", rec.ID.String(), rec.UserID.String(),
		"2025-11-20", "Lunch", "Food & Dining", "1234.56", "",
	}, rows[0])
	assert.Equal(t, "deleted", rows[1][0])
	assert.Len(t, rows[1], len(sheets.Header))
}

func TestExporter_RejectsInvalidRecord(t *testing.T) {
	_, err := New().AppendRecord(context.Background(), core.Record{Kind: core.CategoryExpense}, "created")
	assert.ErrorIs(t, err, core.ErrInvalidArgument)
}

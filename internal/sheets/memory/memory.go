// Package memory is an in-process RecordExporter. The export worker uses it
// for dry runs and tests use it to inspect exported rows.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ems/internal/core"
	"ems/internal/sheets"
)

var _ sheets.RecordExporter = (*Exporter)(nil)

type Exporter struct {
	mu   sync.Mutex
	rows [][]string
	now  func() time.Time
}

func New() *Exporter {
	return &Exporter{now: time.Now}
}

// AppendRecord stores the row and returns a synthetic row reference.
func (e *Exporter) AppendRecord(_ context.Context, rec core.Record, event string) (string, error) {
	if err := rec.Validate(); err != nil {
		return "", err
	}
	return e.append(sheets.RecordRow(rec, event, e.now())), nil
}

func (e *Exporter) AppendTombstone(_ context.Context, t sheets.Tombstone) (string, error) {
	return e.append(sheets.TombstoneRow(t)), nil
}

func (e *Exporter) append(row []string) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rows = append(e.rows, row)
	return fmt.Sprintf("mem:%d", len(e.rows))
}

// Rows returns a copy of every appended row in order.
func (e *Exporter) Rows() [][]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([][]string, len(e.rows))
	for i, r := range e.rows {
		out[i] = append([]string(nil), r...)
	}
	return out
}

// Package worker holds background consumers that run outside the API
// process.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"

	"ems/internal/amqp"
	"ems/internal/core"
	"ems/internal/log"
	"ems/internal/sheets"
)

type (
	// EventSource delivers record events until ctx is done. A handler error
	// leaves the event for redelivery.
	EventSource interface {
		ConsumeRecordEvents(ctx context.Context, handler func(context.Context, *amqp.RecordEvent) error) error
	}

	// RecordLoader reads the current state of a record.
	RecordLoader interface {
		GetRecord(ctx context.Context, kind core.CategoryType, id uuid.UUID) (core.Record, error)
	}
)

// Stats counts handled events since the worker started.
type Stats struct {
	Exported int64
	Skipped  int64
	Failed   int64
}

// ExportWorker appends every committed record change to the export sheet.
// Creations and updates are exported from the database row, so an event
// that arrives late still exports current data.
type ExportWorker struct {
	source   EventSource
	records  RecordLoader
	exporter sheets.RecordExporter
	logger   *log.Logger

	exported int64
	skipped  int64
	failed   int64
}

func NewExportWorker(source EventSource, records RecordLoader, exporter sheets.RecordExporter) *ExportWorker {
	return &ExportWorker{
		source:   source,
		records:  records,
		exporter: exporter,
		logger:   log.ForComponent(log.ComponentWorker),
	}
}

// Run consumes events until ctx is cancelled.
func (w *ExportWorker) Run(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Export worker started")
	err := w.source.ConsumeRecordEvents(ctx, w.Handle)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Handle exports one event. A record that no longer exists is skipped
// rather than retried; its deletion event follows.
func (w *ExportWorker) Handle(ctx context.Context, evt *amqp.RecordEvent) error {
	logger := w.logger.With(
		log.FieldRecordID, evt.ID,
		log.FieldRecordKind, evt.Kind,
		log.FieldEventType, evt.Type)

	var (
		ref string
		err error
	)
	switch evt.Type {
	case amqp.RecordDeleted:
		ref, err = w.exporter.AppendTombstone(ctx, sheets.Tombstone{
			ID:        evt.ID,
			Kind:      evt.Kind,
			UserID:    evt.UserID,
			DeletedAt: evt.Timestamp,
		})
	default:
		rec, loadErr := w.records.GetRecord(ctx, evt.Kind, evt.ID)
		if errors.Is(loadErr, core.ErrNotFound) {
			atomic.AddInt64(&w.skipped, 1)
			logger.InfoContext(ctx, "Record gone before export, skipping")
			return nil
		}
		if loadErr != nil {
			atomic.AddInt64(&w.failed, 1)
			return fmt.Errorf("load record: %w", loadErr)
		}
		ref, err = w.exporter.AppendRecord(ctx, rec, string(evt.Type))
	}
	if err != nil {
		atomic.AddInt64(&w.failed, 1)
		logger.ErrorContext(ctx, "Export failed", log.FieldOperation, log.OpExport, log.FieldError, err)
		return fmt.Errorf("export record event: %w", err)
	}

	atomic.AddInt64(&w.exported, 1)
	logger.InfoContext(ctx, "Record exported", "row", ref)
	return nil
}

func (w *ExportWorker) Stats() Stats {
	return Stats{
		Exported: atomic.LoadInt64(&w.exported),
		Skipped:  atomic.LoadInt64(&w.skipped),
		Failed:   atomic.LoadInt64(&w.failed),
	}
}

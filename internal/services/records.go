package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"ems/internal/amqp"
	"ems/internal/core"
	"ems/internal/log"
)

// DiagnosticAlertUnavailable is attached to a write whose alert could not be
// computed.
const DiagnosticAlertUnavailable = "budget alert unavailable"

// RecordInput is the caller-editable part of an expense or income.
type RecordInput struct {
	Title      string
	Amount     core.Money
	Date       core.Date
	Note       string
	CategoryID uuid.UUID
}

// WriteResult is a committed record plus, for expenses, the budget alert it
// triggered. AlertErr is set when the alert step failed after the commit.
type WriteResult struct {
	Record   core.Record
	Alert    *core.Alert
	AlertErr error
}

func (r WriteResult) Diagnostics() []string {
	if r.AlertErr != nil {
		return []string{DiagnosticAlertUnavailable}
	}
	return nil
}

// ListResult is a page of records and, for expenses, the whole-month alerts
// for the months the page spans.
type ListResult struct {
	Page   core.Page[core.Record]
	Alerts []core.Alert
}

// Paging holds the page-size default and cap.
type Paging struct {
	DefaultSize int
	MaxSize     int
}

func DefaultPaging() Paging {
	return Paging{DefaultSize: 10, MaxSize: 50}
}

// RecordService handles one record kind. Expense services carry an alert
// service; income services have none.
type RecordService struct {
	kind       core.CategoryType
	store      RecordStore
	categories *CategoryService
	alerts     *AlertService
	publisher  EventPublisher
	paging     Paging
	logger     *log.Logger
	events     *log.StructuredLogger
}

func NewExpenseService(store RecordStore, categories *CategoryService, alerts *AlertService, publisher EventPublisher, paging Paging) *RecordService {
	return newRecordService(core.CategoryExpense, store, categories, alerts, publisher, paging)
}

func NewIncomeService(store RecordStore, categories *CategoryService, publisher EventPublisher, paging Paging) *RecordService {
	return newRecordService(core.CategoryIncome, store, categories, nil, publisher, paging)
}

func newRecordService(kind core.CategoryType, store RecordStore, categories *CategoryService, alerts *AlertService, publisher EventPublisher, paging Paging) *RecordService {
	logger := log.ForComponent(log.ComponentRecord).With(log.FieldRecordKind, kind)
	return &RecordService{
		kind:       kind,
		store:      store,
		categories: categories,
		alerts:     alerts,
		publisher:  publisher,
		paging:     paging,
		logger:     logger,
		events:     log.NewStructuredLogger(logger),
	}
}

func (s *RecordService) Kind() core.CategoryType { return s.kind }

// Create validates and stores a record, then computes its alert. The alert
// step runs after the insert and cannot undo it.
func (s *RecordService) Create(ctx context.Context, user uuid.UUID, in RecordInput) (WriteResult, error) {
	cat, err := s.categories.ResolveForKind(ctx, in.CategoryID, user, s.kind)
	if err != nil {
		return WriteResult{}, err
	}

	rec := s.build(uuid.New(), user, in, cat)
	if err := rec.Validate(); err != nil {
		return WriteResult{}, err
	}
	if err := s.store.CreateRecord(ctx, rec); err != nil {
		return WriteResult{}, fmt.Errorf("save %s: %w", s.kind.Noun(), err)
	}
	s.events.LogRecordWritten(ctx, log.OpCreate, string(s.kind), rec.ID.String(), user.String(), rec.Amount.Cents)

	s.publish(ctx, rec, amqp.RecordCreated)
	return s.afterWrite(ctx, rec), nil
}

func (s *RecordService) Update(ctx context.Context, user, id uuid.UUID, in RecordInput) (WriteResult, error) {
	if _, err := s.Get(ctx, user, id); err != nil {
		return WriteResult{}, err
	}
	cat, err := s.categories.ResolveForKind(ctx, in.CategoryID, user, s.kind)
	if err != nil {
		return WriteResult{}, err
	}

	rec := s.build(id, user, in, cat)
	if err := rec.Validate(); err != nil {
		return WriteResult{}, err
	}
	if err := s.store.UpdateRecord(ctx, rec); err != nil {
		return WriteResult{}, fmt.Errorf("update %s: %w", s.kind.Noun(), err)
	}
	s.events.LogRecordWritten(ctx, log.OpUpdate, string(s.kind), rec.ID.String(), user.String(), rec.Amount.Cents)

	s.publish(ctx, rec, amqp.RecordUpdated)
	return s.afterWrite(ctx, rec), nil
}

func (s *RecordService) Delete(ctx context.Context, user, id uuid.UUID) error {
	rec, err := s.Get(ctx, user, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteRecord(ctx, s.kind, id); err != nil {
		return fmt.Errorf("delete %s: %w", s.kind.Noun(), err)
	}
	s.logger.InfoContext(ctx, "Record deleted",
		log.FieldOperation, log.OpDelete,
		log.FieldRecordID, id,
		log.FieldUserID, user)

	s.publish(ctx, rec, amqp.RecordDeleted)
	return nil
}

// Get returns one of the user's records. The category is included even when
// it has since been deleted.
func (s *RecordService) Get(ctx context.Context, user, id uuid.UUID) (core.Record, error) {
	rec, err := s.store.GetRecord(ctx, s.kind, id)
	if err != nil {
		return core.Record{}, err
	}
	if rec.UserID != user {
		return core.Record{}, core.Forbiddenf("You do not have permission to access this %s.", s.kind.Noun())
	}
	return rec, nil
}

// List returns one page of the user's records matching criteria. For
// expenses the page comes with its whole-month alerts; an alert failure is
// logged and yields no alerts.
func (s *RecordService) List(ctx context.Context, user uuid.UUID, criteria core.RecordCriteria, page core.PageRequest) (ListResult, error) {
	criteria.UserID = user
	if err := criteria.Validate(); err != nil {
		return ListResult{}, err
	}
	page = page.Normalize(s.paging.DefaultSize, s.paging.MaxSize)

	items, total, err := s.store.ListRecords(ctx, s.kind, criteria, page)
	if err != nil {
		return ListResult{}, fmt.Errorf("list %s: %w", s.kind.Noun(), err)
	}
	if items == nil {
		items = []core.Record{}
	}

	result := ListResult{
		Page: core.Page[core.Record]{
			Items:         items,
			PageNo:        page.Page,
			PageSize:      page.Size,
			TotalElements: total,
		},
		Alerts: []core.Alert{},
	}
	if s.alerts == nil {
		return result, nil
	}

	alerts, err := s.alerts.ForList(ctx, user, items)
	if err != nil {
		s.logger.WarnContext(ctx, "Budget alerts unavailable for listing",
			log.FieldUserID, user,
			log.FieldError, err)
		return result, nil
	}
	result.Alerts = alerts
	if len(alerts) > 0 {
		s.logger.DebugContext(ctx, "Listing carries budget alerts",
			log.FieldUserID, user,
			log.FieldAlertCount, len(alerts))
	}
	return result, nil
}

func (s *RecordService) build(id, user uuid.UUID, in RecordInput, cat core.Category) core.Record {
	return core.Record{
		ID:       id,
		Kind:     s.kind,
		UserID:   user,
		Title:    strings.TrimSpace(in.Title),
		Amount:   in.Amount,
		Date:     in.Date,
		Note:     strings.TrimSpace(in.Note),
		Category: cat.Ref(),
	}
}

// afterWrite attaches the budget alert to a committed expense.
func (s *RecordService) afterWrite(ctx context.Context, rec core.Record) WriteResult {
	result := WriteResult{Record: rec}
	if s.alerts == nil {
		return result
	}
	alert, err := s.alerts.ForWrite(ctx, rec)
	if err != nil {
		s.logger.WarnContext(ctx, "Budget alert computation failed, returning record without alert",
			log.FieldOperation, log.OpAlert,
			log.FieldRecordID, rec.ID,
			log.FieldUserID, rec.UserID,
			log.FieldError, err)
		result.AlertErr = err
		return result
	}
	result.Alert = alert
	return result
}

// publish announces a committed change. Failures are logged only; the
// record is already stored.
func (s *RecordService) publish(ctx context.Context, rec core.Record, typ amqp.EventType) {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "Event publisher not configured, skipping record event")
		return
	}
	if err := s.publisher.PublishRecordEvent(ctx, amqp.NewRecordEvent(rec, typ)); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish record event",
			log.FieldOperation, log.OpPublish,
			log.FieldRecordID, rec.ID,
			log.FieldEventType, typ,
			log.FieldError, err)
	}
}

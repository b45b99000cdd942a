package services

import (
	"context"

	"github.com/google/uuid"

	"ems/internal/amqp"
	"ems/internal/core"
)

// Ports implemented by storage.SQLiteRepository and amqp.Client.
type (
	CategoryStore interface {
		CreateCategory(ctx context.Context, c core.Category) error
		GetCategory(ctx context.Context, id uuid.UUID) (core.Category, error)
		UpdateCategory(ctx context.Context, c core.Category) error
		DeleteCategory(ctx context.Context, id uuid.UUID) error
		ListUserCategories(ctx context.Context, user uuid.UUID, typ core.CategoryType) ([]core.Category, error)
		ListGlobalCategories(ctx context.Context) ([]core.Category, error)
		CategoryInUse(ctx context.Context, id uuid.UUID) (bool, error)
	}

	RecordStore interface {
		CreateRecord(ctx context.Context, rec core.Record) error
		UpdateRecord(ctx context.Context, rec core.Record) error
		DeleteRecord(ctx context.Context, kind core.CategoryType, id uuid.UUID) error
		GetRecord(ctx context.Context, kind core.CategoryType, id uuid.UUID) (core.Record, error)
		ListRecords(ctx context.Context, kind core.CategoryType, c core.RecordCriteria, page core.PageRequest) ([]core.Record, int64, error)
	}

	// AggregateStore runs grouped sums. Every call is exactly one query.
	AggregateStore interface {
		MonthlySums(ctx context.Context, kind core.CategoryType, c core.RecordCriteria) ([]core.MonthlyStat, error)
		SumInRange(ctx context.Context, kind core.CategoryType, c core.RecordCriteria) (core.Money, error)
		SumByCategory(ctx context.Context, kind core.CategoryType, c core.RecordCriteria) ([]core.CategoryAmount, error)
	}

	BudgetStore interface {
		CreateBudget(ctx context.Context, b core.Budget) error
		UpdateBudget(ctx context.Context, b core.Budget) error
		DeleteBudget(ctx context.Context, id uuid.UUID) error
		GetBudget(ctx context.Context, id uuid.UUID) (core.Budget, error)
		ListBudgets(ctx context.Context, user uuid.UUID, period core.Period) ([]core.Budget, error)
		BudgetsForPeriod(ctx context.Context, user uuid.UUID, period core.Period) ([]core.Budget, error)
		WholeMonthBudgets(ctx context.Context, user uuid.UUID, periods []core.Period) ([]core.Budget, error)
		BudgetExists(ctx context.Context, key core.BudgetKey, exclude uuid.NullUUID) (bool, error)
	}

	// Store is the full persistence surface.
	Store interface {
		CategoryStore
		RecordStore
		AggregateStore
		BudgetStore
	}

	// EventPublisher announces committed record changes.
	EventPublisher interface {
		PublishRecordEvent(ctx context.Context, evt *amqp.RecordEvent) error
	}
)

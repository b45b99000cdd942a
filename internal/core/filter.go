package core

import (
	"strings"

	"github.com/google/uuid"
)

// RecordCriteria selects expense or income rows. UserID is always applied;
// the other fields narrow the set only when set.
type RecordCriteria struct {
	UserID     uuid.UUID
	Keyword    string
	CategoryID uuid.NullUUID
	StartDate  Date
	EndDate    Date
}

// InRange returns owner plus inclusive date bounds, the scope used by the
// aggregation queries.
func InRange(user uuid.UUID, start, end Date) RecordCriteria {
	return RecordCriteria{UserID: user, StartDate: start, EndDate: end}
}

// Validate rejects a range whose start is after its end.
func (c RecordCriteria) Validate() error {
	if !c.StartDate.IsEmpty() && !c.EndDate.IsEmpty() && c.StartDate.After(c.EndDate.Time) {
		return ErrDateRange
	}
	return nil
}

func (c RecordCriteria) TrimmedKeyword() string {
	return strings.TrimSpace(c.Keyword)
}

// PageRequest is a one-based page number and a page size.
type PageRequest struct {
	Page int
	Size int
}

// Normalize applies the defaults: page 1, size def, size capped at max.
func (p PageRequest) Normalize(def, max int) PageRequest {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Size < 1 {
		p.Size = def
	}
	if p.Size > max {
		p.Size = max
	}
	return p
}

func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Size
}

// Page is one page of results plus the total count of matching rows.
type Page[T any] struct {
	Items         []T
	PageNo        int
	PageSize      int
	TotalElements int64
}

func (p Page[T]) TotalPages() int {
	if p.PageSize <= 0 {
		return 0
	}
	return int((p.TotalElements + int64(p.PageSize) - 1) / int64(p.PageSize))
}

// Last reports whether this is the final page.
func (p Page[T]) Last() bool {
	return p.PageNo >= p.TotalPages()
}

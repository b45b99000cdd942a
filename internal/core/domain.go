package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const (
	CategoryExpense CategoryType = "EXPENSE"
	CategoryIncome  CategoryType = "INCOME"
)

const (
	CategoryActive CategoryState = iota
	CategoryDeleted
)

const (
	maxTitleLen = 255
	maxNameLen  = 100
)

type (
	// CategoryType is both a category's type and the kind of record
	// (expense or income) that may reference it.
	CategoryType string

	// CategoryState replaces the soft-delete flag: deletion is a transition
	// from Active to Deleted, never a row removal.
	CategoryState int

	// Owner is either Global (no owning user) or owned by exactly one user.
	// The zero value is Global.
	Owner struct {
		user  uuid.UUID
		owned bool
	}

	Category struct {
		ID          uuid.UUID
		Name        string
		Description string
		Icon        string
		Type        CategoryType
		Owner       Owner
		State       CategoryState
	}

	// CategoryRef is the category data embedded in a listed record. It is
	// filled regardless of the category's state.
	CategoryRef struct {
		ID   uuid.UUID
		Name string
		Icon string
		Type CategoryType
	}

	// Record is an expense or an income, discriminated by Kind.
	Record struct {
		ID       uuid.UUID
		Kind     CategoryType
		UserID   uuid.UUID
		Title    string
		Amount   Money
		Date     Date
		Note     string
		Category CategoryRef
	}

	Budget struct {
		ID     uuid.UUID
		UserID uuid.UUID
		Name   string
		Amount Money
		Period Period
		// CategoryID is absent for a whole-month budget.
		CategoryID   uuid.NullUUID
		CategoryName string
	}

	// BudgetKey is the uniqueness tuple: at most one budget per key.
	BudgetKey struct {
		UserID     uuid.UUID
		Period     Period
		CategoryID uuid.NullUUID
	}
)

var (
	ErrInvalidCategoryType = &Error{Kind: ErrInvalidArgument, Msg: "invalid category type"}
)

// ParseCategoryType accepts EXPENSE or INCOME in any letter case.
func ParseCategoryType(s string) (CategoryType, error) {
	t := CategoryType(strings.ToUpper(strings.TrimSpace(s)))
	if err := t.Validate(); err != nil {
		return "", err
	}
	return t, nil
}

func (t CategoryType) Validate() error {
	switch t {
	case CategoryExpense, CategoryIncome:
		return nil
	default:
		return ErrInvalidCategoryType
	}
}

// Noun returns "expense" or "income".
func (t CategoryType) Noun() string {
	return strings.ToLower(string(t))
}

func (s CategoryState) String() string {
	if s == CategoryDeleted {
		return "deleted"
	}
	return "active"
}

func GlobalOwner() Owner { return Owner{} }

func OwnedBy(user uuid.UUID) Owner { return Owner{user: user, owned: true} }

func (o Owner) IsGlobal() bool { return !o.owned }

// UserID returns the owning user; ok is false for a global owner.
func (o Owner) UserID() (id uuid.UUID, ok bool) {
	return o.user, o.owned
}

// Is reports whether o is a private owner equal to user.
func (o Owner) Is(user uuid.UUID) bool {
	return o.owned && o.user == user
}

// VisibleTo reports whether user may see and use the category.
func (c Category) VisibleTo(user uuid.UUID) bool {
	if c.State != CategoryActive {
		return false
	}
	return c.Owner.IsGlobal() || c.Owner.Is(user)
}

// CheckMutableBy returns a Forbidden error unless user owns the category.
// Global categories are never mutable.
func (c Category) CheckMutableBy(user uuid.UUID) error {
	switch {
	case c.Owner.IsGlobal():
		return Forbiddenf("You cannot modify or delete global categories.")
	case !c.Owner.Is(user):
		return Forbiddenf("You do not have permission to access or modify this category.")
	}
	return nil
}

func (c Category) Ref() CategoryRef {
	return CategoryRef{ID: c.ID, Name: c.Name, Icon: c.Icon, Type: c.Type}
}

func (c Category) Validate() error {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return ErrEmptyName
	}
	if len(name) > maxNameLen {
		return InvalidArgumentf("name too long (max %d characters)", maxNameLen)
	}
	return c.Type.Validate()
}

func (r Record) Validate() error {
	if err := r.Kind.Validate(); err != nil {
		return err
	}
	title := strings.TrimSpace(r.Title)
	if title == "" {
		return ErrEmptyTitle
	}
	if len(title) > maxTitleLen {
		return InvalidArgumentf("title too long (max %d characters)", maxTitleLen)
	}
	if err := r.Amount.Validate(); err != nil {
		return err
	}
	return r.Date.Validate()
}

func (b Budget) IsWholeMonth() bool { return !b.CategoryID.Valid }

func (b Budget) Key() BudgetKey {
	return BudgetKey{UserID: b.UserID, Period: b.Period, CategoryID: b.CategoryID}
}

// DisplayCategory is the category name, or "General Budget" for a
// whole-month budget.
func (b Budget) DisplayCategory() string {
	if b.IsWholeMonth() {
		return "General Budget"
	}
	return b.CategoryName
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return ErrEmptyName
	}
	if err := b.Amount.Validate(); err != nil {
		return err
	}
	if b.Period.IsZero() {
		return ErrInvalidPeriod
	}
	return nil
}

func (k BudgetKey) String() string {
	if !k.CategoryID.Valid {
		return fmt.Sprintf("%s/whole-month", k.Period)
	}
	return fmt.Sprintf("%s/%s", k.Period, k.CategoryID.UUID)
}

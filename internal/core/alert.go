package core

import (
	"fmt"

	"github.com/google/uuid"
)

const (
	wholeMonthAlertTemplate = "Warning: Total spending for %s has exceeded the global budget by %s VND"
	categoryAlertTemplate   = "Warning: Spending for category '%s' in %s has exceeded the budget by %s VND"
)

// Alert records that spending in a period went over a budget. It is derived
// and attached to the response that triggered it.
type Alert struct {
	Period Period
	// Category is absent for a whole-month alert.
	Category     uuid.NullUUID
	CategoryName string
	Overage      Money
}

func (a Alert) IsWholeMonth() bool { return !a.Category.Valid }

// Message renders the alert with the whole-month or category template.
func (a Alert) Message() string {
	if a.IsWholeMonth() {
		return fmt.Sprintf(wholeMonthAlertTemplate, a.Period, a.Overage.Format())
	}
	return fmt.Sprintf(categoryAlertTemplate, a.CategoryName, a.Period, a.Overage.Format())
}

// AmountExceedingBudget returns the overage of used over limit. ok is false
// when used does not exceed limit.
func AmountExceedingBudget(used, limit Money) (overage Money, ok bool) {
	if !used.GreaterThan(limit) {
		return Money{}, false
	}
	return used.Sub(limit), true
}

// AlertFor evaluates b against the total used in its period.
func AlertFor(b Budget, used Money) (Alert, bool) {
	overage, ok := AmountExceedingBudget(used, b.Amount)
	if !ok {
		return Alert{}, false
	}
	return Alert{
		Period:       b.Period,
		Category:     b.CategoryID,
		CategoryName: b.CategoryName,
		Overage:      overage,
	}, true
}

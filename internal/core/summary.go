package core

import "time"

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// MonthlyStat is one (year, month, total) row of a grouped sum. It is
// derived on every query and never persisted.
type MonthlyStat struct {
	Year  int
	Month int // 1-12
	Total Money
}

func (s MonthlyStat) Period() Period {
	return Period{Year: s.Year, Month: time.Month(s.Month)}
}

// ReportStats summarises a date range for one user.
type ReportStats struct {
	TotalIncome  Money
	TotalExpense Money
	Balance      Money
}

package core

import (
	"encoding/json"
	"fmt"
	"time"
)

// Period identifies one calendar month. Its canonical text form is MM-YYYY,
// which is also the budget's stored key and the aggregation map key.
type Period struct {
	Year  int
	Month time.Month
}

// ParsePeriod parses exactly two-digit month, hyphen, four-digit year.
func ParsePeriod(s string) (Period, error) {
	if len(s) != 7 || s[2] != '-' {
		return Period{}, ErrInvalidPeriod
	}
	for i, c := range []byte(s) {
		if i == 2 {
			continue
		}
		if c < '0' || c > '9' {
			return Period{}, ErrInvalidPeriod
		}
	}
	month := int(s[0]-'0')*10 + int(s[1]-'0')
	if month < 1 || month > 12 {
		return Period{}, ErrInvalidPeriod
	}
	year := 0
	for _, c := range []byte(s[3:]) {
		year = year*10 + int(c-'0')
	}
	return Period{Year: year, Month: time.Month(month)}, nil
}

// PeriodOf returns the period containing d.
func PeriodOf(d Date) Period {
	return Period{Year: d.Year(), Month: d.Time.Month()}
}

func (p Period) String() string {
	return fmt.Sprintf("%02d-%04d", int(p.Month), p.Year)
}

// Start is the first day of the month.
func (p Period) Start() Date {
	return NewDate(p.Year, int(p.Month), 1)
}

// End is the last day of the month.
func (p Period) End() Date {
	return Date{Time: p.Start().AddDate(0, 1, -1)}
}

func (p Period) Next() Period {
	if p.Month == time.December {
		return Period{Year: p.Year + 1, Month: time.January}
	}
	return Period{Year: p.Year, Month: p.Month + 1}
}

// Compare returns -1, 0 or +1 as p is before, equal to or after q.
func (p Period) Compare(q Period) int {
	switch {
	case p.Year < q.Year, p.Year == q.Year && p.Month < q.Month:
		return -1
	case p == q:
		return 0
	default:
		return 1
	}
}

func (p Period) Before(q Period) bool { return p.Compare(q) < 0 }

func (p Period) IsZero() bool { return p.Year == 0 && p.Month == 0 }

// MonthAlignedRange returns the first day of the earliest date's month and
// the last day of the latest date's month. ok is false for no dates.
func MonthAlignedRange(dates []Date) (start, end Date, ok bool) {
	if len(dates) == 0 {
		return Date{}, Date{}, false
	}
	minD, maxD := dates[0], dates[0]
	for _, d := range dates[1:] {
		if d.Before(minD.Time) {
			minD = d
		}
		if d.After(maxD.Time) {
			maxD = d
		}
	}
	return PeriodOf(minD).Start(), PeriodOf(maxD).End(), true
}

// PeriodsBetween lists every period from start's month to end's month
// inclusive.
func PeriodsBetween(start, end Date) []Period {
	var out []Period
	last := PeriodOf(end)
	for p := PeriodOf(start); !last.Before(p); p = p.Next() {
		out = append(out, p)
	}
	return out
}

func (p Period) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

func (p *Period) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return ErrInvalidPeriod
	}
	parsed, err := ParsePeriod(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePeriodRoundTrip(t *testing.T) {
	for _, s := range []string{"01-2025", "11-2025", "12-1999", "02-2024", "10-0001"} {
		p, err := ParsePeriod(s)
		require.NoError(t, err, s)
		assert.Equal(t, s, p.String())
	}

	p, err := ParsePeriod("01-2025")
	require.NoError(t, err)
	assert.Equal(t, Period{Year: 2025, Month: time.January}, p)
}

func TestParsePeriodRejectsMalformed(t *testing.T) {
	for _, s := range []string{"", "1-2025", "13-2025", "00-2025", "2025-01", "01/2025", "01-25", "0a-2025", "01-20250"} {
		_, err := ParsePeriod(s)
		assert.ErrorIs(t, err, ErrInvalidArgument, s)
	}
}

func TestPeriodBounds(t *testing.T) {
	feb, _ := ParsePeriod("02-2024")
	assert.Equal(t, "2024-02-01", feb.Start().String())
	assert.Equal(t, "2024-02-29", feb.End().String())

	dec, _ := ParsePeriod("12-2025")
	assert.Equal(t, "2025-12-31", dec.End().String())
	assert.Equal(t, "01-2026", dec.Next().String())
}

func TestMonthAlignedRange(t *testing.T) {
	_, _, ok := MonthAlignedRange(nil)
	assert.False(t, ok)

	start, end, ok := MonthAlignedRange([]Date{
		NewDate(2025, 11, 14),
		NewDate(2025, 10, 3),
		NewDate(2025, 11, 2),
	})
	require.True(t, ok)
	assert.Equal(t, "2025-10-01", start.String())
	assert.Equal(t, "2025-11-30", end.String())
}

func TestPeriodsBetween(t *testing.T) {
	got := PeriodsBetween(NewDate(2025, 11, 1), NewDate(2026, 2, 28))
	var keys []string
	for _, p := range got {
		keys = append(keys, p.String())
	}
	assert.Equal(t, []string{"11-2025", "12-2025", "01-2026", "02-2026"}, keys)
}

func TestPeriodCompare(t *testing.T) {
	a, _ := ParsePeriod("12-2024")
	b, _ := ParsePeriod("01-2025")
	assert.True(t, a.Before(b))
	assert.False(t, b.Before(a))
	assert.Equal(t, 0, a.Compare(a))
}

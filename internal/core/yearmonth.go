package core

import (
	"fmt"
	"strings"
	"time"
)

// YearMonth identifies one billing month. Records are grouped under
// "YYYY-MM" keys in storage and invoices are aggregated per YearMonth.
type YearMonth struct {
	Year  int
	Month time.Month
}

// ParseYearMonth parses the "YYYY-MM" storage key format.
func ParseYearMonth(s string) (YearMonth, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return YearMonth{}, fmt.Errorf("parse year-month %q: %w", s, err)
	}
	return YearMonth{Year: t.Year(), Month: t.Month()}, nil
}

// YearMonthOf returns the YearMonth containing the given date.
func YearMonthOf(d Date) YearMonth {
	return YearMonth{Year: d.Time.Year(), Month: d.Time.Month()}
}

// CurrentYearMonth returns the YearMonth of now.
func CurrentYearMonth(now time.Time) YearMonth {
	return YearMonth{Year: now.Year(), Month: now.Month()}
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}

// MarshalJSON encodes the month in the "YYYY-MM" storage key format.
func (ym YearMonth) MarshalJSON() ([]byte, error) {
	return []byte(`"` + ym.String() + `"`), nil
}

func (ym *YearMonth) UnmarshalJSON(b []byte) error {
	parsed, err := ParseYearMonth(strings.Trim(string(b), `"`))
	if err != nil {
		return err
	}
	*ym = parsed
	return nil
}

func (ym YearMonth) Validate() error {
	if ym.Year < 1 {
		return fmt.Errorf("invalid year %d", ym.Year)
	}
	if ym.Month < time.January || ym.Month > time.December {
		return ErrInvalidMonth
	}
	return nil
}

// AddMonths returns the YearMonth n months after ym (n may be negative).
func (ym YearMonth) AddMonths(n int) YearMonth {
	t := time.Date(ym.Year, ym.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

// Next returns the following month.
func (ym YearMonth) Next() YearMonth { return ym.AddMonths(1) }

// Prev returns the preceding month.
func (ym YearMonth) Prev() YearMonth { return ym.AddMonths(-1) }

// MonthsSince returns how many whole months ym is after start.
// Negative when ym precedes start.
func (ym YearMonth) MonthsSince(start YearMonth) int {
	return (ym.Year-start.Year)*12 + int(ym.Month-start.Month)
}

func (ym YearMonth) Before(other YearMonth) bool {
	return ym.MonthsSince(other) < 0
}

func (ym YearMonth) After(other YearMonth) bool {
	return ym.MonthsSince(other) > 0
}

// FirstDay returns the first calendar day of the month.
func (ym YearMonth) FirstDay() Date {
	return NewDate(ym.Year, int(ym.Month), 1)
}

// Days returns the number of calendar days in the month.
func (ym YearMonth) Days() int {
	return time.Date(ym.Year, ym.Month, 1, 0, 0, 0, 0, time.UTC).
		AddDate(0, 1, -1).Day()
}

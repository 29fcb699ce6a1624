package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidPeriod is returned when a period string or year/month pair cannot be parsed.
var ErrInvalidPeriod = errors.New("invalid period")

// Period identifies a calendar month. The zero value is not a valid period.
// Two periods are equal when year and month match; day and time of day are discarded.
type Period struct {
	year  int
	month time.Month
}

// NewPeriod builds a Period from a year and month.
func NewPeriod(year int, month time.Month) (Period, error) {
	if year < 1 || year > 9999 {
		return Period{}, fmt.Errorf("%w: year %d out of range", ErrInvalidPeriod, year)
	}
	if month < time.January || month > time.December {
		return Period{}, fmt.Errorf("%w: month %d out of range", ErrInvalidPeriod, month)
	}
	return Period{year: year, month: month}, nil
}

// PeriodOf returns the month containing t, evaluated in UTC.
func PeriodOf(t time.Time) Period {
	t = t.UTC()
	return Period{year: t.Year(), month: t.Month()}
}

// ParsePeriod accepts "YYYY-MM" or "YYYY-MM-DD".
func ParsePeriod(s string) (Period, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-01", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return PeriodOf(t), nil
		}
	}
	return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
}

func (p Period) Year() int { return p.year }
func (p Period) Month() time.Month { return p.month }
func (p Period) IsZero() bool { return p.year == 0 }
func (p Period) Equal(o Period) bool { return p == o }

// Start is the first instant of the month in UTC.
func (p Period) Start() time.Time {
	return time.Date(p.year, p.month, 1, 0, 0, 0, 0, time.UTC)
}

// End is the first instant of the following month; periods are half-open.
func (p Period) End() time.Time {
	return p.Start().AddDate(0, 1, 0)
}

// Contains reports whether t falls inside the month.
func (p Period) Contains(t time.Time) bool {
	t = t.UTC()
	return !t.Before(p.Start()) && t.Before(p.End())
}

// Key is the storage form, always the first day of the month.
func (p Period) Key() string {
	return p.Start().Format("2006-01-02")
}

func (p Period) String() string {
	return p.Start().Format("2006-01")
}

// Label renders the month for people, e.g. "March 2025".
func (p Period) Label() string {
	return p.Start().Format("January 2006")
}

// Slot is the zero-based month index used by the yearly chart.
func (p Period) Slot() int {
	return int(p.month) - 1
}

// Before orders periods chronologically.
func (p Period) Before(o Period) bool {
	if p.year != o.year {
		return p.year < o.year
	}
	return p.month < o.month
}

func (p Period) MarshalText() ([]byte, error) {
	if p.IsZero() {
		return []byte{}, nil
	}
	return []byte(p.String()), nil
}

func (p *Period) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*p = Period{}
		return nil
	}
	parsed, err := ParsePeriod(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

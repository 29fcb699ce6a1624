package core

import (
	"errors"
	"testing"
	"time"
)

func TestParsePeriod(t *testing.T) {
	cases := []struct {
		in    string
		year  int
		month time.Month
		ok    bool
	}{
		{"2025-03", 2025, time.March, true},
		{"2025-03-17", 2025, time.March, true},
		{" 2024-12-01 ", 2024, time.December, true},
		{"2025-13", 0, 0, false},
		{"March 2025", 0, 0, false},
		{"", 0, 0, false},
	}
	for _, tc := range cases {
		p, err := ParsePeriod(tc.in)
		if !tc.ok {
			if !errors.Is(err, ErrInvalidPeriod) {
				t.Errorf("ParsePeriod(%q) expected ErrInvalidPeriod, got %v", tc.in, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParsePeriod(%q) error = %v", tc.in, err)
		}
		if p.Year() != tc.year || p.Month() != tc.month {
			t.Errorf("ParsePeriod(%q) = %v, want %d-%02d", tc.in, p, tc.year, tc.month)
		}
	}
}

func TestPeriodOfCollapsesDayAndTime(t *testing.T) {
	a := PeriodOf(time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC))
	b := PeriodOf(time.Date(2025, time.March, 31, 23, 59, 59, 0, time.UTC))
	if !a.Equal(b) {
		t.Fatalf("expected %v == %v", a, b)
	}
	if a.Key() != "2025-03-01" {
		t.Errorf("Key() = %q", a.Key())
	}
	if a.Label() != "March 2025" {
		t.Errorf("Label() = %q", a.Label())
	}
	if a.Slot() != 2 {
		t.Errorf("Slot() = %d", a.Slot())
	}
}

func TestPeriodContainsIsHalfOpen(t *testing.T) {
	p, err := NewPeriod(2025, time.February)
	if err != nil {
		t.Fatal(err)
	}
	if !p.Contains(p.Start()) {
		t.Error("start should be contained")
	}
	if p.Contains(p.End()) {
		t.Error("end should be excluded")
	}
	if !p.Contains(p.End().Add(-time.Nanosecond)) {
		t.Error("last instant should be contained")
	}
}

func TestNewPeriodRejectsOutOfRange(t *testing.T) {
	if _, err := NewPeriod(2025, 0); err == nil {
		t.Error("expected error for month 0")
	}
	if _, err := NewPeriod(0, time.January); err == nil {
		t.Error("expected error for year 0")
	}
}

func TestPeriodBefore(t *testing.T) {
	dec, _ := NewPeriod(2024, time.December)
	jan, _ := NewPeriod(2025, time.January)
	if !dec.Before(jan) || jan.Before(dec) {
		t.Fatal("unexpected ordering")
	}
}

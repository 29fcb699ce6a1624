package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"0", "0", true},
		{"12.5", "12.5", true},
		{"12,5", "12.5", true},
		{" 2.50 ", "2.5", true},
		{"1000000.01", "1000000.01", true},
		{"-1", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"1e3", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(decimal.RequireFromString(tc.out)) {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
			continue
		}
		if !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("%q expected ErrInvalidAmount, got %v", tc.in, err)
		}
	}
}

func TestParsePositiveAmountRejectsZero(t *testing.T) {
	if _, err := ParsePositiveAmount("0"); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for zero, got %v", err)
	}
	if _, err := ParsePositiveAmount("0.01"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCoerceAmount(t *testing.T) {
	cases := map[string]string{
		"400":   "400",
		"abc":   "0",
		"":      "0",
		"-20":   "0",
		"12.75": "12.75",
	}
	for in, want := range cases {
		if got := CoerceAmount(in); !got.Equal(decimal.RequireFromString(want)) {
			t.Errorf("CoerceAmount(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"0", "0.00"},
		{"5", "5.00"},
		{"12.5", "12.50"},
		{"1234.567", "1,234.57"},
		{"1000000", "1,000,000.00"},
		{"-250.1", "-250.10"},
	}
	for _, tc := range cases {
		if got := FormatAmount(decimal.RequireFromString(tc.in)); got != tc.want {
			t.Errorf("FormatAmount(%s) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatCurrency(t *testing.T) {
	if got := FormatCurrency("₦", decimal.RequireFromString("1500")); got != "₦1,500.00" {
		t.Fatalf("got %q", got)
	}
	if got := FormatCurrency("$", decimal.RequireFromString("-3")); got != "-$3.00" {
		t.Fatalf("got %q", got)
	}
}

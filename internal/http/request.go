package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"budgetledger/internal/core"
)

const maxBodyBytes = 64 << 10

var errInvalidRequest = errors.New("invalid request data")

// Amount accepts a JSON number or a numeric string. Raw keeps the original
// text so each endpoint applies its own parsing rule.
type Amount struct {
	Raw     string
	Present bool
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*a = Amount{}
		return nil
	}
	a.Present = true
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		a.Raw = strings.TrimSpace(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("amount must be a number or numeric string")
	}
	a.Raw = n.String()
	return nil
}

// Strict parses a non-negative amount, failing with invalid.
func (a Amount) Strict(invalid error) (decimal.Decimal, error) {
	if !a.Present {
		return decimal.Zero, invalid
	}
	d, err := core.ParseAmount(a.Raw)
	if err != nil {
		return decimal.Zero, invalid
	}
	return d, nil
}

// Coerced maps anything non-numeric or negative to zero.
func (a Amount) Coerced() decimal.Decimal {
	return core.CoerceAmount(a.Raw)
}

type budgetLine struct {
	Category string     `json:"category"`
	Amount   lineAmount `json:"amount"`
}

// lineAmount accepts any JSON value; anything that is not a number or
// numeric string coerces to zero.
type lineAmount struct{ Amount }

func (a *lineAmount) UnmarshalJSON(b []byte) error {
	if err := a.Amount.UnmarshalJSON(b); err != nil {
		a.Amount = Amount{Present: true}
	}
	return nil
}

// budgetRequest requires income and a categories array, which may be empty.
type budgetRequest struct {
	Income          Amount        `json:"income"`
	ExpectedSavings Amount        `json:"expectedSavings"`
	Categories      *[]budgetLine `json:"categories"`
}

type expenseRequest struct {
	Category    string `json:"category"`
	SubCategory string `json:"subCategory"`
	Amount      Amount `json:"amount"`
	Notes       string `json:"notes"`
}

type incomeRequest struct {
	Amount Amount `json:"amount"`
	Notes  string `json:"notes"`
}

// decodeJSON reads one JSON object from a size-limited body. Malformed input
// yields errInvalidRequest; an oversized body yields *http.MaxBytesError.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return err
		}
		return fmt.Errorf("%w: %v", errInvalidRequest, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: trailing data", errInvalidRequest)
	}
	return nil
}

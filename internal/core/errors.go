package core

import (
	"errors"
	"fmt"
)

// Error kinds. Every error produced by the ledger matches exactly one of these with errors.Is.
var (
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
	ErrStorage    = errors.New("storage failure")
)

var (
	ErrInvalidAmount       = newKindError(ErrValidation, "Invalid amount")
	ErrInvalidIncome       = newKindError(ErrValidation, "Invalid income amount")
	ErrInvalidExpense      = newKindError(ErrValidation, "Invalid category or amount")
	ErrSubcategoryRequired = newKindError(ErrValidation, "Subcategory required for 'Others'")
	ErrDuplicateCategory   = newKindError(ErrValidation, "Duplicate categories found in submission")
	ErrEmptyCategory       = newKindError(ErrValidation, "Category cannot be empty")
	ErrCategoryTooLong     = newKindError(ErrValidation, "Category is too long")
	ErrNotesTooLong        = newKindError(ErrValidation, "Notes are too long")
	ErrAlreadyBudgeted     = newKindError(ErrConflict, "Budget already set for this month")
)

// kindError carries a user-facing message and unwraps to its kind.
type kindError struct {
	kind error
	msg  string
}

func newKindError(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

// StorageError wraps a persistence failure under ErrStorage, keeping the cause.
func StorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrStorage) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}

// IsValidation, IsConflict and IsStorage classify an error by kind.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }
func IsConflict(err error) bool   { return errors.Is(err, ErrConflict) }
func IsStorage(err error) bool    { return errors.Is(err, ErrStorage) }

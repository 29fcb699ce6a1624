package core

import (
	"errors"
	"testing"
)

func TestErrorKinds(t *testing.T) {
	validation := []error{
		ErrInvalidAmount, ErrInvalidIncome, ErrInvalidExpense,
		ErrSubcategoryRequired, ErrDuplicateCategory, ErrEmptyCategory,
	}
	for _, err := range validation {
		if !IsValidation(err) || IsConflict(err) || IsStorage(err) {
			t.Errorf("%v should only be a validation error", err)
		}
	}
	if !IsConflict(ErrAlreadyBudgeted) || IsValidation(ErrAlreadyBudgeted) {
		t.Error("ErrAlreadyBudgeted should be a conflict")
	}
}

func TestStorageErrorKeepsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := StorageError("increment expense", cause)
	if !IsStorage(err) {
		t.Fatal("expected storage kind")
	}
	if !errors.Is(err, cause) {
		t.Fatal("expected cause to be preserved")
	}
	if again := StorageError("outer", err); again != err {
		t.Fatal("storage errors should not be double wrapped")
	}
	if StorageError("noop", nil) != nil {
		t.Fatal("nil cause should stay nil")
	}
}

func TestCategoryKey(t *testing.T) {
	if CategoryKey("  Food ") != "food" {
		t.Fatal("expected trimmed lower-case key")
	}
	if !IsOthers(" OTHERS") {
		t.Fatal("expected Others match")
	}
}

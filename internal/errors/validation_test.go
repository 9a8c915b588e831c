package errors

import (
	"testing"
)

func TestValidationError(t *testing.T) {
	err := NewValidationError("quiz_title", "is required", "")

	if err.Field != "quiz_title" {
		t.Errorf("Expected field to be 'quiz_title', got '%s'", err.Field)
	}

	if err.Message != "is required" {
		t.Errorf("Expected message to be 'is required', got '%s'", err.Message)
	}

	expected := "validation error on field 'quiz_title': is required"
	if err.Error() != expected {
		t.Errorf("Expected error message to be '%s', got '%s'", expected, err.Error())
	}
}

func TestValidationErrors(t *testing.T) {
	// Empty collection falls back to the generic message
	var errs ValidationErrors
	if errs.Error() != "validation failed" {
		t.Errorf("Expected 'validation failed' for empty errors, got '%s'", errs.Error())
	}

	errs = append(errs, *NewValidationError("time_limit_seconds", "must be at least 10", 5))
	expected := "validation failed: time_limit_seconds must be at least 10"
	if errs.Error() != expected {
		t.Errorf("Expected '%s' for single error, got '%s'", expected, errs.Error())
	}

	errs = append(errs, *NewValidationError("questions", "is required", nil))
	expected = "validation failed: 2 field errors"
	if errs.Error() != expected {
		t.Errorf("Expected '%s' for multiple errors, got '%s'", expected, errs.Error())
	}
}

func TestNewValidationErrorWithRule(t *testing.T) {
	err := NewValidationErrorWithRule("kind", "must be a valid question kind", "question_kind", "essay2")

	if err.Rule != "question_kind" {
		t.Errorf("Expected rule to be 'question_kind', got '%s'", err.Rule)
	}

	if err.Field != "kind" {
		t.Errorf("Expected field to be 'kind', got '%s'", err.Field)
	}
}

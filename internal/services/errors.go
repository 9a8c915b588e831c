package services

import (
	"errors"
	"fmt"

	apperrors "github.com/VAL02142004/Online-Quiz--sub000/internal/errors"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrValidationFailed = errors.New("validation failed")
	ErrConflict         = errors.New("resource conflict")

	// Eligibility errors, one per guard reason
	ErrQuizNotPublished       = errors.New("quiz is not published")
	ErrQuizPastDue            = errors.New("quiz due date has passed")
	ErrNotEnrolled            = errors.New("student is not enrolled for this quiz")
	ErrAlreadyCompleted       = errors.New("student already completed this quiz")
	ErrEligibilityCheckFailed = errors.New("eligibility check failed")

	// Session errors
	ErrQuizNotFound        = errors.New("quiz not found")
	ErrLoadFailed          = errors.New("failed to load quiz session")
	ErrSessionNotActive    = errors.New("session is not active")
	ErrSessionAlreadyEnded = errors.New("session has already ended")
	ErrUnansweredQuestions = errors.New("all questions must be answered before manual submit")
	ErrUnknownQuestion     = errors.New("question does not belong to this quiz")
	ErrSubmitWriteFailed   = errors.New("failed to persist submission")

	// Attempt/result errors
	ErrAttemptNotFound = errors.New("attempt not found")
	ErrResultNotFound  = errors.New("result not found")

	// Regrade errors
	ErrRegradeNotAllowed = errors.New("regrade requires teacher or admin role")
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

type PermissionError struct {
	UserID     string `json:"user_id"`
	ResourceID string `json:"resource_id"`
	Resource   string `json:"resource"`
	Action     string `json:"action"`
	Reason     string `json:"reason"`
}

func (pe *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: user %s cannot %s %s %s - %s",
		pe.UserID, pe.Action, pe.Resource, pe.ResourceID, pe.Reason)
}

func NewPermissionError(userID, resourceID, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

// ===== ERROR HELPERS =====

// IsEligibility checks if error is one of the guard's ineligibility reasons
func IsEligibility(err error) bool {
	return errors.Is(err, ErrQuizNotPublished) ||
		errors.Is(err, ErrQuizPastDue) ||
		errors.Is(err, ErrNotEnrolled) ||
		errors.Is(err, ErrAlreadyCompleted) ||
		errors.Is(err, ErrEligibilityCheckFailed)
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrQuizNotFound) ||
		errors.Is(err, ErrAttemptNotFound) ||
		errors.Is(err, ErrResultNotFound)
}

// IsConflict checks if error represents a resource conflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrAlreadyCompleted) ||
		errors.Is(err, ErrSessionAlreadyEnded)
}

// IsPermission checks if error represents a permission failure
func IsPermission(err error) bool {
	var pe *PermissionError
	return errors.As(err, &pe) || errors.Is(err, ErrRegradeNotAllowed)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) {
		return true
	}
	var ve apperrors.ValidationErrors
	return errors.As(err, &ve)
}

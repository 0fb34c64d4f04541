package services

import (
	"errors"
	"fmt"

	apperrors "github.com/campusexam/exam-portal/internal/errors"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrUnauthorized     = errors.New("unauthorized access")
	ErrForbidden        = errors.New("forbidden - insufficient permissions")
	ErrValidationFailed = errors.New("validation failed")
	ErrInternalError    = errors.New("internal server error")
	ErrBadRequest       = errors.New("bad request")
	ErrConflict         = errors.New("resource conflict")

	// Test specific errors
	ErrTestNotFound      = errors.New("test not found")
	ErrTestNotActive     = errors.New("test is not active")
	ErrTestOutsideWindow = errors.New("test is outside its scheduled window")
	ErrTestInvalidWindow = errors.New("test end time must be after start time")

	// Question set / question specific errors
	ErrQuestionSetNotFound = errors.New("question set not found")
	ErrQuestionSetInUse    = errors.New("question set cannot be deleted - in use by tests")
	ErrQuestionNotFound    = errors.New("question not found")
	ErrQuestionNotInTest   = errors.New("question does not belong to this test")

	// Attempt specific errors
	ErrAttemptNotFound         = errors.New("attempt not found")
	ErrAttemptAlreadySubmitted = errors.New("attempt already submitted")
	ErrAttemptInProgress       = errors.New("another attempt is already in progress")

	// Request specific errors
	ErrRequestNotFound        = errors.New("request not found")
	ErrRequestAlreadyReviewed = errors.New("request has already been reviewed")

	// User errors
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrPasswordMismatch   = errors.New("current password is incorrect")
	ErrPasswordConfirm    = errors.New("new password and confirmation do not match")
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

type PermissionError struct {
	UserID     uint   `json:"user_id"`
	ResourceID uint   `json:"resource_id"`
	Resource   string `json:"resource"`
	Action     string `json:"action"`
	Reason     string `json:"reason"`
}

func (pe *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: user %d cannot %s %s %d - %s",
		pe.UserID, pe.Action, pe.Resource, pe.ResourceID, pe.Reason)
}

// ===== ERROR HELPERS =====

// NewValidationError creates a new validation error using the shared type
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

func NewPermissionError(userID, resourceID uint, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrTestNotFound) ||
		errors.Is(err, ErrQuestionSetNotFound) ||
		errors.Is(err, ErrQuestionNotFound) ||
		errors.Is(err, ErrAttemptNotFound) ||
		errors.Is(err, ErrRequestNotFound) ||
		errors.Is(err, ErrUserNotFound)
}

// IsUnauthorized checks if error represents an "unauthorized" condition
func IsUnauthorized(err error) bool {
	if errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrTestNotActive) ||
		errors.Is(err, ErrTestOutsideWindow) ||
		errors.Is(err, ErrInvalidCredentials) {
		return true
	}
	var pe *PermissionError
	return errors.As(err, &pe)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) ||
		errors.Is(err, ErrBadRequest) ||
		errors.Is(err, ErrTestInvalidWindow) ||
		errors.Is(err, ErrPasswordConfirm) {
		return true
	}
	var sve *apperrors.ValidationError
	if errors.As(err, &sve) {
		return true
	}
	var ve apperrors.ValidationErrors
	return errors.As(err, &ve)
}

// IsConflict checks if error represents a resource conflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrQuestionSetInUse) ||
		errors.Is(err, ErrAttemptAlreadySubmitted) ||
		errors.Is(err, ErrAttemptInProgress) ||
		errors.Is(err, ErrRequestAlreadyReviewed) ||
		errors.Is(err, ErrEmailTaken)
}

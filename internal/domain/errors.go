package domain

import (
	"errors"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
// Implementing this interface enables extensible error handling.
type HTTPError interface {
	error
	StatusCode() int
}

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("already exists")
	ErrValidation      = errors.New("validation failed")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrPaymentRequired = errors.New("payment required")
)

// Domain error types implementing HTTPError interface
type (
	// NotFoundError indicates a resource was not found
	NotFoundError struct {
		Message string
	}

	// ValidationError indicates invalid input
	ValidationError struct {
		Message string
	}

	// AccessDeniedError indicates the resource exists but the principal lacks
	// the required permission tier. Reason is surfaced verbatim as `detail`.
	AccessDeniedError struct {
		Reason string
	}
)

func (e *NotFoundError) Error() string     { return e.Message }
func (e *ValidationError) Error() string   { return e.Message }
func (e *AccessDeniedError) Error() string { return e.Reason }

func (e *NotFoundError) StatusCode() int     { return http.StatusNotFound }
func (e *ValidationError) StatusCode() int   { return http.StatusBadRequest }
func (e *AccessDeniedError) StatusCode() int { return http.StatusForbidden }

func (e *NotFoundError) Is(target error) bool     { return target == ErrNotFound }
func (e *ValidationError) Is(target error) bool   { return target == ErrValidation }
func (e *AccessDeniedError) Is(target error) bool { return target == ErrForbidden }

// InvalidUnitError is returned when a usage unit is not recognised by the
// metering registry. No partial conversion is attempted.
type InvalidUnitError struct {
	Unit string
}

func (e *InvalidUnitError) Error() string {
	return "invalid unit type: " + e.Unit
}

func (e *InvalidUnitError) StatusCode() int { return http.StatusBadRequest }

func (e *InvalidUnitError) Is(target error) bool { return target == ErrValidation }

// QuotaExceededError reports a deduction that would push usage past the
// effective limit (total + buffer). The balance is left untouched.
type QuotaExceededError struct {
	PointsRequested  int64 `json:"points_requested"`
	PointsUsedBefore int64 `json:"points_used_before"`
	TotalPoints      int64 `json:"total_points"`
	EffectiveLimit   int64 `json:"effective_limit"`
	BufferPercentage int   `json:"buffer_percentage"`
	OverLimit        int64 `json:"over_limit"`
}

func (e *QuotaExceededError) Error() string {
	return "points quota exceeded"
}

func (e *QuotaExceededError) StatusCode() int { return http.StatusPaymentRequired }

func (e *QuotaExceededError) Is(target error) bool { return target == ErrPaymentRequired }

// Extras returns the structured fields for the problem response body.
func (e *QuotaExceededError) Extras() map[string]interface{} {
	return map[string]interface{}{
		"error":              "quota_exceeded",
		"points_requested":   e.PointsRequested,
		"points_used_before": e.PointsUsedBefore,
		"total_points":       e.TotalPoints,
		"effective_limit":    e.EffectiveLimit,
		"buffer_percentage":  e.BufferPercentage,
		"over_limit":         e.OverLimit,
	}
}

// OrganizationInactiveError is returned when the owner of a points balance
// (organization or subscription period) is not active. Callers block the
// feature exactly as for QuotaExceededError.
type OrganizationInactiveError struct {
	OwnerKind string
	OwnerID   int64
}

func (e *OrganizationInactiveError) Error() string {
	if e.OwnerKind == "subscription_period" {
		return "no active subscription period"
	}
	return "organization is not active"
}

func (e *OrganizationInactiveError) StatusCode() int { return http.StatusPaymentRequired }

func (e *OrganizationInactiveError) Is(target error) bool { return target == ErrPaymentRequired }

// Extras returns the structured fields for the problem response body.
func (e *OrganizationInactiveError) Extras() map[string]interface{} {
	return map[string]interface{}{
		"error":      "balance_inactive",
		"owner_kind": e.OwnerKind,
		"owner_id":   e.OwnerID,
	}
}

// ConflictError represents a resource conflict with details about the existing resource
type ConflictError struct {
	Message      string // Human-readable error message
	ResourceType string // Type of resource (program, student, grant)
	ResourceID   string // ID of the existing/conflicting resource
}

// Error implements the error interface
func (e *ConflictError) Error() string {
	return e.Message
}

// StatusCode implements the HTTPError interface
func (e *ConflictError) StatusCode() int {
	return http.StatusConflict
}

// Is allows errors.Is() to match against ErrConflict
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

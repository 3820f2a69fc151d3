package apperrors

import (
	"net/http"
)

// Factories for wrapping repository errors.

// ErrNotFound converts a repository miss (e.g. gorm.ErrRecordNotFound)
// into a 404 AppError.
func ErrNotFound(err error) *AppError {
	return Wrap(err, CodeNotFound, "resource", "Resource not found", http.StatusNotFound)
}

// ErrAlreadyExists converts a uniqueness violation into a 409 AppError.
func ErrAlreadyExists(err error) *AppError {
	return Wrap(err, CodeAlreadyExists, "resource", "Resource already exists", http.StatusConflict)
}

func ErrConflict(err error, domain, message string) *AppError {
	return Wrap(err, CodeConflict, domain, message, http.StatusConflict)
}

// Predefined errors for the frequent, static cases.

// ErrResourceNotFound is returned when a referenced user or correction
// does not exist.
var ErrResourceNotFound = New(
	CodeNotFound,
	"resource",
	"Resource not found",
	http.StatusNotFound,
)

// ErrNotAllowed is returned on an ownership mismatch: the correction exists
// but belongs to another user. Distinct from ErrResourceNotFound.
var ErrNotAllowed = New(
	CodeNotAllowed,
	"corrections",
	"Not allowed",
	http.StatusForbidden,
)

// ErrMonthlyLimitExceeded is returned when the quota gate trips: the user's
// correction count for the current calendar month reached the plan limit.
var ErrMonthlyLimitExceeded = New(
	CodeLimitExceeded,
	"quota",
	"Monthly correction limit exceeded",
	http.StatusForbidden,
)

// --- Auth ---

var ErrWeakPassword = New(
	CodeValidationFailed,
	"validation",
	"Password is too weak. Minimum 6 characters required.",
	http.StatusBadRequest,
)

var ErrEmailAlreadyExists = New(
	CodeAlreadyExists,
	"auth",
	"Email already in use",
	http.StatusConflict,
)

var ErrInvalidCredentials = New(
	CodeInvalidCredentials,
	"auth",
	"Invalid email or password",
	http.StatusUnauthorized,
)

var ErrInvalidToken = New(
	CodeInvalidToken,
	"auth",
	"Invalid or expired token",
	http.StatusUnauthorized,
)

// --- Payments & webhooks ---

// ErrInvalidWebhookSignature rejects a webhook delivery whose HMAC signature
// does not match the raw payload. Fatal to the request, not the process.
var ErrInvalidWebhookSignature = New(
	CodeInvalidSignature,
	"payment",
	"Invalid webhook signature",
	http.StatusBadRequest,
)

// ErrPaymentProviderError covers AbacatePay API failures.
var ErrPaymentProviderError = New(
	CodeExternalServiceError,
	"payment",
	"Payment provider error",
	http.StatusServiceUnavailable,
)

// ErrCorrectionEngineError covers AI provider failures after the quota gate
// passed. No usage record is written in that case, so a retry is not
// double-charged.
var ErrCorrectionEngineError = New(
	CodeExternalServiceError,
	"corrections",
	"Correction engine unavailable",
	http.StatusServiceUnavailable,
)

// Package errors provides standardized error handling for the application flow.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeConsentRequired  ErrorCode = "CONSENT_REQUIRED"

	ErrCodeCaptchaRequired     ErrorCode = "CAPTCHA_REQUIRED"
	ErrCodeCaptchaFailed       ErrorCode = "CAPTCHA_VERIFICATION_FAILED"
	ErrCodeCaptchaUnavailable  ErrorCode = "CAPTCHA_UNAVAILABLE"

	ErrCodePaymentIntentFailed  ErrorCode = "PAYMENT_INTENT_FAILED"
	ErrCodePaymentNotCompleted  ErrorCode = "PAYMENT_NOT_COMPLETED"
	ErrCodePaymentLookupFailed  ErrorCode = "PAYMENT_LOOKUP_FAILED"

	ErrCodeDatabaseInsertFailed ErrorCode = "DATABASE_INSERT_FAILED"
	ErrCodeDatabaseQueryFailed  ErrorCode = "DATABASE_QUERY_FAILED"
	ErrCodeApplicationNotFound  ErrorCode = "APPLICATION_NOT_FOUND"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodePhotoUploadFailed      ErrorCode = "PHOTO_UPLOAD_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Fields    map[string]string      `json:"fields,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// AsStandardError unwraps err into a *StandardError if possible.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// CodeOf returns the error code carried by err, or empty when it is not a StandardError.
func CodeOf(err error) ErrorCode {
	if stdErr, ok := AsStandardError(err); ok {
		return stdErr.Code
	}
	return ""
}

// NewValidationFailedError carries a field -> error-key mapping. The keys are
// machine readable; rendering them as display strings happens at a boundary
// this package does not own.
func NewValidationFailedError(fields map[string]string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Application data validation failed",
		Retryable: false,
		Fields:    fields,
		Timestamp: time.Now().UTC(),
	}
}

// NewConsentRequiredError creates a non-retryable consent gate error.
func NewConsentRequiredError(fields map[string]string) *StandardError {
	return &StandardError{
		Code:      ErrCodeConsentRequired,
		Message:   "All consent confirmations are required before payment",
		Retryable: false,
		Fields:    fields,
		Timestamp: time.Now().UTC(),
	}
}

// NewCaptchaRequiredError is returned when no captcha token accompanied the request.
func NewCaptchaRequiredError() *StandardError {
	return &StandardError{
		Code:      ErrCodeCaptchaRequired,
		Message:   "Security verification is required",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCaptchaFailedError creates a non-retryable captcha rejection.
func NewCaptchaFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeCaptchaFailed,
		Message:   "Security verification failed. Please try again.",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCaptchaUnavailableError creates a retryable captcha transport error.
func NewCaptchaUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCaptchaUnavailable,
		Message:   "Security verification unavailable. Please try again.",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewPaymentIntentFailedError surfaces the processor's message verbatim; the
// draft is untouched and the user may retry.
func NewPaymentIntentFailedError(processorMessage string) *StandardError {
	return &StandardError{
		Code:      ErrCodePaymentIntentFailed,
		Message:   processorMessage,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewPaymentNotCompletedError creates a non-retryable charge-state error.
func NewPaymentNotCompletedError(intentID, status string) *StandardError {
	return &StandardError{
		Code:      ErrCodePaymentNotCompleted,
		Message:   "Payment has not been completed",
		Details:   fmt.Sprintf("paymentIntentId: %s, status: %s", intentID, status),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewPaymentLookupFailedError creates a retryable charge retrieval error.
func NewPaymentLookupFailedError(intentID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePaymentLookupFailed,
		Message:   "Unable to confirm payment status",
		Details:   fmt.Sprintf("paymentIntentId: %s, error: %s", intentID, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseInsertFailedError is raised after payment has already succeeded,
// so the message must direct the user to support with the charge id rather
// than suggesting a retry from scratch.
func NewDatabaseInsertFailedError(intentID string, err error) *StandardError {
	return &StandardError{
		Code: ErrCodeDatabaseInsertFailed,
		Message: fmt.Sprintf(
			"Your payment succeeded but we could not save your application. Please contact support and quote payment reference %s.",
			intentID,
		),
		Details:   err.Error(),
		Retryable: true,
		Metadata:  map[string]interface{}{"paymentIntentId": intentID},
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseQueryFailedError creates a retryable read error.
func NewDatabaseQueryFailedError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseQueryFailed,
		Message:   "Database query failed",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewApplicationNotFoundError creates a non-retryable lookup miss.
func NewApplicationNotFoundError(referenceNumber string) *StandardError {
	return &StandardError{
		Code:      ErrCodeApplicationNotFound,
		Message:   "Application not found. Please check your reference number and email address.",
		Details:   fmt.Sprintf("referenceNumber: %s", referenceNumber),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a retryable notification error. Call
// sites in the submission flow log this and continue; it never blocks the
// success path.
func NewNotificationSendFailedError(notificationType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("type: %s, error: %s", notificationType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewPhotoUploadFailedError creates a soft upload error; a missing photo
// upload must not block submission.
func NewPhotoUploadFailedError(field string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePhotoUploadFailed,
		Message:   "Photo upload failed",
		Details:   fmt.Sprintf("field: %s, error: %s", field, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// IsRetryable reports whether err carries a retryable StandardError.
func IsRetryable(err error) bool {
	if stdErr, ok := AsStandardError(err); ok {
		return stdErr.Retryable
	}
	return false
}

package errors

import "net/http"

// HTTPStatusMapping maps internal error codes to HTTP status codes. Payment
// and persistence failures render as a single error banner at the top of the
// submission flow; the status reflects where in the flow they occurred.
var HTTPStatusMapping = map[ErrorCode]int{
	ErrCodeValidationFailed: http.StatusBadRequest,
	ErrCodeConsentRequired:  http.StatusBadRequest,

	ErrCodeCaptchaRequired:    http.StatusForbidden,
	ErrCodeCaptchaFailed:      http.StatusForbidden,
	ErrCodeCaptchaUnavailable: http.StatusServiceUnavailable,

	ErrCodePaymentIntentFailed: http.StatusPaymentRequired,
	ErrCodePaymentNotCompleted: http.StatusBadRequest,
	ErrCodePaymentLookupFailed: http.StatusBadGateway,

	ErrCodeDatabaseInsertFailed: http.StatusInternalServerError,
	ErrCodeDatabaseQueryFailed:  http.StatusInternalServerError,
	ErrCodeApplicationNotFound:  http.StatusNotFound,

	ErrCodeNotificationSendFailed: http.StatusInternalServerError,
	ErrCodePhotoUploadFailed:      http.StatusInternalServerError,
}

// HTTPStatus resolves err to the HTTP status it should be rendered with.
func HTTPStatus(err error) int {
	if stdErr, ok := AsStandardError(err); ok {
		if status, exists := HTTPStatusMapping[stdErr.Code]; exists {
			return status
		}
	}
	return http.StatusInternalServerError
}

// ErrorResponse is the wire shape for a failed request: one banner message
// plus optional per-field error keys.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Code   string            `json:"code,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

// ToResponse converts err into the wire shape rendered by the HTTP layer.
func ToResponse(err error) ErrorResponse {
	if stdErr, ok := AsStandardError(err); ok {
		return ErrorResponse{
			Error:  stdErr.Message,
			Code:   string(stdErr.Code),
			Fields: stdErr.Fields,
		}
	}
	return ErrorResponse{Error: err.Error()}
}

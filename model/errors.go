package model

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Standard error codes.
const (
	ErrInvalidURL      = "INVALID_URL"
	ErrInvalidResponse = "INVALID_RESPONSE"
	ErrNetworkError    = "NETWORK_ERROR"
	ErrDecodeError     = "DECODE_ERROR"
	ErrEncodeError     = "ENCODE_ERROR"
	ErrBadRequest      = "BAD_REQUEST"
	ErrUnauthorized    = "UNAUTHORIZED"
	ErrForbidden       = "FORBIDDEN"
	ErrNotFound        = "NOT_FOUND"
	ErrServerError     = "SERVER_ERROR"
	ErrUnknownError    = "UNKNOWN_ERROR"
	ErrValidationError = "VALIDATION_ERROR"
)

// ErrorEnvelope is the typed error every layer of the client surfaces.
// It implements the error interface and wraps the underlying cause, if any.
type ErrorEnvelope struct {
	Code       string       `json:"code"`
	Message    string       `json:"message"`
	HTTPStatus int          `json:"http_status,omitempty"`
	Details    []FieldError `json:"details,omitempty"`

	cause error
}

// Error implements the error interface.
func (e *ErrorEnvelope) Error() string {
	if e.HTTPStatus != 0 {
		return fmt.Sprintf("%s (%d): %s", e.Code, e.HTTPStatus, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As chains.
func (e *ErrorEnvelope) Unwrap() error { return e.cause }

// FieldError describes a field-level validation error.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// NewInvalidURLError returns an INVALID_URL error for an unparseable base URL.
func NewInvalidURLError(rawURL string) *ErrorEnvelope {
	return &ErrorEnvelope{Code: ErrInvalidURL, Message: fmt.Sprintf("invalid URL %q", rawURL)}
}

// NewInvalidResponseError returns an INVALID_RESPONSE error for a non-HTTP
// or otherwise unreadable response.
func NewInvalidResponseError(cause error) *ErrorEnvelope {
	return &ErrorEnvelope{Code: ErrInvalidResponse, Message: "invalid server response", cause: cause}
}

// NewNetworkError returns a NETWORK_ERROR wrapping a transport failure.
func NewNetworkError(cause error) *ErrorEnvelope {
	msg := "network error"
	if cause != nil {
		msg = "network error: " + cause.Error()
	}
	return &ErrorEnvelope{Code: ErrNetworkError, Message: msg, cause: cause}
}

// NewDecodeError returns a DECODE_ERROR for malformed schema, record, or
// envelope payloads.
func NewDecodeError(msg string, cause error) *ErrorEnvelope {
	return &ErrorEnvelope{Code: ErrDecodeError, Message: msg, cause: cause}
}

// NewEncodeError returns an ENCODE_ERROR. Encoding an unsupported runtime
// value is a programming error, not a user-facing failure.
func NewEncodeError(msg string) *ErrorEnvelope {
	return &ErrorEnvelope{Code: ErrEncodeError, Message: msg}
}

// NewHTTPStatusError classifies a non-2xx status code into the error
// taxonomy: 400 bad request, 401 unauthorized, 403 forbidden, 404 not found,
// 5xx server error, anything else unknown. The status code is preserved.
func NewHTTPStatusError(status int) *ErrorEnvelope {
	switch {
	case status == http.StatusBadRequest:
		return &ErrorEnvelope{Code: ErrBadRequest, Message: "bad request", HTTPStatus: status}
	case status == http.StatusUnauthorized:
		return &ErrorEnvelope{Code: ErrUnauthorized, Message: "unauthorized", HTTPStatus: status}
	case status == http.StatusForbidden:
		return &ErrorEnvelope{Code: ErrForbidden, Message: "forbidden", HTTPStatus: status}
	case status == http.StatusNotFound:
		return &ErrorEnvelope{Code: ErrNotFound, Message: "not found", HTTPStatus: status}
	case status >= 500 && status <= 599:
		return &ErrorEnvelope{Code: ErrServerError, Message: "server error", HTTPStatus: status}
	default:
		return &ErrorEnvelope{Code: ErrUnknownError, Message: "unexpected status", HTTPStatus: status}
	}
}

// ValidationError is a server-reported validation failure with optional
// field-level detail in two shapes: a field-to-messages map ("errors") and an
// ordered list of field errors ("field_errors").
type ValidationError struct {
	Message     string              `json:"message"`
	Errors      map[string][]string `json:"errors,omitempty"`
	FieldErrors []FieldError        `json:"field_errors,omitempty"`
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrValidationError, v.DisplayMessage())
}

// DisplayMessage joins the top-level message and every field message into a
// single newline-separated string for display.
func (v *ValidationError) DisplayMessage() string {
	var messages []string

	if v.Message != "" {
		messages = append(messages, v.Message)
	}
	for _, fe := range v.FieldErrors {
		messages = append(messages, fmt.Sprintf("%s: %s", fe.Field, fe.Message))
	}
	for field, fieldMessages := range v.Errors {
		for _, m := range fieldMessages {
			messages = append(messages, fmt.Sprintf("%s: %s", field, m))
		}
	}

	return strings.Join(messages, "\n")
}

// HasError reports whether any error was reported for the given field.
func (v *ValidationError) HasError(field string) bool {
	for _, fe := range v.FieldErrors {
		if fe.Field == field {
			return true
		}
	}
	_, ok := v.Errors[field]
	return ok
}

// ErrorMessage returns the message reported for the given field, or "" if
// none. The field_errors list takes precedence over the errors map.
func (v *ValidationError) ErrorMessage(field string) string {
	for _, fe := range v.FieldErrors {
		if fe.Field == field {
			return fe.Message
		}
	}
	if msgs, ok := v.Errors[field]; ok && len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// validationErrorResponse is the {error: {...}} envelope some backends wrap
// validation failures in.
type validationErrorResponse struct {
	Error     *ValidationError `json:"error"`
	Status    int              `json:"status,omitempty"`
	Timestamp string           `json:"timestamp,omitempty"`
}

// ParseValidationError decodes a validation error body. It tries, in order:
// the {error: {...}} envelope, the bare ValidationError shape, and finally a
// generic {message: string} object. Returns nil if none match; the caller
// then falls back to a status-derived error.
func ParseValidationError(data []byte) *ValidationError {
	var envelope validationErrorResponse
	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Error != nil &&
		(envelope.Error.Message != "" || len(envelope.Error.Errors) > 0 || len(envelope.Error.FieldErrors) > 0) {
		return envelope.Error
	}

	var direct ValidationError
	if err := json.Unmarshal(data, &direct); err == nil &&
		(direct.Message != "" || len(direct.Errors) > 0 || len(direct.FieldErrors) > 0) {
		return &direct
	}

	var generic struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &generic); err == nil && generic.Message != "" {
		return &ValidationError{Message: generic.Message}
	}

	return nil
}

package client

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// DefaultErrorMessage is used when neither the caller nor the server supplies a message.
	DefaultErrorMessage = "An error occurred"

	// CodeInternalServerError is the default code of an [Error] built without one.
	CodeInternalServerError = "internal_server_error"

	// CodeUnknownError is used for HTTP error responses whose body carries no code.
	CodeUnknownError = "unknown_error"

	// CodeRequestError is used when every attempt failed at the transport level.
	CodeRequestError = "request_error"

	// CodeRetryExhausted marks the retry-exhausted fallback. Observing it means the
	// retry loop ended without recording a response or a transport error.
	CodeRetryExhausted = "retry_exhausted"
)

// ErrRetryExhausted is wrapped by the [Error] returned when the retry loop ends
// without a response and without a transport error. It should never surface; if it
// does, the retry loop has a control-flow bug.
var ErrRetryExhausted = errors.New("maximum retry attempts exhausted")

// Error is the structured error returned by [Client] request methods.
//
// Callers branch on Code. Details carries the HTTP status code and the raw response
// body for HTTP errors ("status_code", "raw_response"), or a representation of the
// transport failure ("exception") when no response was ever received.
type Error struct {
	Message  string
	Messages []string
	Code     string
	Details  map[string]any
	Err      error
}

// NewError creates an [Error], applying the default message and code when empty.
func NewError(message, code string, details map[string]any) *Error {
	if message == "" {
		message = DefaultErrorMessage
	}

	if code == "" {
		code = CodeInternalServerError
	}

	return &Error{
		Message: message,
		Code:    code,
		Details: details,
	}
}

func newErrorFromMessages(messages []string, code string, details map[string]any) *Error {
	e := NewError(strings.Join(messages, "; "), code, details)
	e.Messages = messages

	return e
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status code recorded in Details, or 0 if the error did
// not originate from an HTTP response.
func (e *Error) StatusCode() int {
	if e == nil || e.Details == nil {
		return 0
	}

	code, _ := e.Details["status_code"].(int)

	return code
}

// IsRetryExhausted reports whether err is the retry-exhausted fallback error.
func IsRetryExhausted(err error) bool {
	return errors.Is(err, ErrRetryExhausted)
}

func newRequestError(cause error) *Error {
	e := NewError(cause.Error(), CodeRequestError, map[string]any{
		"exception": fmt.Sprintf("%#v", cause),
	})
	e.Err = cause

	return e
}

func newRetryExhaustedError() *Error {
	e := NewError("Request failed without response or exception", CodeRetryExhausted, nil)
	e.Err = ErrRetryExhausted

	return e
}

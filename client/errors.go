package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

const defaultErrorMessage = "An error occurred"

// Error is the single failure shape returned by the client. Status is zero
// for transport failures (unreachable host, timeout) where no HTTP response
// was received.
type Error struct {
	Message string `json:"message"`
	Status  int    `json:"status,omitempty"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsTransport reports whether no HTTP response was received.
func (e *Error) IsTransport() bool {
	return e.Status == 0
}

// IsUnauthorized reports whether the server rejected the credentials.
func (e *Error) IsUnauthorized() bool {
	return e.Status == http.StatusUnauthorized
}

// StatusCode returns the HTTP status of err when it is a client error, zero
// otherwise.
func StatusCode(err error) int {
	if e, ok := asError(err); ok {
		return e.Status
	}
	return 0
}

// IsTransportError reports whether err is a client error without an HTTP
// response.
func IsTransportError(err error) bool {
	if e, ok := asError(err); ok {
		return e.IsTransport()
	}
	return false
}

func asError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// serverMessage is the error body the catalog API returns.
type serverMessage struct {
	Message string `json:"message"`
}

// responseError normalises a non-2xx response. The server's message wins,
// then the status text, then the generic message.
func responseError(status int, body []byte) *Error {
	msg := ""
	var sm serverMessage
	if len(body) > 0 && json.Unmarshal(body, &sm) == nil {
		msg = sm.Message
	}
	if msg == "" {
		msg = fmt.Sprintf("Request failed with status code %d", status)
	}
	return &Error{Message: msg, Status: status}
}

// transportError normalises a failure where no response was received.
func transportError(err error) *Error {
	msg := defaultErrorMessage
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return &Error{Message: msg, Err: err}
}

// normalize turns any error into an *Error, leaving existing ones untouched.
func normalize(err error) *Error {
	if err == nil {
		return nil
	}
	if e, ok := asError(err); ok {
		return e
	}
	return transportError(err)
}

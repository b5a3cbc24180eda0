package backend

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/sony/gobreaker/v2"

	"github.com/xenking/brew-pos/internal/domain/auth"
)

// Error is a non-2xx response from the backend.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("backend: %d %s", e.Status, e.Message)
}

// Is matches auth.ErrUnauthorized for 401 responses.
func (e *Error) Is(target error) bool {
	return target == auth.ErrUnauthorized && e.Status == http.StatusUnauthorized
}

// Temporary reports whether the failure is on the server side.
func (e *Error) Temporary() bool {
	return e.Status >= http.StatusInternalServerError
}

// ErrUnavailable is returned without contacting the backend while the
// circuit breaker is open.
var ErrUnavailable = errors.New("backend unavailable")

// IsNetworkOrServer reports whether err came from talking to the backend:
// a transport failure, an open breaker, an error response or a success
// response that could not be used. Local validation errors report false.
func IsNetworkOrServer(err error) bool {
	if err == nil {
		return false
	}
	var (
		apiErr  *Error
		tErr    *TransportError
		respErr *ResponseError
	)
	return errors.As(err, &apiErr) ||
		errors.As(err, &tErr) ||
		errors.As(err, &respErr) ||
		errors.Is(err, ErrUnavailable)
}

// IsStatus reports whether err is a backend response with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// TransportError wraps a failure to complete the HTTP exchange.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *TransportError) Unwrap() error { return e.Err }

// ResponseError is a 2xx response whose body is malformed or lacks the
// expected payload.
type ResponseError struct {
	Op  string
	Err error
}

func (e *ResponseError) Error() string { return e.Op + ": unexpected response: " + e.Err.Error() }

func (e *ResponseError) Unwrap() error { return e.Err }

// parseError builds an *Error from a response body, using its "error"
// field when the body is a JSON object carrying one.
func parseError(status int, body []byte) *Error {
	e := &Error{Status: status}
	if len(body) == 0 {
		return e
	}
	d := jx.DecodeBytes(body)
	if d.Next() != jx.Object {
		return e
	}
	_ = d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "error", "message":
			if e.Message != "" {
				return d.Skip()
			}
			s, err := decodeString(d)
			if err != nil {
				return err
			}
			e.Message = s
			return nil
		default:
			return d.Skip()
		}
	})
	return e
}

// breakerFailure reports whether err should count against the breaker.
func breakerFailure(err error) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Temporary()
	}
	switch {
	case errors.Is(err, context.Canceled),
		errors.Is(err, gobreaker.ErrOpenState),
		errors.Is(err, gobreaker.ErrTooManyRequests):
		return false
	default:
		return true
	}
}

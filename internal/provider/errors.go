// Package provider implements resilient HTTP clients for the external data
// sources the core consumes, plus the error taxonomy every component boundary
// converts into a fallback path.
package provider

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a provider failure for retry and fallback decisions.
type ErrorKind int

const (
	// KindTransport covers network failures, timeouts and 5xx responses.
	// Retryable.
	KindTransport ErrorKind = iota + 1
	// KindAuth covers 401/403 after the alternate-auth retry is spent.
	KindAuth
	// KindClient covers other 4xx responses. Non-retryable.
	KindClient
	// KindMalformedResponse covers schema validation failures on an otherwise
	// successful response. Non-retryable.
	KindMalformedResponse
	// KindUnavailable means the provider credential is absent; the request was
	// never attempted.
	KindUnavailable
)

// String implements fmt.Stringer.
func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindAuth:
		return "auth"
	case KindClient:
		return "client"
	case KindMalformedResponse:
		return "malformed_response"
	case KindUnavailable:
		return "unavailable"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Error is a typed provider failure. Callers never see raw transport errors;
// they see one of these and decide to fall back.
type Error struct {
	Err      error
	Provider string
	Message  string
	Kind     ErrorKind
	Status   int
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s provider %s error (status %d): %s", e.Provider, e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s provider %s error: %s", e.Provider, e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether the failure class may be retried.
func (e *Error) Retryable() bool {
	return e.Kind == KindTransport
}

// ErrEmptyResult marks a provider success that carried no usable data. It is
// routed to the fallback tier exactly like a failure.
var ErrEmptyResult = errors.New("provider returned empty result")

// AsError extracts a typed provider error if present.
func AsError(err error) (*Error, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// Unavailable builds the error returned when a credential is absent.
func Unavailable(providerName string) *Error {
	return &Error{
		Provider: providerName,
		Kind:     KindUnavailable,
		Message:  "no credential configured",
	}
}

package lesson

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed lesson service call. Every kind surfaces
// to the UI as a user-visible message; none are retried automatically.
type ErrorKind string

const (
	// KindTransport covers network failures and 5xx responses. Retryable
	// by user action only.
	KindTransport ErrorKind = "transport"
	// KindValidation covers malformed requests and missing selections.
	// Fixable by the user before resubmission.
	KindValidation ErrorKind = "validation"
	// KindConflict means the slot is no longer available or there is
	// nothing to reschedule into. The session forces a snapshot refresh on
	// it so the UI reflects current truth.
	KindConflict ErrorKind = "conflict"
	// KindNotFound means a stale lesson id, typically after a concurrent
	// cancellation elsewhere.
	KindNotFound ErrorKind = "not_found"
)

// APIError carries the lesson service's message verbatim plus its kind.
type APIError struct {
	Kind    ErrorKind
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func NewTransportError(msg string) error {
	return &APIError{Kind: KindTransport, Message: msg}
}

func NewValidationError(msg string) error {
	return &APIError{Kind: KindValidation, Message: msg}
}

func NewConflictError(msg string) error {
	return &APIError{Kind: KindConflict, Message: msg}
}

func NewNotFoundError(msg string) error {
	return &APIError{Kind: KindNotFound, Message: msg}
}

func isKind(err error, kind ErrorKind) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == kind
}

func IsTransport(err error) bool  { return isKind(err, KindTransport) }
func IsValidation(err error) bool { return isKind(err, KindValidation) }
func IsConflict(err error) bool   { return isKind(err, KindConflict) }
func IsNotFound(err error) bool   { return isKind(err, KindNotFound) }

// ErrRequestInFlight is returned when a mutating call is issued for a
// lesson that already has one pending. Rapid repeated taps hit this
// instead of producing duplicate requests.
var ErrRequestInFlight = errors.New("a request for this lesson is already in progress")

// ErrNoOffer is returned by AcceptOffer when no offer is pending.
var ErrNoOffer = errors.New("no reschedule offer to accept")

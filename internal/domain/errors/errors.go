// Package errors defines the failure taxonomy of the realtime core. Every
// failure a component can observe falls into one class, and the class decides
// the handling policy: retry, degrade, swallow, or terminate the session.
package errors

import (
	"github.com/pkg/errors"
)

// FailureKind classifies an error by its handling policy.
type FailureKind string

const (
	// KindTransient covers network drops and timeouts. Retried automatically
	// via reconnect backoff, never surfaced beyond the connection state.
	KindTransient FailureKind = "transient"

	// KindAuth covers a rejected token. Terminal for the session; never
	// silently retried.
	KindAuth FailureKind = "auth"

	// KindGeolocation covers provider failures (permission denied, fix
	// timeout). Degrades location-based subscription without crashing.
	KindGeolocation FailureKind = "geolocation"

	// KindPresentation covers sink and playback failures. Swallowed at the
	// presenter; never propagates upstream.
	KindPresentation FailureKind = "presentation"

	// KindMalformed covers inbound events that fail validation. The event is
	// dropped before entering a buffer.
	KindMalformed FailureKind = "malformed"
)

// Failure is an error carrying its failure class.
type Failure struct {
	kind    FailureKind
	message string
}

// NewFailure creates a classified error.
func NewFailure(kind FailureKind, message string) *Failure {
	return &Failure{kind: kind, message: message}
}

// Error implements the error interface.
func (f *Failure) Error() string {
	return f.message
}

// Kind returns the failure class.
func (f *Failure) Kind() FailureKind {
	return f.kind
}

// Predefined failures.
var (
	// ErrAuthRejected indicates the server refused the bearer token during
	// the handshake. The connection manager terminates instead of retrying.
	ErrAuthRejected = NewFailure(KindAuth, "authentication token rejected")

	// ErrPermissionDenied indicates the position provider refused access.
	// Sampling stops; the last known room is retained.
	ErrPermissionDenied = NewFailure(KindGeolocation, "geolocation permission denied")

	// ErrFixTimeout indicates the provider could not produce a fix in time.
	ErrFixTimeout = NewFailure(KindGeolocation, "geolocation fix timed out")

	// ErrMalformedEvent indicates an inbound event failed validation.
	ErrMalformedEvent = NewFailure(KindMalformed, "malformed inbound event")
)

// KindOf returns the failure class of an error, walking the wrap chain.
// Unclassified errors default to transient, the only class that is safe to
// retry.
func KindOf(err error) FailureKind {
	var failure *Failure
	if errors.As(err, &failure) {
		return failure.Kind()
	}

	return KindTransient
}

// IsAuthRejection reports whether the error is a terminal auth failure.
func IsAuthRejection(err error) bool {
	return KindOf(err) == KindAuth
}

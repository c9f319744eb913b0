package usermanagement

import (
	"errors"
)

// ErrFlowNotFound is returned when no registration flow holds a token. It
// deliberately covers both "never existed" and "already consumed" so callers
// cannot probe which tokens were ever issued.
var ErrFlowNotFound = errors.New("registration flow not found")

// ErrTokenExpired is returned when a flow exists but its activation token is
// past the configured time-to-live.
var ErrTokenExpired = errors.New("activation token expired")

// ErrInvalidRedirectResult signals that a RedirectTargetService implementation
// returned something other than a URI, a route target, or nil. This is a
// programming error and must abort the request.
var ErrInvalidRedirectResult = errors.New("redirect target service returned an invalid result shape")

// ErrNoEmptyString is returned when hashing an empty password.
var ErrNoEmptyString = errors.New("expected non empty string")

// ErrMismatchedHashAndPassword is returned when a password does not match its hash.
var ErrMismatchedHashAndPassword = errors.New("mismatched password and hash")

// IsFlowNotFound reports whether err means the token resolved to no flow.
func IsFlowNotFound(err error) bool {
	return errors.Is(err, ErrFlowNotFound)
}

// IsTokenExpired reports whether err means the flow outlived its TTL.
func IsTokenExpired(err error) bool {
	return errors.Is(err, ErrTokenExpired)
}

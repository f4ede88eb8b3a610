package domain

import "errors"

var (
	// ErrProfileNotFound is the expected negative of a lookup: the bearer has
	// no profile for the role looked up.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrProfileUnavailable covers every other lookup failure (transport,
	// non-2xx status, undecodable body).
	ErrProfileUnavailable = errors.New("profile service unavailable")
	ErrMalformedProfile   = errors.New("malformed profile")
	ErrUnknownRole        = errors.New("unknown role")

	// ErrResolutionSuperseded is returned by a resolution that completed after
	// a newer one had been issued. Its result was discarded.
	ErrResolutionSuperseded = errors.New("resolution superseded")

	ErrInvalidSession   = errors.New("invalid provider session")
	ErrStoreUnavailable = errors.New("actor store unavailable")
)

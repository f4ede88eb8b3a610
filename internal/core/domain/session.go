package domain

import (
	"encoding/hex"
	"time"

	"golang.org/x/crypto/blake2b"
)

// SessionEventType names an auth-provider lifecycle event.
type SessionEventType string

const (
	SessionSignedIn       SessionEventType = "signed_in"
	SessionSignedOut      SessionEventType = "signed_out"
	SessionTokenRefreshed SessionEventType = "token_refreshed"
)

// Valid reports whether t is one of the known event types.
func (t SessionEventType) Valid() bool {
	switch t {
	case SessionSignedIn, SessionSignedOut, SessionTokenRefreshed:
		return true
	}
	return false
}

// ProviderSession is the read-only view of the external provider's session.
// The access token is the bearer credential used for profile lookups.
type ProviderSession struct {
	AccessToken string    `json:"-"`
	Subject     string    `json:"subject"`
	Email       string    `json:"email,omitempty"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Active reports whether the session carries a token that has not expired at
// now. A zero ExpiresAt never expires.
func (s *ProviderSession) Active(now time.Time) bool {
	if s == nil || s.AccessToken == "" {
		return false
	}
	return s.ExpiresAt.IsZero() || now.Before(s.ExpiresAt)
}

// Fingerprint identifies the session's bearer token without exposing it.
// Two sessions with the same token share a fingerprint.
func (s *ProviderSession) Fingerprint() string {
	if s == nil || s.AccessToken == "" {
		return ""
	}
	sum := blake2b.Sum256([]byte(s.AccessToken))
	return hex.EncodeToString(sum[:12])
}

// SessionEvent is pushed by the auth provider on sign-in, sign-out and token
// refresh. Session is nil for sign-out.
type SessionEvent struct {
	Type    SessionEventType
	Session *ProviderSession
}

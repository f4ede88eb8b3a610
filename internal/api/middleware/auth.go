package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/casalinger/session-gateway/internal/core/domain"
)

// SessionKey is the echo context key holding the verified *domain.ProviderSession.
const SessionKey = "session"

// TokenVerifier turns a provider access token into a session.
type TokenVerifier interface {
	Verify(accessToken string) (*domain.ProviderSession, error)
}

// SessionSource reports the provider session the gateway currently holds.
type SessionSource interface {
	CurrentSession(ctx context.Context) (*domain.ProviderSession, error)
}

// Auth verifies the bearer token, when one is sent, and injects the provider
// session into context. Requests without an Authorization header pass
// through unauthenticated; a malformed or invalid token is rejected.
func Auth(verifier TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Header.Get("Authorization") == "" {
				return next(c)
			}
			session, err := bearerSession(c, verifier)
			if err != nil {
				return err
			}
			c.Set(SessionKey, session)
			return next(c)
		}
	}
}

// RequireSession admits only requests whose bearer token verifies and names
// the subject of the session the gateway holds. Routes behind it act on, or
// reveal, the shared current actor.
func RequireSession(verifier TokenVerifier, sessions SessionSource) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Header.Get("Authorization") == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}
			session, err := bearerSession(c, verifier)
			if err != nil {
				return err
			}

			current, err := sessions.CurrentSession(c.Request().Context())
			if err != nil {
				return err
			}
			if current == nil || current.Subject != session.Subject {
				return echo.NewHTTPError(http.StatusForbidden, "token does not belong to the current session")
			}

			c.Set(SessionKey, session)
			return next(c)
		}
	}
}

func bearerSession(c echo.Context, verifier TokenVerifier) (*domain.ProviderSession, error) {
	parts := strings.SplitN(c.Request().Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
	}

	session, err := verifier.Verify(parts[1])
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}
	return session, nil
}

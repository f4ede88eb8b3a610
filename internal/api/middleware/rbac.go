package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/casalinger/session-gateway/internal/core/domain"
	"github.com/casalinger/session-gateway/internal/core/ports"
)

// ActorKey is the echo context key holding the current domain.Actor.
const ActorKey = "actor"

// ActorSource exposes the committed actor.
type ActorSource interface {
	Snapshot() ports.Snapshot
}

// RequireRole admits the request only when the committed actor holds one of
// the allowed roles. With no roles listed any authenticated actor passes.
// While the actor is still being resolved the request is refused with 503 so
// the caller can retry.
func RequireRole(source ActorSource, allowedRoles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[domain.Role]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			snap := source.Snapshot()
			if !snap.Settled {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "session is still being resolved")
			}
			role, ok := domain.RoleOf(snap.Actor)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "not signed in")
			}
			if len(allowed) > 0 {
				if _, ok := allowed[role]; !ok {
					return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
				}
			}

			c.Set(ActorKey, snap.Actor)
			return next(c)
		}
	}
}

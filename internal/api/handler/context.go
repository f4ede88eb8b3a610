package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/casalinger/session-gateway/internal/api/middleware"
	"github.com/casalinger/session-gateway/internal/core/domain"
)

// ctxSession returns the provider session verified by the Auth middleware,
// or nil when the request carried no token.
func ctxSession(c echo.Context) *domain.ProviderSession {
	s, _ := c.Get(middleware.SessionKey).(*domain.ProviderSession)
	return s
}

// ctxActor returns the actor admitted by RequireRole. A guest here means the
// route was registered without the middleware.
func ctxActor(c echo.Context) (domain.Actor, error) {
	actor, _ := c.Get(middleware.ActorKey).(domain.Actor)
	if !domain.IsAuthenticated(actor) {
		return domain.Guest(), echo.NewHTTPError(http.StatusUnauthorized, "not signed in")
	}
	return actor, nil
}

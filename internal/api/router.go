package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/casalinger/session-gateway/internal/api/handler"
	"github.com/casalinger/session-gateway/internal/api/middleware"
	"github.com/casalinger/session-gateway/internal/core/domain"
	"github.com/casalinger/session-gateway/internal/core/ports"
)

// Provider is the auth-provider surface the HTTP layer needs: token
// verification, the current session and event publication.
type Provider interface {
	middleware.TokenVerifier
	handler.EventPublisher
}

// Dependencies wires the router to the session core.
type Dependencies struct {
	Resolver ports.SessionResolver
	Guard    ports.RouteGuard
	Provider Provider
	Idle     ports.IdleTracker
	// Ready lists the dependencies checked by /health/ready.
	Ready map[string]handler.Pinger
	// Registerer receives the HTTP metrics. Defaults to the global registry.
	Registerer prometheus.Registerer
	Log        zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:                 "session_gateway",
		Subsystem:                 "http",
		Registerer:                deps.Registerer,
		DoNotUseRequestPathFor404: true,
	}))

	// --- Session ---
	sessionHandler := handler.NewSessionHandler(deps.Resolver, deps.Provider, deps.Idle)
	guardHandler := handler.NewGuardHandler(deps.Guard)

	// Routes that act on or reveal the shared actor need the bearer of the
	// session the gateway holds.
	owner := middleware.RequireSession(deps.Provider, deps.Provider)

	session := e.Group("/session")
	session.GET("", sessionHandler.Get)
	session.POST("/events", sessionHandler.Events, middleware.Auth(deps.Provider))
	session.POST("/refresh", sessionHandler.Refresh)
	session.POST("/actor", sessionHandler.SetActor, owner)
	session.POST("/logout", sessionHandler.Logout, owner)
	session.POST("/activity", sessionHandler.Activity, owner)
	session.GET("/profile", sessionHandler.Profile, owner, middleware.RequireRole(deps.Resolver))
	session.GET("/permissions", sessionHandler.Permissions, owner, middleware.RequireRole(deps.Resolver, domain.RoleAdmin))

	e.GET("/guard", guardHandler.Decide)

	// --- Health checks (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.Ready)

	e.GET("/health", healthHandler.Liveness)            // liveness
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness

	// --- Operations ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

// requestLogger emits one zerolog line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}

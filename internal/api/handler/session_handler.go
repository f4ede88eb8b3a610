package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/casalinger/session-gateway/internal/core/domain"
	"github.com/casalinger/session-gateway/internal/core/ports"
)

// EventPublisher is the interface the handler uses to report provider
// session events and to read the session they produced.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.SessionEvent) error
	CurrentSession(ctx context.Context) (*domain.ProviderSession, error)
}

// SessionHandler exposes the current actor and its lifecycle.
type SessionHandler struct {
	resolver  ports.SessionResolver
	publisher EventPublisher
	idle      ports.IdleTracker
}

func NewSessionHandler(resolver ports.SessionResolver, publisher EventPublisher, idle ports.IdleTracker) *SessionHandler {
	return &SessionHandler{resolver: resolver, publisher: publisher, idle: idle}
}

// Get handles GET /session.
//
// @Summary      Current actor
// @Description  Returns the kind and role of the committed actor, of the cached hint while the first resolution is pending, and the inactivity state. Profiles are served by /session/profile.
// @Tags         session
// @Produce      json
// @Success      200  {object}  sessionResponse
// @Router       /session [get]
func (h *SessionHandler) Get(c echo.Context) error {
	return c.JSON(http.StatusOK, toSessionResponse(h.resolver.Snapshot(), h.idle.State()))
}

// Events handles POST /session/events. Every event needs a verified token; a
// sign-out must come from the subject currently signed in. The event is
// resolved asynchronously; poll /session or /guard for the outcome.
//
// @Summary      Report an auth-provider event
// @Tags         session
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      sessionEventRequest  true  "Provider event"
// @Success      202   {object}  acceptedResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /session/events [post]
func (h *SessionHandler) Events(c echo.Context) error {
	var req sessionEventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	caller := ctxSession(c)
	if caller == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "access token required")
	}

	event := domain.SessionEvent{Type: domain.SessionEventType(req.Type), Session: caller}
	if event.Type == domain.SessionSignedOut {
		current, err := h.publisher.CurrentSession(c.Request().Context())
		if err != nil {
			return err
		}
		if current != nil && current.Subject != caller.Subject {
			return echo.NewHTTPError(http.StatusForbidden, "token does not belong to the current session")
		}
		event.Session = nil
	}

	if err := h.publisher.Publish(c.Request().Context(), event); err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, acceptedResponse{Message: "event accepted"})
}

// Refresh handles POST /session/refresh, sent when the app regains focus.
//
// @Summary      Re-resolve the current session
// @Tags         session
// @Produce      json
// @Success      200  {object}  sessionResponse
// @Failure      502  {object}  map[string]string
// @Router       /session/refresh [post]
func (h *SessionHandler) Refresh(c echo.Context) error {
	if _, err := h.resolver.Refresh(c.Request().Context()); err != nil && !errors.Is(err, domain.ErrResolutionSuperseded) {
		return err
	}
	return c.JSON(http.StatusOK, toSessionResponse(h.resolver.Snapshot(), h.idle.State()))
}

// SetActor handles POST /session/actor, sent after login or onboarding
// completion with the profile the backend returned. The profile must belong
// to the caller.
//
// @Summary      Set the current actor
// @Tags         session
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      setActorRequest  true  "Role and backend profile"
// @Success      200   {object}  profileResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /session/actor [post]
func (h *SessionHandler) SetActor(c echo.Context) error {
	var req setActorRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	caller := ctxSession(c)
	if caller == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "access token required")
	}

	role, err := domain.ParseRole(req.Role)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	profile, err := domain.DecodeProfile(role, req.Profile)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	if sub := profile.Subject(); sub != "" && sub != caller.Subject {
		return echo.NewHTTPError(http.StatusForbidden, "profile belongs to another subject")
	}

	actor := h.resolver.SetActor(c.Request().Context(), domain.Authenticated(profile))
	committed, _ := domain.RoleOf(actor)
	return c.JSON(http.StatusOK, profileResponse{Role: committed, Profile: actor.Profile()})
}

// Logout handles POST /session/logout.
//
// @Summary      Log out
// @Description  Commits the guest actor, clears the cache and signs out of the provider. Returns the login page for the actor that logged out.
// @Tags         session
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  logoutResponse
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /session/logout [post]
func (h *SessionHandler) Logout(c echo.Context) error {
	previous := h.resolver.Snapshot().Actor
	if err := h.resolver.Logout(c.Request().Context()); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, logoutResponse{Redirect: domain.LoginPathFor(previous)})
}

// Activity handles POST /session/activity.
//
// @Summary      Record user activity
// @Tags         session
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  ports.IdleState
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Router       /session/activity [post]
func (h *SessionHandler) Activity(c echo.Context) error {
	h.idle.Touch()
	return c.JSON(http.StatusOK, h.idle.State())
}

// Profile handles GET /session/profile.
//
// @Summary      Profile of the signed-in actor
// @Tags         session
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  profileResponse
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /session/profile [get]
func (h *SessionHandler) Profile(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	role, _ := domain.RoleOf(actor)
	return c.JSON(http.StatusOK, profileResponse{Role: role, Profile: actor.Profile()})
}

// Permissions handles GET /session/permissions for admins.
//
// @Summary      Admin permissions
// @Tags         session
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  permissionsResponse
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Router       /session/permissions [get]
func (h *SessionHandler) Permissions(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	admin, ok := actor.Profile().(*domain.AdminProfile)
	if !ok {
		return echo.NewHTTPError(http.StatusForbidden, "admin only")
	}
	perms := admin.Permissions
	if perms == nil {
		perms = []string{}
	}
	return c.JSON(http.StatusOK, permissionsResponse{Permissions: perms})
}

package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/casalinger/session-gateway/internal/core/domain"
	"github.com/casalinger/session-gateway/internal/core/ports"
)

// GuardHandler answers route checks for the shell's router.
type GuardHandler struct {
	guard ports.RouteGuard
}

func NewGuardHandler(guard ports.RouteGuard) *GuardHandler {
	return &GuardHandler{guard: guard}
}

// Decide handles GET /guard.
//
// @Summary      Route decision
// @Description  Decides whether the current actor may open path. With wait=true a pending resolution is awaited up to the guard timeout.
// @Tags         guard
// @Produce      json
// @Param        path  query     string  true   "Requested path"
// @Param        wait  query     bool    false  "Wait for a pending resolution"
// @Success      200   {object}  decisionResponse
// @Failure      422   {object}  map[string]string
// @Router       /guard [get]
func (h *GuardHandler) Decide(c echo.Context) error {
	var req guardRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	ctx := c.Request().Context()
	var d domain.Decision
	if req.Wait {
		d = h.guard.Await(ctx, req.Path)
	} else {
		d = h.guard.Check(ctx, req.Path)
	}
	return c.JSON(http.StatusOK, decisionResponse{Decision: d, Location: d.Location()})
}

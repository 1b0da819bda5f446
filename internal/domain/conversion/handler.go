package conversion

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type Handler struct {
	engine *Engine
}

func NewHandler(engine *Engine) *Handler {
	return &Handler{engine: engine}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/preregistrations/convert", h.Convert)
}

type convertRequest struct {
	IDs []uuid.UUID `json:"ids"`
}

func (h *Handler) Convert(c echo.Context) error {
	var req convertRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if len(req.IDs) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "ids is required")
	}

	var operator *string
	if op := c.Request().Header.Get("X-Operator"); op != "" {
		operator = &op
	}

	summary := h.engine.Convert(c.Request().Context(), req.IDs, operator)
	return c.JSON(http.StatusOK, summary)
}

package preregistration

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clubcrm/clubcrm/internal/domain/person"
	"github.com/clubcrm/clubcrm/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/preregistrations")
	g.POST("", h.Submit)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.GET("/folio/:folio", h.GetByFolio)
	g.POST("/:id/cancel", h.Cancel)
}

type submitRequest struct {
	Preregister
	MainContact      *Contact `json:"main_contact"`
	EmergencyContact *Contact `json:"emergency_contact"`
}

// Submit is the public application endpoint. A successful submission answers
// with the folio the applicant keeps as their reference.
func (h *Handler) Submit(c echo.Context) error {
	var req submitRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	err := h.svc.Submit(c.Request().Context(), &req.Preregister, req.MainContact, req.EmergencyContact)
	if err != nil {
		if ve, ok := person.AsValidationError(err); ok {
			return c.JSON(http.StatusBadRequest, ve)
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, req.Preregister)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	status := ApprovalStatus(c.QueryParam("status"))
	switch status {
	case "", StatusPending, StatusDone, StatusCanceled:
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "invalid status filter")
	}
	items, total, err := h.svc.List(c.Request().Context(), status, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "preregistration not found")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) GetByFolio(c echo.Context) error {
	p, err := h.svc.GetByFolio(c.Request().Context(), c.Param("folio"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "preregistration not found")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) Cancel(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := h.svc.Cancel(c.Request().Context(), id)
	if err != nil {
		if err == ErrNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "preregistration not found")
		}
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return c.JSON(http.StatusOK, p)
}

package registry

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// kindPaths maps URL path segments to registry kinds.
var kindPaths = map[string]Kind{
	"access-statuses":    KindAccessStatus,
	"medical-conditions": KindMedicalCondition,
	"discovery-sources":  KindDiscoverySource,
	"contact-relations":  KindContactRelation,
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	for path := range kindPaths {
		g := api.Group("/" + path)
		g.GET("", h.ListEntries)
		g.POST("", h.CreateEntry)
		g.GET("/:id", h.GetEntry)
		g.PUT("/:id", h.UpdateEntry)
		g.DELETE("/:id", h.DeleteEntry)
	}

	segments := api.Group("/age-segments")
	segments.GET("", h.ListSegments)
	segments.POST("", h.CreateSegment)
	segments.GET("/:id", h.GetSegment)
	segments.PUT("/:id", h.UpdateSegment)
	segments.DELETE("/:id", h.DeleteSegment)
}

func kindFromPath(c echo.Context) (Kind, error) {
	// Path shape: /api/v1/<segment>[/:id]
	for _, p := range strings.Split(c.Path(), "/") {
		if k, ok := kindPaths[p]; ok {
			return k, nil
		}
	}
	return "", echo.NewHTTPError(http.StatusNotFound, "unknown registry")
}

// -- Name-only registry handlers --

func (h *Handler) CreateEntry(c echo.Context) error {
	kind, err := kindFromPath(c)
	if err != nil {
		return err
	}
	var e Entry
	if err := c.Bind(&e); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateEntry(c.Request().Context(), kind, &e); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, e)
}

func (h *Handler) GetEntry(c echo.Context) error {
	kind, err := kindFromPath(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	e, err := h.svc.GetEntry(c.Request().Context(), kind, id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "registry entry not found")
	}
	return c.JSON(http.StatusOK, e)
}

func (h *Handler) ListEntries(c echo.Context) error {
	kind, err := kindFromPath(c)
	if err != nil {
		return err
	}
	entries, err := h.svc.ListEntries(c.Request().Context(), kind)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, entries)
}

func (h *Handler) UpdateEntry(c echo.Context) error {
	kind, err := kindFromPath(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var e Entry
	if err := c.Bind(&e); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	e.ID = id
	if err := h.svc.UpdateEntry(c.Request().Context(), kind, &e); err != nil {
		if err == ErrNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "registry entry not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, e)
}

func (h *Handler) DeleteEntry(c echo.Context) error {
	kind, err := kindFromPath(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteEntry(c.Request().Context(), kind, id); err != nil {
		if err == ErrNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "registry entry not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Age segment handlers --

func (h *Handler) CreateSegment(c echo.Context) error {
	var s AgeSegment
	if err := c.Bind(&s); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateSegment(c.Request().Context(), &s); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, s)
}

func (h *Handler) GetSegment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	s, err := h.svc.GetSegment(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "age segment not found")
	}
	return c.JSON(http.StatusOK, s)
}

func (h *Handler) ListSegments(c echo.Context) error {
	segments, err := h.svc.ListSegments(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, segments)
}

func (h *Handler) UpdateSegment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var s AgeSegment
	if err := c.Bind(&s); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	s.ID = id
	if err := h.svc.UpdateSegment(c.Request().Context(), &s); err != nil {
		if err == ErrNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "age segment not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, s)
}

func (h *Handler) DeleteSegment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteSegment(c.Request().Context(), id); err != nil {
		if err == ErrNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "age segment not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

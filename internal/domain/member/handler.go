package member

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clubcrm/clubcrm/internal/domain/person"
	"github.com/clubcrm/clubcrm/internal/domain/registry"
	"github.com/clubcrm/clubcrm/pkg/pagination"
)

// SegmentResolver resolves the age segment for a computed age.
type SegmentResolver interface {
	SegmentForAge(ctx context.Context, age int) (*registry.AgeSegment, error)
}

type Handler struct {
	svc      *Service
	segments SegmentResolver
}

func NewHandler(svc *Service, segments SegmentResolver) *Handler {
	return &Handler{svc: svc, segments: segments}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/members")
	g.GET("", h.ListMembers)
	g.POST("", h.CreateMember)
	g.GET("/:id", h.GetMember)
	g.PUT("/:id", h.UpdateMember)
	g.GET("/:id/contacts", h.ListContacts)
	g.POST("/:id/contacts", h.AddContact)
	g.PUT("/:id/contacts/:contactID", h.UpdateContact)
	g.DELETE("/:id/contacts/:contactID", h.DeleteContact)
	g.GET("/:id/status-log", h.GetStatusLog)
	g.POST("/:id/status-log", h.AppendStatus)
	// The ledger is append-only; these exist to reject the attempt
	// explicitly rather than 404.
	g.PUT("/:id/status-log/:entryID", h.RejectLogMutation)
	g.DELETE("/:id/status-log/:entryID", h.RejectLogMutation)
}

// operatorFrom extracts the acting operator's identity, when provided.
func operatorFrom(c echo.Context) *string {
	if op := c.Request().Header.Get("X-Operator"); op != "" {
		return &op
	}
	return nil
}

type createMemberRequest struct {
	Member
	Contacts []*Contact `json:"contacts"`
}

// memberResponse decorates a member with its derived age and age segment.
type memberResponse struct {
	*Member
	Age        int                  `json:"age"`
	AgeSegment *registry.AgeSegment `json:"age_segment,omitempty"`
}

func (h *Handler) CreateMember(c echo.Context) error {
	var req createMemberRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	err := h.svc.Create(c.Request().Context(), &req.Member, req.Contacts, operatorFrom(c))
	if err != nil {
		if ve, ok := person.AsValidationError(err); ok {
			return c.JSON(http.StatusBadRequest, ve)
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, req.Member)
}

func (h *Handler) GetMember(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	m, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "member not found")
	}

	resp := memberResponse{Member: m, Age: m.Age()}
	if h.segments != nil {
		if seg, err := h.segments.SegmentForAge(c.Request().Context(), resp.Age); err == nil {
			resp.AgeSegment = seg
		}
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) ListMembers(c echo.Context) error {
	pg := pagination.FromContext(c)
	members, total, err := h.svc.List(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(members, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateMember(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	existing, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "member not found")
	}

	var m Member
	if err := c.Bind(&m); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	m.ID = id
	m.MemberCode = existing.MemberCode
	m.CURP = existing.CURP
	if err := h.svc.Update(c.Request().Context(), &m); err != nil {
		if ve, ok := person.AsValidationError(err); ok {
			return c.JSON(http.StatusBadRequest, ve)
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, m)
}

// -- Contacts --

func (h *Handler) AddContact(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var contact Contact
	if err := c.Bind(&contact); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.AddContact(c.Request().Context(), id, &contact); err != nil {
		if err == ErrNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "member not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, contact)
}

func (h *Handler) ListContacts(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	contacts, err := h.svc.ListContacts(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, contacts)
}

func (h *Handler) UpdateContact(c echo.Context) error {
	contactID, err := uuid.Parse(c.Param("contactID"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid contact id")
	}
	var contact Contact
	if err := c.Bind(&contact); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	contact.ID = contactID
	if err := h.svc.UpdateContact(c.Request().Context(), &contact); err != nil {
		if err == ErrNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "contact not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, contact)
}

func (h *Handler) DeleteContact(c echo.Context) error {
	contactID, err := uuid.Parse(c.Param("contactID"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid contact id")
	}
	if err := h.svc.DeleteContact(c.Request().Context(), contactID); err != nil {
		if err == ErrNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "contact not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Status ledger --

type appendStatusRequest struct {
	StatusID uuid.UUID `json:"status_id"`
	Reason   string    `json:"reason"`
}

func (h *Handler) AppendStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req appendStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	entry, err := h.svc.AppendStatus(c.Request().Context(), id, req.StatusID, req.Reason, operatorFrom(c))
	if err != nil {
		if err == ErrNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "member not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, entry)
}

func (h *Handler) GetStatusLog(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	entries, err := h.svc.StatusLog(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, entries)
}

// RejectLogMutation answers every update or delete attempt on a ledger
// entry with a conflict; the rule also holds at the database layer.
func (h *Handler) RejectLogMutation(c echo.Context) error {
	return echo.NewHTTPError(http.StatusConflict, ErrImmutableEntry.Error())
}

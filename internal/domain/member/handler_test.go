package member

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func newTestHandler() (*Handler, *testEnv) {
	env := newTestEnv()
	return NewHandler(env.svc, nil), env
}

func TestCreateMemberHandler(t *testing.T) {
	h, env := newTestHandler()
	e := echo.New()

	body := `{
		"name": "Juan Perez",
		"curp": "JUAP010101HDFRRN09",
		"birth_date": "2001-01-01T00:00:00Z",
		"gender": "M",
		"phone_number": "5512345678",
		"email": "juan.perez@example.com",
		"contacts": [{"name": "Maria Perez", "phone_number": "5587654321", "is_primary": true}]
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/members", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("X-Operator", "front-desk")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.CreateMember(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	var created Member
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.MemberCode != "5000" {
		t.Errorf("member code = %q, want 5000", created.MemberCode)
	}
	if len(env.log.entries) != 1 {
		t.Fatalf("expected 1 ledger entry, got %d", len(env.log.entries))
	}
	if env.log.entries[0].ChangedBy == nil || *env.log.entries[0].ChangedBy != "front-desk" {
		t.Error("ledger entry must record the operator from X-Operator")
	}
}

func TestCreateMemberHandler_InvalidPerson(t *testing.T) {
	h, _ := newTestHandler()
	e := echo.New()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/members", strings.NewReader(`{"name": ""}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.CreateMember(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestGetMemberHandler_NotFound(t *testing.T) {
	h, _ := newTestHandler()
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(uuid.NewString())

	err := h.GetMember(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Errorf("expected 404 HTTPError, got %v", err)
	}
}

func TestGetMemberHandler_BadID(t *testing.T) {
	h, _ := newTestHandler()
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")

	err := h.GetMember(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400 HTTPError, got %v", err)
	}
}

func TestAppendStatusHandler(t *testing.T) {
	h, env := newTestHandler()
	e := echo.New()

	m := &Member{Person: testPerson("JUAP010101HDFRRN09")}
	if err := env.svc.Create(context.Background(), m, nil, nil); err != nil {
		t.Fatalf("seed member: %v", err)
	}

	statusID := uuid.New()
	body := fmt.Sprintf(`{"status_id": %q, "reason": "unpaid dues"}`, statusID)
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(m.ID.String())

	if err := h.AppendStatus(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	var entry AccessLogEntry
	if err := json.Unmarshal(rec.Body.Bytes(), &entry); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if entry.StatusID != statusID {
		t.Error("entry must carry the requested status")
	}
}

func TestAppendStatusHandler_MissingReason(t *testing.T) {
	h, env := newTestHandler()
	e := echo.New()

	m := &Member{Person: testPerson("JUAP010101HDFRRN09")}
	if err := env.svc.Create(context.Background(), m, nil, nil); err != nil {
		t.Fatalf("seed member: %v", err)
	}

	body := fmt.Sprintf(`{"status_id": %q}`, uuid.New())
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(m.ID.String())

	err := h.AppendStatus(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400 HTTPError, got %v", err)
	}
}

func TestRejectLogMutation(t *testing.T) {
	h, _ := newTestHandler()
	e := echo.New()

	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.RejectLogMutation(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusConflict {
		t.Errorf("expected 409 HTTPError, got %v", err)
	}
}

package preregistration

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

func submitBody(conditionID uuid.UUID) string {
	return fmt.Sprintf(`{
		"name": "Juan Perez",
		"curp": "JUAP010101HDFRRN09",
		"birth_date": "2014-05-20T00:00:00Z",
		"gender": "M",
		"phone_number": "5512345678",
		"email": "juan.perez@example.com",
		"medical_condition_ids": [%q],
		"main_contact": {"name": "Maria Perez", "phone_number": "5587654321"},
		"emergency_contact": {"name": "Pedro Perez", "phone_number": "5587654322"}
	}`, conditionID)
}

func TestSubmitHandler(t *testing.T) {
	svc, _, conds := newTestService()
	h := NewHandler(svc)
	e := echo.New()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/preregistrations",
		strings.NewReader(submitBody(conds.idOf(ConditionNone))))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Submit(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	var created Preregister
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !strings.HasPrefix(created.Folio, "PR-") {
		t.Errorf("folio = %q, want PR- prefix", created.Folio)
	}
	if created.ApprovalStatus != StatusPending {
		t.Errorf("status = %s, want PENDING", created.ApprovalStatus)
	}
}

func TestSubmitHandler_ValidationErrorsItemized(t *testing.T) {
	svc, _, _ := newTestService()
	h := NewHandler(svc)
	e := echo.New()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/preregistrations",
		strings.NewReader(`{"name": "Juan Perez"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Submit(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	var resp struct {
		Fields []struct {
			Field string `json:"field"`
		} `json:"fields"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Fields) < 2 {
		t.Errorf("expected the response to itemize every violated field, got %s", rec.Body.String())
	}
}

func TestCancelHandler_TerminalConflict(t *testing.T) {
	svc, repo, conds := newTestService()
	h := NewHandler(svc)
	e := echo.New()

	p := validApplication(conds)
	main, emergency := validBlocks()
	if err := svc.Submit(context.Background(), p, main, emergency); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := repo.MarkDone(context.Background(), p.ID, uuid.New()); err != nil {
		t.Fatalf("seed: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(p.ID.String())

	err := h.Cancel(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusConflict {
		t.Errorf("expected 409 HTTPError, got %v", err)
	}
}

func TestGetHandler_NotFound(t *testing.T) {
	svc, _, _ := newTestService()
	h := NewHandler(svc)
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(uuid.NewString())

	err := h.Get(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Errorf("expected 404 HTTPError, got %v", err)
	}
}

func TestListHandler_StatusFilter(t *testing.T) {
	svc, _, conds := newTestService()
	h := NewHandler(svc)
	e := echo.New()

	p := validApplication(conds)
	main, emergency := validBlocks()
	if err := svc.Submit(context.Background(), p, main, emergency); err != nil {
		t.Fatalf("seed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/?status=PENDING", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.List(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/?status=BOGUS", nil)
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)

	err := h.List(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400 HTTPError for bogus filter, got %v", err)
	}
}

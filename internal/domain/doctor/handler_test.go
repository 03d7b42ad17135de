package doctor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medicarehub/api/internal/domain/identity"
	"github.com/medicarehub/api/internal/domain/notes"
	"github.com/medicarehub/api/internal/domain/reports"
	"github.com/medicarehub/api/internal/platform/apperr"
	"github.com/medicarehub/api/internal/platform/auth"
	"github.com/medicarehub/api/internal/platform/middleware"
)

// -- Fakes --

type fakeDirectory map[identity.UserID]*identity.User

func (d fakeDirectory) ListPatients(_ context.Context) ([]*identity.Summary, error) {
	out := []*identity.Summary{}
	for _, u := range d {
		if u.Role == identity.RolePatient {
			out = append(out, u.Summary())
		}
	}
	return out, nil
}

func (d fakeDirectory) GetPatient(_ context.Context, id identity.UserID) (*identity.User, error) {
	if id == "bad" {
		return nil, apperr.Validation("Invalid patient ID")
	}
	u, ok := d[id]
	if !ok || u.Role != identity.RolePatient {
		return nil, apperr.NotFound("Patient not found")
	}
	return u, nil
}

type fakeReports map[identity.UserID][]*reports.View

func (f fakeReports) ListByPatient(_ context.Context, id identity.UserID) ([]*reports.View, error) {
	return f[id], nil
}

type fakeNotes struct {
	added []*notes.View
}

func (f *fakeNotes) Add(_ context.Context, doctorID, patientID identity.UserID, in notes.NewNote) (*notes.View, error) {
	if strings.TrimSpace(in.Note) == "" {
		return nil, apperr.Validation("Validation failed", apperr.FieldError{Field: "note", Message: "Note is required"})
	}
	v := &notes.View{PatientNote: &notes.PatientNote{
		ID:        "n1",
		PatientID: patientID,
		DoctorID:  doctorID,
		Note:      in.Note,
		CreatedAt: time.Now(),
	}}
	f.added = append(f.added, v)
	return v, nil
}

func (f *fakeNotes) ListByPatient(_ context.Context, id identity.UserID) ([]*notes.View, error) {
	var out []*notes.View
	for _, v := range f.added {
		if v.PatientID == id {
			out = append(out, v)
		}
	}
	return out, nil
}

var users = fakeDirectory{
	"p1": {ID: "p1", Name: "Alice", Email: "alice@example.com", Role: identity.RolePatient},
	"p2": {ID: "p2", Name: "Carol", Email: "carol@example.com", Role: identity.RolePatient},
	"d1": {ID: "d1", Name: "Dr. House", Email: "house@example.com", Role: identity.RoleDoctor},
}

func newTestServer() (*echo.Echo, *fakeNotes) {
	log := &fakeNotes{}
	reps := fakeReports{"p1": {{Report: &reports.Report{ID: "r1", PatientID: "p1", FileName: "x.pdf"}}}}
	svc := NewService(users, reps, log)

	e := echo.New()
	e.HTTPErrorHandler = middleware.ErrorHandler(zerolog.Nop(), false)
	authn := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := identity.UserID(c.Request().Header.Get("X-Test-User"))
			u, ok := users[id]
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}
			c.SetRequest(c.Request().WithContext(auth.WithPrincipal(c.Request().Context(), u.Principal())))
			return next(c)
		}
	}
	NewHandler(svc).RegisterRoutes(e.Group("/api/doctor", authn))
	return e, log
}

func call(e *echo.Echo, method, path, user, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestHandler_RequiresDoctor(t *testing.T) {
	e, _ := newTestServer()

	paths := []string{"/api/doctor/patients", "/api/doctor/patient/p1", "/api/doctor/patient/p1/reports", "/api/doctor/patient/p1/notes"}
	for _, p := range paths {
		if rec := call(e, http.MethodGet, p, "p1", ""); rec.Code != http.StatusForbidden {
			t.Errorf("%s as patient: expected 403, got %d", p, rec.Code)
		}
		if rec := call(e, http.MethodGet, p, "", ""); rec.Code != http.StatusUnauthorized {
			t.Errorf("%s anonymous: expected 401, got %d", p, rec.Code)
		}
	}
}

func TestHandler_ListPatients(t *testing.T) {
	e, _ := newTestServer()

	rec := call(e, http.MethodGet, "/api/doctor/patients", "d1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	out := decode(t, rec)
	if out["count"] != float64(2) {
		t.Errorf("expected 2 patients, got %v", out["count"])
	}
	if strings.Contains(rec.Body.String(), "house@example.com") {
		t.Error("doctors must not be listed as patients")
	}
}

func TestHandler_GetPatient(t *testing.T) {
	e, _ := newTestServer()

	rec := call(e, http.MethodGet, "/api/doctor/patient/p1", "d1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	patient, _ := decode(t, rec)["patient"].(map[string]interface{})
	if patient["name"] != "Alice" {
		t.Errorf("unexpected patient %v", patient)
	}
	if _, ok := patient["role"]; ok {
		t.Error("summary must not expose role")
	}
}

func TestHandler_GetPatient_DoctorIDIsNotFound(t *testing.T) {
	e, _ := newTestServer()

	rec := call(e, http.MethodGet, "/api/doctor/patient/d1", "d1", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if decode(t, rec)["message"] != "Patient not found" {
		t.Errorf("unexpected body %s", rec.Body.String())
	}

	rec = call(e, http.MethodGet, "/api/doctor/patient/bad", "d1", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed id, got %d", rec.Code)
	}
}

func TestHandler_PatientReports(t *testing.T) {
	e, _ := newTestServer()

	rec := call(e, http.MethodGet, "/api/doctor/patient/p1/reports", "d1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	out := decode(t, rec)
	if out["count"] != float64(1) {
		t.Errorf("expected 1 report, got %v", out["count"])
	}
	if patient, _ := out["patient"].(map[string]interface{}); patient["id"] != "p1" {
		t.Errorf("unexpected patient %v", out["patient"])
	}

	rec = call(e, http.MethodGet, "/api/doctor/patient/p404/reports", "d1", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown patient, got %d", rec.Code)
	}
}

func TestHandler_AddNote(t *testing.T) {
	e, log := newTestServer()

	rec := call(e, http.MethodPost, "/api/doctor/patient/p1/notes", "d1", `{"note":"Take rest","prescription":"Paracetamol"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if decode(t, rec)["message"] != "Note added successfully" {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
	if len(log.added) != 1 || log.added[0].DoctorID != "d1" || log.added[0].PatientID != "p1" {
		t.Errorf("expected note by d1 for p1, got %+v", log.added)
	}

	rec = call(e, http.MethodPost, "/api/doctor/patient/p1/notes", "d1", `{"note":"  "}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	out := decode(t, rec)
	if out["message"] != "Validation failed" {
		t.Errorf("unexpected message %v", out["message"])
	}
	if errs, _ := out["errors"].([]interface{}); len(errs) != 1 {
		t.Errorf("expected one field error, got %v", out["errors"])
	}
}

func TestHandler_PatientNotes(t *testing.T) {
	e, _ := newTestServer()
	call(e, http.MethodPost, "/api/doctor/patient/p2/notes", "d1", `{"note":"Follow up in 2 weeks"}`)

	rec := call(e, http.MethodGet, "/api/doctor/patient/p2/notes", "d1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	out := decode(t, rec)
	if out["count"] != float64(1) {
		t.Errorf("expected 1 note, got %v", out["count"])
	}

	rec = call(e, http.MethodGet, "/api/doctor/patient/d1/notes", "d1", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for doctor id, got %d", rec.Code)
	}
}

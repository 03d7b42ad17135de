package identity

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medicarehub/api/internal/platform/auth"
	"github.com/medicarehub/api/internal/platform/middleware"
)

func newTestServer(t *testing.T) (*echo.Echo, *Service) {
	t.Helper()
	svc, _ := newTestService()
	e := echo.New()
	e.HTTPErrorHandler = middleware.ErrorHandler(zerolog.Nop(), false)

	authn := auth.JWTMiddleware(svc.tokens, svc)
	NewHandler(svc).RegisterRoutes(e.Group("/api"), authn)
	return e, svc
}

func doJSON(e *echo.Echo, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestHandler_Register(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doJSON(e, http.MethodPost, "/api/auth/register",
		`{"name":"Alice","email":"alice@example.com","password":"secret1","role":"patient"}`, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	if body["message"] != "User registered successfully" {
		t.Errorf("unexpected message %v", body["message"])
	}
	if tok, _ := body["token"].(string); tok == "" {
		t.Error("expected token in response")
	}
	user, _ := body["user"].(map[string]interface{})
	if user["email"] != "alice@example.com" || user["role"] != "patient" {
		t.Errorf("unexpected user %v", user)
	}
	if _, leaked := user["PasswordHash"]; leaked {
		t.Error("password hash must not be serialized")
	}
	if strings.Contains(rec.Body.String(), "$2a$") {
		t.Error("response leaks a bcrypt hash")
	}
}

func TestHandler_Register_Duplicate(t *testing.T) {
	e, _ := newTestServer(t)
	payload := `{"name":"Alice","email":"alice@example.com","password":"secret1"}`
	doJSON(e, http.MethodPost, "/api/auth/register", payload, "")

	rec := doJSON(e, http.MethodPost, "/api/auth/register", payload, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if decode(t, rec)["message"] != "User already exists" {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestHandler_Register_ValidationErrors(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doJSON(e, http.MethodPost, "/api/auth/register", `{"email":"x","password":"1"}`, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	body := decode(t, rec)
	if body["message"] != "Validation failed" {
		t.Errorf("unexpected message %v", body["message"])
	}
	if errs, _ := body["errors"].([]interface{}); len(errs) == 0 {
		t.Error("expected field errors")
	}
}

func TestHandler_Login(t *testing.T) {
	e, _ := newTestServer(t)
	doJSON(e, http.MethodPost, "/api/auth/register",
		`{"name":"Alice","email":"alice@example.com","password":"secret1"}`, "")

	rec := doJSON(e, http.MethodPost, "/api/auth/login", `{"email":"alice@example.com","password":"secret1"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if decode(t, rec)["message"] != "Login successful" {
		t.Errorf("unexpected body %s", rec.Body.String())
	}

	rec = doJSON(e, http.MethodPost, "/api/auth/login", `{"email":"alice@example.com","password":"nope"}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if decode(t, rec)["message"] != "Invalid credentials" {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestHandler_MeAndUpdate(t *testing.T) {
	e, svc := newTestServer(t)
	u := mustRegister(t, svc, "Dr. Bob", "bob@example.com", RoleDoctor)
	tok, _, err := svc.tokens.Issue(u.Principal())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	rec := doJSON(e, http.MethodGet, "/api/auth/me", "", tok)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	user, _ := decode(t, rec)["user"].(map[string]interface{})
	if user["id"] != string(u.ID) {
		t.Errorf("unexpected user %v", user)
	}

	rec = doJSON(e, http.MethodPut, "/api/auth/me", `{"specialization":"Neurology","role":"patient"}`, tok)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	user, _ = decode(t, rec)["user"].(map[string]interface{})
	if user["specialization"] != "Neurology" {
		t.Errorf("expected specialization update, got %v", user)
	}
	if user["role"] != "doctor" {
		t.Errorf("role must not change, got %v", user["role"])
	}
}

func TestHandler_Logout(t *testing.T) {
	e, svc := newTestServer(t)
	u := mustRegister(t, svc, "Alice", "alice@example.com", RolePatient)
	tok, _, _ := svc.tokens.Issue(u.Principal())

	rec := doJSON(e, http.MethodPost, "/api/auth/logout", "", tok)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestHandler_MeRequiresToken(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doJSON(e, http.MethodGet, "/api/auth/me", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	rec = doJSON(e, http.MethodGet, "/api/auth/me", "", "garbage")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestHandler_DeletedUserToken(t *testing.T) {
	svc, repo := newTestService()
	e := echo.New()
	e.HTTPErrorHandler = middleware.ErrorHandler(zerolog.Nop(), false)
	NewHandler(svc).RegisterRoutes(e.Group("/api"), auth.JWTMiddleware(svc.tokens, svc))

	u := mustRegister(t, svc, "Alice", "alice@example.com", RolePatient)
	tok, _, _ := svc.tokens.Issue(u.Principal())
	delete(repo.items, u.ID)

	rec := doJSON(e, http.MethodGet, "/api/auth/me", "", tok)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if decode(t, rec)["message"] != "user no longer exists" {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

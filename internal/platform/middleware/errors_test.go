package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medicarehub/api/internal/platform/apperr"
)

func serveError(t *testing.T, dev bool, method string, err error) (*httptest.ResponseRecorder, ErrorResponse) {
	t.Helper()
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler(zerolog.Nop(), dev)
	e.Add(method, "/x", func(c echo.Context) error { return err })

	req := httptest.NewRequest(method, "/x", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var body ErrorResponse
	if method != http.MethodHead {
		if decErr := json.Unmarshal(rec.Body.Bytes(), &body); decErr != nil {
			t.Fatalf("decode %q: %v", rec.Body.String(), decErr)
		}
	}
	return rec, body
}

func TestErrorHandler_AppErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"validation", apperr.Validation("Please upload a file"), 400, "Please upload a file"},
		{"unauthenticated", apperr.Unauthenticated("Invalid credentials"), 401, "Invalid credentials"},
		{"forbidden", apperr.Forbidden("Not authorized to access this report"), 403, "Not authorized to access this report"},
		{"not found", apperr.NotFound("Report not found"), 404, "Report not found"},
		{"wrapped", fmt.Errorf("get: %w", apperr.NotFound("Patient not found")), 404, "Patient not found"},
		{"echo error", echo.NewHTTPError(http.StatusForbidden, "required role: doctor"), 403, "required role: doctor"},
		{"plain", errors.New("disk on fire"), 500, "Server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := serveError(t, false, http.MethodGet, tt.err)
			if rec.Code != tt.status {
				t.Errorf("expected %d, got %d", tt.status, rec.Code)
			}
			if body.Message != tt.message {
				t.Errorf("expected message %q, got %q", tt.message, body.Message)
			}
			if body.Error != "" {
				t.Errorf("expected no error detail outside development, got %q", body.Error)
			}
		})
	}
}

func TestErrorHandler_ValidationFields(t *testing.T) {
	err := apperr.Validation("Validation failed", apperr.FieldError{Field: "note", Message: "Note is required"})
	rec, body := serveError(t, false, http.MethodPost, err)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if len(body.Errors) != 1 || body.Errors[0].Field != "note" {
		t.Errorf("expected field error for note, got %+v", body.Errors)
	}
}

func TestErrorHandler_DevelopmentDetail(t *testing.T) {
	_, body := serveError(t, true, http.MethodGet, apperr.Internal("Server error during upload", errors.New("disk full")))
	if body.Message != "Server error during upload" {
		t.Errorf("unexpected message %q", body.Message)
	}
	if body.Error != "disk full" {
		t.Errorf("expected error detail in development, got %q", body.Error)
	}

	_, body = serveError(t, true, http.MethodGet, errors.New("boom"))
	if body.Error != "boom" {
		t.Errorf("expected raw error in development, got %q", body.Error)
	}
}

func TestErrorHandler_RouteNotFound(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler(zerolog.Nop(), false)

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	var body ErrorResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Message != "Route not found" {
		t.Errorf("expected Route not found, got %q", body.Message)
	}
}

func TestErrorHandler_Head(t *testing.T) {
	rec, _ := serveError(t, false, http.MethodHead, apperr.NotFound("Report not found"))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("expected empty body for HEAD, got %q", rec.Body.String())
	}
}

package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medicarehub/api/internal/platform/auth"
)

// AuditEntry captures who touched which medical record, and how.
type AuditEntry struct {
	UserID     string
	Role       string
	Resource   string
	ResourceID string
	PatientID  string
	Action     string
	Method     string
	Path       string
	IPAddress  string
	UserAgent  string
	RequestID  string
	StatusCode int
	Timestamp  time.Time
}

// Audit logs a report_access event for every request under /api/reports and
// /api/doctor, after the handler has run. It is mounted on route groups so
// route parameters are already resolved.
func Audit(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if !isAuditablePath(req.URL.Path) {
				return next(c)
			}

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			entry := buildAuditEntry(c)
			evt := logger.Info()
			if entry.StatusCode == http.StatusForbidden {
				evt = logger.Warn()
			}
			evt.
				Str("type", "audit").
				Str("request_id", entry.RequestID).
				Str("user_id", entry.UserID).
				Str("role", entry.Role).
				Str("resource", entry.Resource).
				Str("resource_id", entry.ResourceID).
				Str("patient_id", entry.PatientID).
				Str("action", entry.Action).
				Str("method", entry.Method).
				Str("path", entry.Path).
				Str("remote_ip", entry.IPAddress).
				Int("status", entry.StatusCode).
				Msg("report_access")

			return nil
		}
	}
}

func buildAuditEntry(c echo.Context) AuditEntry {
	req := c.Request()
	p, _ := auth.PrincipalFromContext(req.Context())
	rid, _ := c.Get(RequestIDContextKey).(string)

	entry := AuditEntry{
		UserID:     p.ID,
		Role:       p.Role,
		Resource:   extractResource(req.URL.Path),
		Action:     actionFor(req.Method, req.URL.Path),
		Method:     req.Method,
		Path:       req.URL.Path,
		IPAddress:  c.RealIP(),
		UserAgent:  req.UserAgent(),
		RequestID:  rid,
		StatusCode: c.Response().Status,
		Timestamp:  time.Now().UTC(),
	}

	switch entry.Resource {
	case "reports":
		entry.ResourceID = c.Param("id")
		if p.IsPatient() {
			entry.PatientID = p.ID
		}
	case "doctor":
		entry.PatientID = c.Param("id")
	}
	return entry
}

func isAuditablePath(path string) bool {
	return strings.HasPrefix(path, "/api/reports") || strings.HasPrefix(path, "/api/doctor")
}

// actionFor maps a request to an audit action. File downloads are reported
// separately from metadata reads.
func actionFor(method, path string) string {
	switch method {
	case http.MethodGet, http.MethodHead:
		if strings.HasPrefix(path, "/api/reports/file/") {
			return "download"
		}
		return "read"
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return "read"
	}
}

// extractResource returns the first path segment below /api.
//   - /api/reports/abc      -> reports
//   - /api/doctor/patients  -> doctor
func extractResource(path string) string {
	rest := strings.TrimPrefix(path, "/api/")
	if rest == path {
		return "unknown"
	}
	if seg, _, _ := strings.Cut(rest, "/"); seg != "" {
		return seg
	}
	return "unknown"
}

package doctor

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medicarehub/api/internal/domain/identity"
	"github.com/medicarehub/api/internal/domain/notes"
	"github.com/medicarehub/api/internal/platform/auth"
	"github.com/medicarehub/api/internal/platform/middleware"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the doctor routes on g, which must already run the
// session guard. Every route requires the doctor role.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	doctorOnly := auth.RequireRole(auth.RoleDoctor)

	g.GET("/patients", h.ListPatients, doctorOnly)
	g.GET("/patient/:id", h.GetPatient, doctorOnly)
	g.GET("/patient/:id/reports", h.PatientReports, doctorOnly)
	g.POST("/patient/:id/notes", h.AddNote, doctorOnly)
	g.GET("/patient/:id/notes", h.PatientNotes, doctorOnly)
}

func (h *Handler) ListPatients(c echo.Context) error {
	patients, err := h.svc.ListPatients(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"count":    len(patients),
		"patients": patients,
	})
}

func (h *Handler) GetPatient(c echo.Context) error {
	patient, err := h.svc.GetPatient(c.Request().Context(), identity.UserID(c.Param("id")))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"patient": patient})
}

func (h *Handler) PatientReports(c echo.Context) error {
	patient, items, err := h.svc.PatientReports(c.Request().Context(), identity.UserID(c.Param("id")))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"patient": patient,
		"count":   len(items),
		"reports": items,
	})
}

func (h *Handler) AddNote(c echo.Context) error {
	var in notes.NewNote
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	in.Note = middleware.SanitizeString(in.Note)
	in.Prescription = middleware.SanitizeString(in.Prescription)

	ctx := c.Request().Context()
	view, err := h.svc.AddNote(ctx, identity.UserID(auth.UserIDFromContext(ctx)), identity.UserID(c.Param("id")), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message": "Note added successfully",
		"note":    view,
	})
}

func (h *Handler) PatientNotes(c echo.Context) error {
	patient, items, err := h.svc.PatientNotes(c.Request().Context(), identity.UserID(c.Param("id")))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"patient": patient,
		"count":   len(items),
		"notes":   items,
	})
}

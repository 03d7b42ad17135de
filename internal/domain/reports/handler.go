package reports

import (
	"errors"
	"mime"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/medicarehub/api/internal/platform/apperr"
	"github.com/medicarehub/api/internal/platform/auth"
	"github.com/medicarehub/api/internal/platform/middleware"
)

// FormField is the multipart field carrying the uploaded file.
const FormField = "report"

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the report routes on g. authn runs per route so an
// unknown path under g is a 404 rather than a 401.
func (h *Handler) RegisterRoutes(g *echo.Group, authn echo.MiddlewareFunc) {
	patientOnly := auth.RequireRole(auth.RolePatient)
	anyRole := auth.RequireRole(auth.RolePatient, auth.RoleDoctor)

	g.POST("/upload", h.Upload, authn, patientOnly, middleware.UploadLimit(h.svc.MaxSize()))
	g.GET("", h.List, authn, patientOnly)
	g.GET("/file/:id", h.File, authn, anyRole)
	g.GET("/:id", h.Get, authn, anyRole)
	g.DELETE("/:id", h.Delete, authn, patientOnly)
}

func principal(c echo.Context) (auth.Principal, error) {
	p, ok := auth.PrincipalFromContext(c.Request().Context())
	if !ok {
		return auth.Principal{}, echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	return p, nil
}

func (h *Handler) Upload(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	fh, err := c.FormFile(FormField)
	if err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return he
		}
		return apperr.Validation("Please upload a file")
	}

	f, err := fh.Open()
	if err != nil {
		return apperr.Internal("Server error during upload", err)
	}
	defer f.Close()

	view, err := h.svc.Upload(c.Request().Context(), p, Upload{
		OriginalName: fh.Filename,
		ContentType:  fh.Header.Get(echo.HeaderContentType),
		Size:         fh.Size,
		Remarks:      middleware.SanitizeString(c.FormValue("remarks")),
		Body:         f,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message": "Report uploaded successfully",
		"report":  view,
	})
}

func (h *Handler) List(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	items, err := h.svc.ListForPatient(c.Request().Context(), p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"count":   len(items),
		"reports": items,
	})
}

func (h *Handler) Get(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	view, err := h.svc.Get(c.Request().Context(), p, ReportID(c.Param("id")))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"report": view})
}

// File streams the stored bytes inline with the recorded MIME type.
func (h *Handler) File(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	rep, rc, err := h.svc.OpenFile(c.Request().Context(), p, ReportID(c.Param("id")))
	if err != nil {
		return err
	}
	defer rc.Close()

	hdr := c.Response().Header()
	hdr.Set(echo.HeaderContentDisposition, mime.FormatMediaType("inline", map[string]string{"filename": rep.OriginalName}))
	if rep.FileSize > 0 {
		hdr.Set(echo.HeaderContentLength, strconv.FormatInt(rep.FileSize, 10))
	}
	return c.Stream(http.StatusOK, rep.FileType, rc)
}

func (h *Handler) Delete(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), p, ReportID(c.Param("id"))); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Report deleted successfully"})
}

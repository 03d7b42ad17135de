package main

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/medicarehub/api/internal/config"
	"github.com/medicarehub/api/internal/domain/doctor"
	"github.com/medicarehub/api/internal/domain/identity"
	"github.com/medicarehub/api/internal/domain/notes"
	"github.com/medicarehub/api/internal/domain/reports"
	"github.com/medicarehub/api/internal/platform/auth"
	"github.com/medicarehub/api/internal/platform/blobstore"
	"github.com/medicarehub/api/internal/platform/db"
	"github.com/medicarehub/api/internal/platform/middleware"
)

// bcryptCost 0 selects bcrypt.DefaultCost.
var bcryptCost = 0

// repositories is one backend's set of stores.
type repositories struct {
	users   identity.Repository
	reports reports.Repository
	notes   notes.Repository
}

type services struct {
	tokens   *auth.TokenIssuer
	identity *identity.Service
	reports  *reports.Service
	doctor   *doctor.Service
}

func newServices(cfg *config.Config, repos repositories, store blobstore.Store, logger zerolog.Logger) *services {
	tokens := auth.NewTokenIssuer([]byte(cfg.JWTSecret), cfg.JWTExpiresIn)
	identitySvc := identity.NewService(repos.users, auth.NewPasswordHasher(bcryptCost), tokens)
	reportSvc := reports.NewService(repos.reports, identitySvc, store, cfg.MaxFileSize, logger)
	noteSvc := notes.NewService(repos.notes, identitySvc)

	return &services{
		tokens:   tokens,
		identity: identitySvc,
		reports:  reportSvc,
		doctor:   doctor.NewService(identitySvc, reportSvc, noteSvc),
	}
}

// newRouter builds the echo instance with global middleware, health routes
// and every /api group.
func newRouter(cfg *config.Config, svc *services, logger zerolog.Logger, checks ...db.Check) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.ErrorHandler(logger, cfg.IsDev())

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.Sanitize(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders:     []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		AllowCredentials: true,
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})
	e.GET("/health/db", db.HealthHandler(checks...))

	api := e.Group("/api")
	api.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "OK",
			"message": "Medicare Hub API is running",
		})
	})

	authn := auth.JWTMiddleware(svc.tokens, svc.identity)
	audit := middleware.Audit(logger)

	identity.NewHandler(svc.identity).RegisterRoutes(api.Group("", middleware.BodyLimit("1M")), authn)
	reports.NewHandler(svc.reports).RegisterRoutes(api.Group("/reports", audit), authn)
	doctor.NewHandler(svc.doctor).RegisterRoutes(api.Group("/doctor", audit, authn, middleware.BodyLimit("1M")))

	return e
}

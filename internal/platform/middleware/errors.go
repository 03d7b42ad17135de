package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medicarehub/api/internal/platform/apperr"
)

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Message string              `json:"message"`
	Errors  []apperr.FieldError `json:"errors,omitempty"`
	Error   string              `json:"error,omitempty"`
}

// ErrorHandler renders apperr and echo errors as {"message": ...}. Internal
// error detail is only exposed when dev is true.
func ErrorHandler(logger zerolog.Logger, dev bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := renderError(err, dev)
		if status >= http.StatusInternalServerError {
			rid, _ := c.Get(RequestIDContextKey).(string)
			logger.Error().Err(err).
				Str("request_id", rid).
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Msg("request failed")
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(status)
		} else {
			writeErr = c.JSON(status, body)
		}
		if writeErr != nil {
			logger.Error().Err(writeErr).Msg("failed to write error response")
		}
	}
}

func renderError(err error, dev bool) (int, ErrorResponse) {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		status := ae.Kind.HTTPStatus()
		body := ErrorResponse{Message: ae.Message, Errors: ae.Fields}
		if status >= http.StatusInternalServerError {
			if body.Message == "" {
				body.Message = "Server error"
			}
			if dev && ae.Err != nil {
				body.Error = ae.Err.Error()
			}
		}
		return status, body
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Code == http.StatusNotFound && errors.Is(he, echo.ErrNotFound) {
			return http.StatusNotFound, ErrorResponse{Message: "Route not found"}
		}
		body := ErrorResponse{Message: fmt.Sprint(he.Message)}
		if he.Code >= http.StatusInternalServerError && dev && he.Internal != nil {
			body.Error = he.Internal.Error()
		}
		return he.Code, body
	}

	body := ErrorResponse{Message: "Server error"}
	if dev {
		body.Error = err.Error()
	}
	return http.StatusInternalServerError, body
}

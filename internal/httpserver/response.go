package httpserver

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/portfolio/internal/apperr"
	"github.com/Skotchmaster/portfolio/internal/repo"
	"github.com/Skotchmaster/portfolio/pkg/logging"
)

type Meta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// Envelope is the body of every JSON response.
type Envelope struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Data    any                 `json:"data"`
	Meta    *Meta               `json:"meta,omitempty"`
	Errors  []apperr.FieldError `json:"errors,omitempty"`
}

func respond(c echo.Context, status int, msg string, data any) error {
	return c.JSON(status, Envelope{Success: true, Message: msg, Data: data})
}

func respondPage[T any](c echo.Context, msg string, p repo.Page[T]) error {
	return c.JSON(http.StatusOK, Envelope{
		Success: true,
		Message: msg,
		Data:    p.Items,
		Meta:    &Meta{Page: p.Page, Limit: p.Limit, Total: p.Total, TotalPages: p.TotalPages},
	})
}

// ErrorHandler renders every error as an envelope. Known kinds keep their
// message; anything else is a 500 whose text is hidden in production.
func ErrorHandler(production bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := classify(err, production)
		if status >= http.StatusInternalServerError {
			logging.FromContext(c.Request().Context()).Error("request_error", "status", status, "error", err)
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, body)
	}
}

func classify(err error, production bool) (int, Envelope) {
	var (
		verr *apperr.ValidationError
		aerr *apperr.Error
		herr *echo.HTTPError
	)
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, Envelope{Message: "Validation failed", Errors: verr.Fields}
	case errors.As(err, &aerr):
		status, _ := apperr.Status(aerr)
		return status, Envelope{Message: aerr.Error()}
	case errors.As(err, &herr):
		msg := http.StatusText(herr.Code)
		if s, ok := herr.Message.(string); ok && s != "" {
			msg = s
		}
		if herr.Code >= http.StatusInternalServerError && production {
			msg = "Internal server error"
		}
		return herr.Code, Envelope{Message: msg}
	}

	if status, ok := apperr.Status(err); ok {
		return status, Envelope{Message: err.Error()}
	}
	msg := "Internal server error"
	if !production {
		msg = fmt.Sprintf("Internal server error: %v", err)
	}
	return http.StatusInternalServerError, Envelope{Message: msg}
}

// bind decodes the request into dst and validates it.
func bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		logging.FromContext(c.Request().Context()).Warn("bind_failed", "status", 400, "error", err)
		return apperr.New(apperr.ErrValidation, "Invalid request body")
	}
	return c.Validate(dst)
}

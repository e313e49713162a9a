package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gogpu/dotmap"
	"github.com/gogpu/dotmap/canvas"
	"github.com/gogpu/dotmap/internal/dotfile"
)

// APIError is the JSON body of every error response.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewBadRequestError creates a 400 Bad Request error
func NewBadRequestError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusBadRequest,
		Code:    "BAD_REQUEST",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// NewNotFoundError creates a 404 Not Found error
func NewNotFoundError(resource string, id string) *APIError {
	return &APIError{
		Status:  http.StatusNotFound,
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s not found: %s", resource, id),
	}
}

// NewInternalError creates a 500 Internal Server Error
func NewInternalError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusInternalServerError,
		Code:    "INTERNAL_ERROR",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// renderError classifies an error from building or rendering a map.
func renderError(err error) *APIError {
	var capErr *canvas.CapabilityError
	switch {
	case errors.As(err, &capErr):
		return &APIError{
			Status:  http.StatusBadRequest,
			Code:    "UNSUPPORTED_FORMAT",
			Message: capErr.Error(),
		}
	case errors.Is(err, dotmap.ErrUnknownProjection):
		return &APIError{
			Status:  http.StatusUnprocessableEntity,
			Code:    "UNKNOWN_PROJECTION",
			Message: "map projection is not supported",
			Details: err.Error(),
		}
	case errors.Is(err, dotmap.ErrInvalidArea),
		errors.Is(err, dotmap.ErrInvalidStyle),
		errors.Is(err, canvas.ErrUnknownColor),
		errors.Is(err, dotfile.ErrNoPosition):
		return &APIError{
			Status:  http.StatusBadRequest,
			Code:    "VALIDATION_ERROR",
			Message: "invalid render request",
			Details: err.Error(),
		}
	case errors.Is(err, dotmap.ErrMissingImage):
		return NewNotFoundError("map image", err.Error())
	}
	return NewInternalError("render failed", err)
}

// ErrorHandler writes every handler error as an APIError.
// Usage: e.HTTPErrorHandler = ErrorHandler
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var apiErr *APIError
	var httpErr *echo.HTTPError
	switch {
	case errors.As(err, &apiErr):
	case errors.As(err, &httpErr):
		apiErr = &APIError{
			Status:  httpErr.Code,
			Code:    "HTTP_ERROR",
			Message: fmt.Sprintf("%v", httpErr.Message),
		}
		if httpErr.Code == http.StatusRequestEntityTooLarge {
			apiErr.Code = "BODY_TOO_LARGE"
		}
	default:
		apiErr = &APIError{
			Status:  http.StatusInternalServerError,
			Code:    "UNKNOWN_ERROR",
			Message: "An unexpected error occurred",
		}
	}

	if apiErr.Status >= http.StatusInternalServerError {
		slog.Error("request failed",
			"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
			"method", c.Request().Method,
			"path", c.Path(),
			"error", err)
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(apiErr.Status)
		return
	}
	_ = c.JSON(apiErr.Status, apiErr)
}

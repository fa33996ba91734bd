package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"propcore/internal/apperr"
	"propcore/internal/http/middleware"
	"propcore/internal/service"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// writeError writes a standardized JSON error response without leaking internal errors.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "INVALID_ID", "NOT_FOUND", "INTERNAL_ERROR")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string) error {
	res := errorPayload{
		RequestID: requestIDFromCtx(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	}
	return c.Status(status).JSON(res)
}

// presentReadError maps service errors on read paths. Forbidden is presented
// as 404 so existence of private data is not leaked to unauthorized callers.
func presentReadError(c *fiber.Ctx, err error) error {
	if errors.Is(err, apperr.ErrNotFound) || errors.Is(err, apperr.ErrForbidden) {
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "resource not found")
	}
	return presentCommonError(c, err)
}

// presentWriteError maps service errors on write paths. Unlike reads,
// Forbidden and NotFound are distinguishable: a caller attempting a write has
// already been told the resource exists or supplied its ID.
func presentWriteError(c *fiber.Ctx, err error) error {
	if errors.Is(err, apperr.ErrForbidden) {
		return writeError(c, fiber.StatusForbidden, "FORBIDDEN", "operation not permitted")
	}
	if errors.Is(err, apperr.ErrNotFound) {
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "resource not found")
	}
	return presentCommonError(c, err)
}

func presentCommonError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, apperr.ErrConflict):
		return writeError(c, fiber.StatusConflict, "CONFLICT", "request conflicts with current state")
	case errors.Is(err, apperr.ErrUpstream):
		return writeError(c, fiber.StatusBadGateway, "UPSTREAM_UNAVAILABLE", "upstream provider unavailable")
	case isValidationError(err):
		return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", err.Error())
	default:
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

// isValidationError reports whether err is one of the service input errors,
// which are safe to echo back to the caller.
func isValidationError(err error) bool {
	for _, v := range []error{
		service.ErrIDRequired,
		service.ErrPrincipalRequired,
		service.ErrReaderNil,
		service.ErrInvalidVisibility,
		service.ErrInvalidTier,
		service.ErrTitleRequired,
		service.ErrAddressRequired,
		service.ErrInvalidEntityType,
		service.ErrUnknownProvider,
	} {
		if errors.Is(err, v) {
			return true
		}
	}
	return false
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		default:
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}

package server

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/DharanidharanDD007/Enterprise-Document-Q-A-Assistant/internal/engine"
	"github.com/DharanidharanDD007/Enterprise-Document-Q-A-Assistant/internal/extract"
	"github.com/DharanidharanDD007/Enterprise-Document-Q-A-Assistant/internal/index"
	"github.com/DharanidharanDD007/Enterprise-Document-Q-A-Assistant/internal/llm"
	"github.com/DharanidharanDD007/Enterprise-Document-Q-A-Assistant/internal/registry"
)

// Error is the JSON body every failing endpoint returns.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"error"`
}

func (e Error) Error() string {
	return e.Message
}

func NewError(code int, msg string) Error {
	return Error{Code: code, Message: msg}
}

func ErrBadRequest(msg string) Error {
	return Error{Code: fiber.StatusBadRequest, Message: msg}
}

// ValidationError reports per-field failures from request validation.
type ValidationError struct {
	Status int               `json:"status"`
	Errors map[string]string `json:"errors"`
}

func (e ValidationError) Error() string {
	return "validation failed"
}

func NewValidationError(errors map[string]string) ValidationError {
	return ValidationError{
		Status: fiber.StatusUnprocessableEntity,
		Errors: errors,
	}
}

// fromDomain translates engine and storage failures into transport codes.
// Unrecognized errors become an opaque 500 so internals never leak to
// clients.
func fromDomain(err error) Error {
	switch {
	case errors.Is(err, index.ErrEmptyIndex):
		return NewError(fiber.StatusNotFound, "no documents have been indexed yet")
	case errors.Is(err, registry.ErrNotFound):
		return NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, extract.ErrUnsupportedFormat):
		return NewError(fiber.StatusUnsupportedMediaType, err.Error())
	case errors.Is(err, engine.ErrSizeExceeded):
		return NewError(fiber.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, extract.ErrCorruptFile):
		return NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, registry.ErrConflict):
		return NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, engine.ErrGraphParse),
		errors.Is(err, llm.ErrUnavailable),
		errors.Is(err, llm.ErrTimeout),
		errors.Is(err, llm.ErrEmptyOutput),
		errors.Is(err, index.ErrEmbeddingFailure),
		errors.Is(err, index.ErrUnreachable):
		return NewError(fiber.StatusBadGateway, err.Error())
	default:
		return NewError(fiber.StatusInternalServerError, "internal server error")
	}
}

// NewErrorHandler builds the fiber error handler that renders every
// handler error as the {error, code} body.
func NewErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var apiErr Error
		if errors.As(err, &apiErr) {
			return c.Status(apiErr.Code).JSON(apiErr)
		}

		var valErr ValidationError
		if errors.As(err, &valErr) {
			return c.Status(valErr.Status).JSON(valErr)
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(NewError(fiberErr.Code, fiberErr.Message))
		}

		apiErr = fromDomain(err)
		if apiErr.Code >= fiber.StatusInternalServerError {
			logger.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
		}
		return c.Status(apiErr.Code).JSON(apiErr)
	}
}

package utils

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

const (
	// StatusSuccess marks envelopes describing a completed operation.
	StatusSuccess = "success"
	// StatusError marks envelopes describing a failed operation.
	StatusError = "error"
)

// APIResponse describes the common structure for API responses.
type APIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// SendSuccess sends a successful JSON response with a message.
func SendSuccess(c *fiber.Ctx, message string, data interface{}) error {
	return SendSuccessWithStatus(c, fiber.StatusOK, message, data)
}

// SendSuccessWithStatus sends a success payload using the provided HTTP status code.
func SendSuccessWithStatus(c *fiber.Ctx, status int, message string, data interface{}) error {
	if message == "" {
		message = "success"
	}
	if status == 0 {
		status = fiber.StatusOK
	}

	return c.Status(status).JSON(APIResponse{
		Status:  StatusSuccess,
		Message: message,
		Data:    data,
	})
}

// SendError sends an error JSON response with the given status code.
func SendError(c *fiber.Ctx, status int, message string) error {
	if message == "" {
		message = "error"
	}

	return c.Status(status).JSON(APIResponse{
		Status:  StatusError,
		Message: message,
	})
}

// ErrorHandler is the terminal Fiber error handler. Errors reaching it were not
// mapped by a handler, so only *fiber.Error keeps its status and message.
func ErrorHandler(logger zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		message := "internal server error"

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			status = fiberErr.Code
			if status < fiber.StatusInternalServerError {
				message = fiberErr.Message
			}
		}

		event := logger.Warn()
		if status >= fiber.StatusInternalServerError {
			event = logger.Error()
		}
		event.Err(err).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Interface("correlation_id", c.Locals("correlation_id")).
			Int("status", status).
			Msg("request failed")

		return SendError(c, status, message)
	}
}

// NotFound answers requests that matched no route.
func NotFound(c *fiber.Ctx) error {
	return SendError(c, fiber.StatusNotFound, "Route not found")
}

package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/quizhub-api/internal/dto"
	"github.com/noah-isme/quizhub-api/internal/service"
	"github.com/noah-isme/quizhub-api/internal/utils"
)

// MockTestHandler exposes the mock test session endpoints.
type MockTestHandler struct {
	service service.MockTestService
	logger  zerolog.Logger
}

// NewMockTestHandler constructs a mock test handler.
func NewMockTestHandler(service service.MockTestService, logger zerolog.Logger) *MockTestHandler {
	return &MockTestHandler{
		service: service,
		logger:  logger.With().Str("component", "mock_test_handler").Logger(),
	}
}

// Register wires mock test routes under the provided group.
func (h *MockTestHandler) Register(router fiber.Router) {
	router.Get("/", h.start)
	router.Post("/submit", h.submit)
	router.Get("/history", h.history)
	router.Get("/:sessionId", h.detail)
}

func (h *MockTestHandler) start(c *fiber.Ctx) error {
	session, err := h.service.Start(requestContext(c), userIDFromContext(c), c.Query("course"))
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "Mock test started", session)
}

func (h *MockTestHandler) submit(c *fiber.Ctx) error {
	var payload dto.MockTestSubmitRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, invalidPayloadMessage)
	}

	result, err := h.service.Submit(requestContext(c), userIDFromContext(c), payload)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "Mock test submitted", result)
}

func (h *MockTestHandler) history(c *fiber.Ctx) error {
	entries, err := h.service.History(requestContext(c), userIDFromContext(c))
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "Mock test history retrieved", entries)
}

func (h *MockTestHandler) detail(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "sessionId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid session id")
	}

	detail, err := h.service.Detail(requestContext(c), actorFromContext(c), id)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "Mock test session retrieved", detail)
}

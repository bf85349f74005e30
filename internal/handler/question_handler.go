package handler

import (
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/quizhub-api/internal/dto"
	"github.com/noah-isme/quizhub-api/internal/service"
	"github.com/noah-isme/quizhub-api/internal/utils"
)

const maxImportSize = 4 << 20

// QuestionHandler exposes the question bank endpoints.
type QuestionHandler struct {
	service service.QuestionService
	logger  zerolog.Logger
}

// NewQuestionHandler constructs a question handler.
func NewQuestionHandler(service service.QuestionService, logger zerolog.Logger) *QuestionHandler {
	return &QuestionHandler{
		service: service,
		logger:  logger.With().Str("component", "question_handler").Logger(),
	}
}

// Register wires question routes; adminOnly guards bank mutations.
func (h *QuestionHandler) Register(router fiber.Router, adminOnly fiber.Handler) {
	router.Get("/", h.list)
	router.Get("/favourite", h.listFavorites)
	router.Patch("/favourite/:id", h.toggleFavorite)
	router.Post("/solve", h.solve)
	router.Post("/", adminOnly, h.create)
	router.Post("/batch", adminOnly, h.createBatch)
	router.Post("/import", adminOnly, h.importFile)
	router.Put("/:id", adminOnly, h.update)
	router.Delete("/:id", adminOnly, h.delete)
}

func (h *QuestionHandler) list(c *fiber.Ctx) error {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}

	result, err := h.service.List(requestContext(c), actorFromContext(c), dto.QuestionListRequest{
		Page:   page,
		Limit:  limit,
		Search: c.Query("search"),
		Tags:   splitAndTrim(c.Query("tags")),
		Course: c.Query("course"),
	})
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "Questions retrieved", result)
}

func (h *QuestionHandler) create(c *fiber.Ctx) error {
	var payload dto.QuestionCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, invalidPayloadMessage)
	}

	question, err := h.service.Create(requestContext(c), actorFromContext(c), payload)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "Question added successfully", question)
}

func (h *QuestionHandler) createBatch(c *fiber.Ctx) error {
	var payload dto.QuestionBatchRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, invalidPayloadMessage)
	}

	result, err := h.service.CreateBatch(requestContext(c), actorFromContext(c), payload)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "Questions added successfully", result)
}

func (h *QuestionHandler) importFile(c *fiber.Ctx) error {
	header, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "file is required")
	}
	if header.Size > maxImportSize {
		return utils.SendError(c, fiber.StatusRequestEntityTooLarge, "import file is too large")
	}

	file, err := header.Open()
	if err != nil {
		return handleError(c, h.logger, err)
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, maxImportSize))
	if err != nil {
		return handleError(c, h.logger, err)
	}

	result, err := h.service.Import(requestContext(c), actorFromContext(c), header.Filename, content)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "Questions imported successfully", result)
}

func (h *QuestionHandler) update(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid question id")
	}

	var payload dto.QuestionUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, invalidPayloadMessage)
	}

	question, err := h.service.Update(requestContext(c), id, payload)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "Question updated successfully", question)
}

func (h *QuestionHandler) delete(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid question id")
	}

	if err := h.service.Delete(requestContext(c), id); err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "Question deleted successfully", nil)
}

func (h *QuestionHandler) solve(c *fiber.Ctx) error {
	var payload dto.QuestionSolveRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, invalidPayloadMessage)
	}

	result, err := h.service.Solve(requestContext(c), payload)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "Answer checked", result)
}

func (h *QuestionHandler) toggleFavorite(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid question id")
	}

	result, err := h.service.ToggleFavorite(requestContext(c), userIDFromContext(c), id)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	message := "Question removed from favorites."
	if result.IsFavorited {
		message = "Question added to favorites."
	}
	return utils.SendSuccess(c, message, result)
}

func (h *QuestionHandler) listFavorites(c *fiber.Ctx) error {
	questions, err := h.service.ListFavorites(requestContext(c), userIDFromContext(c))
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "Favorite questions retrieved", questions)
}

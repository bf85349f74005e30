package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/quizhub-api/internal/dto"
	"github.com/noah-isme/quizhub-api/internal/middleware"
	"github.com/noah-isme/quizhub-api/internal/service"
	"github.com/noah-isme/quizhub-api/internal/utils"
)

// CommunityHandler exposes communities, membership and chat including the websocket stream.
type CommunityHandler struct {
	service service.CommunityService
	logger  zerolog.Logger
}

// NewCommunityHandler constructs a community handler.
func NewCommunityHandler(service service.CommunityService, logger zerolog.Logger) *CommunityHandler {
	return &CommunityHandler{
		service: service,
		logger:  logger.With().Str("component", "community_handler").Logger(),
	}
}

// Register wires community routes; adminOnly guards community administration.
func (h *CommunityHandler) Register(router fiber.Router, adminOnly fiber.Handler) {
	router.Get("/", h.list)
	router.Get("/all", adminOnly, h.listAll)
	router.Post("/", adminOnly, h.create)
	router.Put("/:communityId/join", h.join)
	router.Delete("/:communityId/join", h.leave)
	router.Post("/:communityId/chat", h.postMessage)
	router.Get("/:communityId/messages", h.messages)
	router.Get("/:communityId/ws", h.upgrade, websocket.New(h.stream))
	router.Put("/:communityId", adminOnly, h.update)
	router.Delete("/:communityId", adminOnly, h.delete)
}

func (h *CommunityHandler) list(c *fiber.Ctx) error {
	result, err := h.service.List(requestContext(c), userIDFromContext(c))
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "Communities retrieved", result)
}

func (h *CommunityHandler) listAll(c *fiber.Ctx) error {
	result, err := h.service.ListAll(requestContext(c))
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "Communities retrieved", result)
}

func (h *CommunityHandler) create(c *fiber.Ctx) error {
	var payload dto.CommunityCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, invalidPayloadMessage)
	}

	community, err := h.service.Create(requestContext(c), actorFromContext(c), payload)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "Community created.", community)
}

func (h *CommunityHandler) update(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "communityId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid community id")
	}

	var payload dto.CommunityUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, invalidPayloadMessage)
	}

	community, err := h.service.Update(requestContext(c), id, payload)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "Community updated.", community)
}

func (h *CommunityHandler) delete(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "communityId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid community id")
	}

	if err := h.service.Delete(requestContext(c), id); err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "Community deleted.", nil)
}

func (h *CommunityHandler) join(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "communityId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid community id")
	}

	if err := h.service.Join(requestContext(c), userIDFromContext(c), id); err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "You have joined the community.", nil)
}

func (h *CommunityHandler) leave(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "communityId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid community id")
	}

	if err := h.service.Leave(requestContext(c), userIDFromContext(c), id); err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "You have left the community.", nil)
}

func (h *CommunityHandler) postMessage(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "communityId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid community id")
	}

	var payload dto.ChatPostRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, invalidPayloadMessage)
	}

	message, err := h.service.PostMessage(requestContext(c), userIDFromContext(c), id, payload)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "Message posted.", message)
}

func (h *CommunityHandler) messages(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "communityId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid community id")
	}

	query := dto.ChatHistoryQuery{}
	if before := c.Query("before"); before != "" {
		parsed, err := time.Parse(time.RFC3339, before)
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid before timestamp")
		}
		query.Before = &parsed
	}
	if query.Limit, err = parseQueryInt(c, "limit"); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}

	messages, err := h.service.Messages(requestContext(c), actorFromContext(c), id, query)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "Messages retrieved", messages)
}

// upgrade authorises the stream before the websocket handshake so failures still get an envelope.
func (h *CommunityHandler) upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	id, err := parseIDParam(c, "communityId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid community id")
	}
	if err := h.service.AuthorizeStream(requestContext(c), actorFromContext(c), id); err != nil {
		return handleError(c, h.logger, err)
	}

	c.Locals("community_id", id)
	return c.Next()
}

func (h *CommunityHandler) stream(conn *websocket.Conn) {
	userID, _ := conn.Locals("user_id").(uint)
	role, _ := conn.Locals("user_role").(string)
	communityID, _ := conn.Locals("community_id").(uint)
	correlationID, _ := conn.Locals("correlation_id").(string)

	opts := service.CommunityStreamOptions{
		Actor:       service.Actor{ID: userID, Role: role},
		CommunityID: communityID,
		Context:     middleware.ContextWithCorrelation(context.Background(), correlationID),
	}

	logger := h.logger.With().
		Uint("user_id", userID).
		Uint("community_id", communityID).
		Str("correlation_id", correlationID).
		Logger()
	logger.Info().Msg("community websocket connected")
	h.service.ServeConnection(conn, opts)
	logger.Info().Msg("community websocket disconnected")
}

package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/quizhub-api/internal/dto"
	"github.com/noah-isme/quizhub-api/internal/service"
	"github.com/noah-isme/quizhub-api/internal/utils"
)

const refreshCookieName = "refresh_token"

// AuthHandler exposes signup, login and token lifecycle endpoints.
type AuthHandler struct {
	service      service.AuthService
	cookieSecure bool
	logger       zerolog.Logger
}

// NewAuthHandler constructs an auth handler.
func NewAuthHandler(service service.AuthService, cookieSecure bool, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		service:      service,
		cookieSecure: cookieSecure,
		logger:       logger.With().Str("component", "auth_handler").Logger(),
	}
}

// Register wires auth routes. limiter guards the credential endpoints.
func (h *AuthHandler) Register(router fiber.Router, limiter fiber.Handler) {
	router.Post("/signup", limiter, h.signup)
	router.Post("/login", limiter, h.login)
	router.Post("/refresh-token", h.refresh)
	router.Post("/logout", h.logout)
}

func (h *AuthHandler) signup(c *fiber.Ctx) error {
	var payload dto.SignupRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, invalidPayloadMessage)
	}

	user, err := h.service.Signup(requestContext(c), payload)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "User registered successfully", user)
}

func (h *AuthHandler) login(c *fiber.Ctx) error {
	var payload dto.LoginRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, invalidPayloadMessage)
	}

	result, err := h.service.Login(requestContext(c), payload)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	h.setRefreshCookie(c, result.RefreshToken, result.RefreshExpiresAt)
	return utils.SendSuccess(c, "Login successful", result.Response)
}

func (h *AuthHandler) refresh(c *fiber.Ctx) error {
	result, err := h.service.Refresh(requestContext(c), c.Cookies(refreshCookieName))
	if err != nil {
		return handleError(c, h.logger, err)
	}

	h.setRefreshCookie(c, result.RefreshToken, result.RefreshExpiresAt)
	return utils.SendSuccess(c, "Token refreshed", dto.TokenResponse{Token: result.AccessToken})
}

func (h *AuthHandler) logout(c *fiber.Ctx) error {
	if err := h.service.Logout(requestContext(c), c.Cookies(refreshCookieName)); err != nil {
		return handleError(c, h.logger, err)
	}

	h.setRefreshCookie(c, "", time.Unix(0, 0))
	return utils.SendSuccess(c, "Logged out successfully", nil)
}

func (h *AuthHandler) setRefreshCookie(c *fiber.Ctx, value string, expires time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     refreshCookieName,
		Value:    value,
		Path:     "/api/v1/auth",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   h.cookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

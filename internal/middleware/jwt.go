package middleware

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"gorm.io/gorm"

	"github.com/noah-isme/quizhub-api/internal/models"
	"github.com/noah-isme/quizhub-api/internal/service"
	"github.com/noah-isme/quizhub-api/internal/utils"
)

// UserLookup resolves the account behind a verified token.
type UserLookup func(ctx context.Context, id uint) (models.User, error)

// JWTProtected validates bearer access tokens and loads the caller. Websocket
// upgrades may pass the token as a "token" query parameter instead.
func JWTProtected(secret string, lookup UserLookup) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := bearerToken(c)
		if tokenString == "" && websocket.IsWebSocketUpgrade(c) {
			tokenString = strings.TrimSpace(c.Query("token"))
		}
		if tokenString == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "Access denied. No token provided.")
		}

		claims, err := service.ParseToken(tokenString, secret)
		if err != nil {
			return utils.SendError(c, fiber.StatusUnauthorized, "Invalid or expired token.")
		}

		userID, err := strconv.ParseUint(claims.Subject, 10, 64)
		if err != nil || userID == 0 {
			return utils.SendError(c, fiber.StatusUnauthorized, "Invalid or expired token.")
		}

		user, err := lookup(c.UserContext(), uint(userID))
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.SendError(c, fiber.StatusNotFound, "User not found.")
			}
			return err
		}

		c.Locals("user_id", user.ID)
		c.Locals("user_role", strings.ToLower(user.Role))
		c.Locals("user", user)

		return c.Next()
	}
}

func bearerToken(c *fiber.Ctx) string {
	authorization := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	const bearer = "bearer "
	if len(authorization) <= len(bearer) || !strings.EqualFold(authorization[:len(bearer)], bearer) {
		return ""
	}
	return strings.TrimSpace(authorization[len(bearer):])
}

package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/quizhub-api/internal/config"
	"github.com/noah-isme/quizhub-api/internal/dto"
	"github.com/noah-isme/quizhub-api/internal/service"
	"github.com/noah-isme/quizhub-api/internal/utils"
)

type testEnvelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func perform(t *testing.T, app *fiber.App, path string) (int, testEnvelope) {
	t.Helper()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil), -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var env testEnvelope
	require.NoError(t, json.Unmarshal(body, &env))
	return resp.StatusCode, env
}

func TestStatusForKind(t *testing.T) {
	cases := map[error]int{
		service.ErrValidation:   fiber.StatusBadRequest,
		service.ErrUnauthorized: fiber.StatusUnauthorized,
		service.ErrForbidden:    fiber.StatusForbidden,
		service.ErrNotFound:     fiber.StatusNotFound,
		service.ErrConflict:     fiber.StatusConflict,
		errors.New("other"):     fiber.StatusInternalServerError,
	}
	for kind, status := range cases {
		require.Equal(t, status, statusForKind(kind), kind.Error())
	}
}

func TestHandleErrorMapsFailures(t *testing.T) {
	validate := utils.NewValidator()

	app := fiber.New()
	app.Get("/service", func(c *fiber.Ctx) error {
		return handleError(c, zerolog.Nop(), service.ErrAlreadyMember)
	})
	app.Get("/validation", func(c *fiber.Ctx) error {
		return handleError(c, zerolog.Nop(), validate.Struct(dto.LoginRequest{Email: "nope", Password: "x"}))
	})
	app.Get("/internal", func(c *fiber.Ctx) error {
		return handleError(c, zerolog.Nop(), errors.New("pq: connection reset"))
	})

	status, env := perform(t, app, "/service")
	require.Equal(t, fiber.StatusConflict, status)
	require.Equal(t, "You are already a member of this community.", env.Message)
	require.Equal(t, "error", env.Status)

	status, env = perform(t, app, "/validation")
	require.Equal(t, fiber.StatusBadRequest, status)
	require.Equal(t, "email must be a valid email address", env.Message)

	status, env = perform(t, app, "/internal")
	require.Equal(t, fiber.StatusInternalServerError, status)
	require.Equal(t, "internal server error", env.Message)
	require.NotContains(t, env.Message, "pq")
}

func TestParseHelpers(t *testing.T) {
	require.Equal(t, []string{"math", "physics"}, splitAndTrim(" math, ,physics "))

	app := fiber.New()
	app.Get("/items/:id", func(c *fiber.Ctx) error {
		id, err := parseIDParam(c, "id")
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid id")
		}
		limit, err := parseQueryInt(c, "limit")
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
		}
		return utils.SendSuccess(c, "ok", fiber.Map{"id": id, "limit": limit})
	})

	status, _ := perform(t, app, "/items/12?limit=5")
	require.Equal(t, fiber.StatusOK, status)

	status, env := perform(t, app, "/items/0")
	require.Equal(t, fiber.StatusBadRequest, status)
	require.Equal(t, "invalid id", env.Message)

	status, env = perform(t, app, "/items/3?limit=abc")
	require.Equal(t, fiber.StatusBadRequest, status)
	require.Equal(t, "invalid limit", env.Message)
}

func TestHealthCheckReportsComponents(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:health_handler?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	mini, err := miniredis.Run()
	require.NoError(t, err)
	defer mini.Close()
	client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	defer client.Close()

	cfg := config.Config{AppName: "QuizHub API", AppEnv: "test"}

	app := fiber.New()
	app.Get("/health", HealthCheck(cfg, HealthDependencies{DB: db, Redis: client}))

	status, env := perform(t, app, "/health")
	require.Equal(t, fiber.StatusOK, status)
	require.Equal(t, "service healthy", env.Message)

	var payload HealthResponse
	require.NoError(t, json.Unmarshal(env.Data, &payload))
	require.Equal(t, "ok", payload.Status)
	require.Equal(t, "QuizHub API", payload.Service)
	require.Equal(t, map[string]string{"database": "up", "redis": "up", "nats": "disabled"}, payload.Components)

	mini.Close()
	status, env = perform(t, app, "/health")
	require.Equal(t, fiber.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &payload))
	require.Equal(t, "down", payload.Components["redis"])
}

func TestHealthCheckDegradesWithoutDatabase(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:health_handler_closed?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	app := fiber.New()
	app.Get("/health", HealthCheck(config.Config{AppName: "QuizHub API"}, HealthDependencies{DB: db}))

	status, env := perform(t, app, "/health")
	require.Equal(t, fiber.StatusServiceUnavailable, status)
	require.Equal(t, "service degraded", env.Message)
}

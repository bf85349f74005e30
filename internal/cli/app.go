package cli

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/quizhub-api/internal/config"
	"github.com/noah-isme/quizhub-api/internal/handler"
	"github.com/noah-isme/quizhub-api/internal/middleware"
	"github.com/noah-isme/quizhub-api/internal/repository"
	"github.com/noah-isme/quizhub-api/internal/router"
	"github.com/noah-isme/quizhub-api/internal/service"
	"github.com/noah-isme/quizhub-api/internal/utils"
)

// infrastructure holds the connections shared by every component. Redis and NATS are optional.
type infrastructure struct {
	DB    *gorm.DB
	Redis *redis.Client
	NATS  *nats.Conn
}

type application struct {
	App      *fiber.App
	Realtime *service.CommunityRealtime
}

func buildApp(cfg config.Config, infra infrastructure, logger zerolog.Logger) application {
	validate := utils.NewValidator()

	userRepo := repository.NewUserRepository(infra.DB)
	questionRepo := repository.NewQuestionRepository(infra.DB)
	sessionRepo := repository.NewMockTestRepository(infra.DB)
	communityRepo := repository.NewCommunityRepository(infra.DB)
	chatRepo := repository.NewChatRepository(infra.DB)

	pool := service.NewQuestionPool(questionRepo, infra.Redis, cfg.QuestionPoolTTL, logger)
	realtime := service.NewCommunityRealtime(infra.Redis, infra.NATS, cfg.RealtimeChannel, logger)

	authService := service.NewAuthService(userRepo, infra.Redis, service.TokenSettings{
		AccessSecret:  cfg.JWTSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
		AccessTTL:     cfg.AccessTokenTTL,
		RefreshTTL:    cfg.RefreshTokenTTL,
	}, validate, logger)
	userService := service.NewUserService(userRepo, validate, logger)
	questionService := service.NewQuestionService(questionRepo, pool, validate, logger)
	mockTestService := service.NewMockTestService(sessionRepo, questionRepo, pool, cfg.MockTest, validate, logger)
	communityService := service.NewCommunityService(communityRepo, chatRepo, userRepo, realtime, validate, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		ErrorHandler: utils.ErrorHandler(logger),
		BodyLimit:    6 << 20,
	})

	middleware.Register(app, middleware.Config{
		Logger:        &logger,
		AllowOrigins:  cfg.CORSOrigins,
		AccessLogging: !strings.EqualFold(cfg.AppEnv, "test"),
	})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:      handler.NewAuthHandler(authService, cfg.CookieSecure, logger),
		UserHandler:      handler.NewUserHandler(userService, logger),
		QuestionHandler:  handler.NewQuestionHandler(questionService, logger),
		MockTestHandler:  handler.NewMockTestHandler(mockTestService, logger),
		CommunityHandler: handler.NewCommunityHandler(communityService, logger),
		Health: handler.HealthDependencies{
			DB:    infra.DB,
			Redis: infra.Redis,
			NATS:  infra.NATS,
		},
		JWTMiddleware: middleware.JWTProtected(cfg.JWTSecret, userRepo.GetByID),
		AuthLimiter:   middleware.RateLimit("auth", cfg.AuthRateLimit, time.Minute),
	})

	return application{App: app, Realtime: realtime}
}

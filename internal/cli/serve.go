package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/noah-isme/quizhub-api/internal/config"
	"github.com/noah-isme/quizhub-api/internal/database"
)

func newServeCmd(envFile *string) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(envFiles(*envFile)...)
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			if port != "" {
				cfg.AppPort = port
			}
			return runServer(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "port to listen on (overrides QUIZHUB_APP_PORT)")
	return cmd
}

func runServer(parent context.Context, cfg config.Config) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := newLogger(cfg)

	infra, cleanup, err := connectInfrastructure(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := database.Migrate(ctx, infra.DB); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	built := buildApp(cfg, infra, logger)
	built.Realtime.Start(ctx)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().Str("address", cfg.HTTPAddress()).Msg("starting http server")
		serverErr <- built.App.Listen(cfg.HTTPAddress())
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := built.App.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

// connectInfrastructure opens Postgres and, when configured, Redis and NATS.
// Optional backends that fail to connect are logged and left nil.
func connectInfrastructure(ctx context.Context, cfg config.Config, logger zerolog.Logger) (infrastructure, func(), error) {
	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		return infrastructure{}, nil, fmt.Errorf("connect database: %w", err)
	}

	infra := infrastructure{DB: db}
	closers := []func(){}

	if cfg.RedisURL != "" {
		client, err := database.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, continuing without cache and pub/sub")
		} else {
			infra.Redis = client
			closers = append(closers, func() { closeRedis(client, logger) })
		}
	}

	if cfg.NATSURL != "" {
		conn, err := database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable, continuing without cross-node chat")
		} else {
			infra.NATS = conn
			closers = append(closers, func() { closeNATS(conn, logger) })
		}
	}

	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return infra, cleanup, nil
}

func closeRedis(client *redis.Client, logger zerolog.Logger) {
	if err := client.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
		logger.Warn().Err(err).Msg("failed to close redis client")
	}
}

func closeNATS(conn *nats.Conn, logger zerolog.Logger) {
	if err := conn.Drain(); err != nil {
		logger.Warn().Err(err).Msg("failed to drain nats connection")
		conn.Close()
	}
}

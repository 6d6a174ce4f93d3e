package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/inihikam/ngobrol/internal/api"
	"github.com/inihikam/ngobrol/internal/api/middleware"
	"github.com/inihikam/ngobrol/internal/auth"
	"github.com/inihikam/ngobrol/internal/config"
	"github.com/inihikam/ngobrol/internal/handlers"
	"github.com/inihikam/ngobrol/internal/service"
	"github.com/inihikam/ngobrol/internal/store"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	var logger zerolog.Logger
	if cfg.IsDevelopment() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Logger()
	} else {
		logger = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Logger()
	}

	ctx := context.Background()

	// Run migrations
	if cfg.DatabaseURL == "" {
		logger.Fatal().Msg("DATABASE_URL is required")
	}
	logger.Info().Msg("running database migrations...")
	if err := store.RunMigrations(ctx, cfg.DatabaseURL); err != nil {
		logger.Fatal().Err(err).Msg("migration failed")
	}
	logger.Info().Msg("migrations completed")

	// Initialize PostgreSQL store
	pgStore, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connection failed")
	}
	defer pgStore.Close()
	logger.Info().Msg("connected to PostgreSQL")

	// Initialize Redis store (optional outside production)
	var redisStore *store.RedisStore
	if cfg.RedisURL != "" {
		redisStore, err = store.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis connection failed")
		}
		defer redisStore.Close()
		logger.Info().Msg("connected to Redis")
	}

	// Wire services
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.JWTTTL)
	var presence service.PresenceCache
	if redisStore != nil {
		presence = redisStore
	}
	authService := service.NewAuthService(pgStore.Users(), tokens, presence, logger)
	roomService := service.NewRoomService(pgStore.Rooms(), logger)

	h := handlers.NewHandler(authService, roomService, logger)
	if redisStore != nil {
		h.WithHealthChecks(pgStore, redisStore)
	} else {
		h.WithHealthChecks(pgStore, nil)
	}
	gateway := middleware.NewAuthMiddleware(authService)

	router := api.NewRouter(logger, h, gateway)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("env", cfg.Env).
			Msg("starting ngobrol server")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server stopped")
}

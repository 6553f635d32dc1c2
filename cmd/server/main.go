package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/stockmatch/backend/config"
	"github.com/stockmatch/backend/internal/app"
	httpDelivery "github.com/stockmatch/backend/internal/delivery/http"
	"github.com/stockmatch/backend/internal/infrastructure/logging"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stdout)

	logger.Info().
		Str("version", httpDelivery.Version).
		Str("environment", cfg.Server.Environment).
		Str("port", cfg.Server.Port).
		Msg("starting stockmatch")

	engine, err := app.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build matching engine")
	}
	defer func() {
		if err := engine.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to release resources")
		}
	}()

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(engine.Matcher, engine.Batch, engine.Registry, logger)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler, logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server listening")
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("server failed")
		}
	case sig := <-shutdown:
		logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error().Err(err).Msg("graceful shutdown failed")
			_ = srv.Close()
		}
	}

	logger.Info().Msg("server stopped")
}

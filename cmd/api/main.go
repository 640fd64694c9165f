package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/emicklei/go-restful/v3"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/opentoolhub/search-agent/internal/api"
	"github.com/opentoolhub/search-agent/internal/api/middleware"
	"github.com/opentoolhub/search-agent/internal/setup"
	setuplogger "github.com/opentoolhub/search-agent/internal/setup/logger"
)

func main() {
	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load env
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("No .env file found")
	}

	cfg := setup.LoadConfig()
	logger := setuplogger.New(cfg.LogLevel)

	ctx := context.Background()

	deps, err := setup.Wire(ctx, cfg, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	defer deps.Close()

	// API
	handler := api.NewHandler(deps.Gate, deps.Normalizer, deps.Store, deps.Orchestrator, deps.Sink, &logger)
	container := restful.NewContainer()
	container.Filter(middleware.Logger(&logger))
	container.Filter(middleware.RecoverPanic(&logger))
	api.RegisterRoutes(container, handler, middleware.RateLimit(deps.Limiter, &logger))

	addr := fmt.Sprintf(":%s", cfg.Port)
	logger.Info().Str("address", addr).Msg("Starting tool search API")

	server := http.Server{
		Addr:    addr,
		Handler: api.CORS(container),
	}

	if err := server.ListenAndServe(); err != nil {
		logger.Fatal().Err(err).Msg("Server failed")
	}
}

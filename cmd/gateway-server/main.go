package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/healthbridge/hl7-fhir-gateway/internal/config"
	"github.com/healthbridge/hl7-fhir-gateway/internal/domain/conversion"
	"github.com/healthbridge/hl7-fhir-gateway/internal/platform/auth"
	"github.com/healthbridge/hl7-fhir-gateway/internal/platform/converter"
	"github.com/healthbridge/hl7-fhir-gateway/internal/platform/middleware"
	"github.com/healthbridge/hl7-fhir-gateway/internal/platform/normalizer"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "gateway-server",
		Short: "HL7v2 to FHIR conversion gateway",
	}

	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the conversion gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		logger = logger.Level(level)
	}

	// Upstream converter
	var conv converter.Converter
	if cfg.ConverterURL != "" {
		conv = converter.NewRemote(cfg.ConverterURL, cfg.ConverterTimeoutDuration(), logger)
		logger.Info().Str("url", cfg.ConverterURL).Msg("using remote converter")
	} else {
		conv = converter.NewBaseline(logger)
		logger.Info().Msg("using built-in baseline converter")
	}

	svc := conversion.NewService(conv, normalizer.New(logger), logger)
	handler := conversion.NewHandler(svc, logger)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.BodyLimit(cfg.BodyLimitBytes))

	if cfg.AuthSecret != "" {
		e.Use(auth.Bearer(auth.Config{
			Secret:  []byte(cfg.AuthSecret),
			Skipper: auth.Skipper,
		}))
	} else if !cfg.IsDev() {
		logger.Warn().Msg("AUTH_SECRET not set, convert endpoint is unauthenticated")
	}

	// Health check
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})

	handler.RegisterRoutes(e.Group("/api"))

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

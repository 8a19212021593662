package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chi_middleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/ringbridge/ringbridge/internal/platform/config"
	"github.com/ringbridge/ringbridge/internal/platform/database"
	"github.com/ringbridge/ringbridge/internal/platform/logger"
	"github.com/ringbridge/ringbridge/internal/platform/messagebroker"

	campapp "github.com/ringbridge/ringbridge/internal/campaign/app"
	"github.com/ringbridge/ringbridge/internal/campaign/repository/postgres"
	"github.com/ringbridge/ringbridge/internal/telephony/bootstrap"
	webhookapp "github.com/ringbridge/ringbridge/internal/webhook/app"
	webhookhttp "github.com/ringbridge/ringbridge/internal/webhook/transport/http"
)

const (
	serviceName     = "webhook_service"
	shutdownTimeout = 10 * time.Second
)

func main() {
	mainCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(serviceName)
	if err != nil {
		slog.Error("Failed to load configuration", "service", serviceName, "error", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.LogLevel).With("service", serviceName)
	appLogger.Info("Starting service...")

	dbPool, err := database.NewDBPool(mainCtx, cfg.PostgresDSN, appLogger)
	if err != nil {
		appLogger.Error("Failed to initialize database connection pool", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	nc, err := messagebroker.NewNATSClient(cfg.NATSUrl, appLogger, serviceName)
	if err != nil {
		appLogger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer nc.Close()

	dispatcher, err := bootstrap.BuildDispatcher(cfg, appLogger)
	if err != nil {
		appLogger.Error("Failed to build telephony dispatcher", "error", err)
		os.Exit(1)
	}

	ringerRepo := postgres.NewPgRingerRepository(dbPool, appLogger)
	ringRepo := postgres.NewPgRingRepository(dbPool, appLogger)
	tagRepo := postgres.NewPgTagRepository(dbPool, appLogger)
	assignedRepo := postgres.NewPgAssignedNumberRepository(dbPool, appLogger)
	campaignRepo := postgres.NewPgCampaignRepository(dbPool, appLogger)
	broadcastRepo := postgres.NewPgBroadcastRepository(dbPool, appLogger)

	ringService := campapp.NewRingService(ringerRepo, ringRepo, assignedRepo, nc, appLogger)
	introService := campapp.NewIntroService(campaignRepo, dispatcher, appLogger)
	broadcastService := campapp.NewBroadcastService(
		campaignRepo, ringRepo, ringerRepo, assignedRepo, broadcastRepo, nc, appLogger)

	pipeline := webhookapp.NewPipeline(dispatcher, ringService, introService, appLogger)

	validate := validator.New()
	webhookHandler := webhookhttp.NewWebhookHandler(pipeline, appLogger)
	adminHandler := webhookhttp.NewAdminHandler(
		dispatcher, assignedRepo, ringerRepo, tagRepo, broadcastService, validate, appLogger)

	router := chi.NewRouter()
	router.Use(chi_middleware.RequestID)
	router.Use(chi_middleware.RealIP)
	router.Use(chi_middleware.Recoverer)
	webhookHandler.RegisterRoutes(router)
	adminHandler.RegisterRoutes(router)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.WebhookServicePort),
		Handler: router,
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.WebhookServiceMetricsPort),
		Handler: metricsMux,
	}

	g, groupCtx := errgroup.WithContext(mainCtx)

	g.Go(func() error {
		appLogger.Info("HTTP server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		appLogger.Info("Metrics server listening", "addr", metricsServer.Addr)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-groupCtx.Done()
		appLogger.Info("Shutdown signal received, stopping servers...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			appLogger.Error("HTTP server shutdown error", "error", err)
		}
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			appLogger.Error("Metrics server shutdown error", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		appLogger.Error("Service exited with error", "error", err)
		os.Exit(1)
	}
	appLogger.Info("Service stopped")
}

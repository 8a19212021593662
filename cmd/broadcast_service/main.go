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

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/ringbridge/ringbridge/internal/platform/config"
	"github.com/ringbridge/ringbridge/internal/platform/database"
	"github.com/ringbridge/ringbridge/internal/platform/logger"
	"github.com/ringbridge/ringbridge/internal/platform/messagebroker"

	broadcastapp "github.com/ringbridge/ringbridge/internal/broadcast/app"
	campdomain "github.com/ringbridge/ringbridge/internal/campaign/domain"
	"github.com/ringbridge/ringbridge/internal/campaign/repository/postgres"
	"github.com/ringbridge/ringbridge/internal/telephony/bootstrap"
)

const (
	serviceName     = "broadcast_service"
	queueGroup      = "broadcast_workers"
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

	broadcastRepo := postgres.NewPgBroadcastRepository(dbPool, appLogger)
	consumer := broadcastapp.NewJobConsumer(nc, dispatcher, broadcastRepo, appLogger)

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.BroadcastServiceMetricsPort),
		Handler: metricsMux,
	}

	g, groupCtx := errgroup.WithContext(mainCtx)

	g.Go(func() error {
		appLogger.Info("Starting broadcast job consumer", "subject", campdomain.BroadcastJobSubject, "queue_group", queueGroup)
		return consumer.StartConsuming(groupCtx, campdomain.BroadcastJobSubject, queueGroup)
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
		appLogger.Info("Shutdown signal received, stopping...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

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

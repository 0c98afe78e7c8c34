package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"weather-history/internal/analyzer"
	"weather-history/internal/config"
	"weather-history/internal/fetch"
	"weather-history/internal/handlers"
	"weather-history/internal/services"
	"weather-history/internal/storage"
	"weather-history/pkg/database"
	"weather-history/pkg/logging"
	"weather-history/pkg/metrics"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := logging.NewStructuredLogger(cfg.Logging.Service, cfg.Logging.Version, cfg.Logging.Level)
	defer logger.Sync()

	ctx := context.Background()
	logger.Info(ctx, "[STARTUP] Starting weather history API server", logging.Fields{
		"server_host": cfg.Server.Host,
		"server_port": cfg.Server.Port,
		"database":    cfg.Mongo.Database,
		"provider":    cfg.Fetch.Provider,
	})

	// Initialize metrics collector
	metricsCollector := metrics.NewCollector("weather_history")

	// Open storage: document store when reachable, in-memory otherwise.
	// Backend unavailability is not fatal.
	store := storage.Open(ctx, &database.Config{
		URI:            cfg.Mongo.URI,
		Database:       cfg.Mongo.Database,
		ConnectTimeout: cfg.Mongo.ConnectTimeout,
	}, logger, metricsCollector)
	defer store.Close(ctx)

	// Initialize upstream fetcher
	httpClient := &http.Client{Timeout: cfg.Fetch.RequestTimeout}

	var fetcher fetch.Fetcher
	switch cfg.Fetch.Provider {
	case "wttr.in":
		fetcher = fetch.NewWttrFetcher(httpClient, logger, metricsCollector)
	default:
		fetcher = fetch.NewOpenMeteoFetcher(httpClient, logger, metricsCollector)
	}

	// Initialize services
	ingestionService := services.NewIngestionService(store, fetcher, logger, metricsCollector)
	reportService := services.NewReportService(
		store,
		analyzer.New(analyzer.WithStableThreshold(cfg.Analyzer.StableThreshold)),
		logger,
		metricsCollector,
	)

	// Initialize handlers
	observationHandler := handlers.NewObservationHandler(store, ingestionService, logger, metricsCollector)
	reportHandler := handlers.NewReportHandler(reportService, logger, metricsCollector)

	// Setup router
	router := mux.NewRouter()

	// Register routes
	observationHandler.RegisterRoutes(router)
	reportHandler.RegisterRoutes(router)

	// API documentation
	router.HandleFunc("/api/docs/openapi.json", handlers.OpenAPISpec).Methods("GET")
	router.HandleFunc("/api/docs", handlers.SwaggerUI).Methods("GET")

	// Prometheus metrics endpoint
	router.Handle("/metrics", promhttp.Handler())

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info(ctx, "[SERVER_START] HTTP server listening", logging.Fields{
			"address": server.Addr,
		})

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(ctx, "[SERVER_ERROR] Server failed", logging.Fields{}, err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info(ctx, "[SHUTDOWN] Shutting down server...", logging.Fields{})

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "[SHUTDOWN_ERROR] Server forced to shutdown", logging.Fields{}, err)
	}

	logger.Info(ctx, "[SHUTDOWN_COMPLETE] Server stopped", logging.Fields{})
}

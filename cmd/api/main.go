package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/adisantoso/klinika-platform/internal/api/router"
	"github.com/adisantoso/klinika-platform/internal/app/bootstrap"
	"github.com/adisantoso/klinika-platform/internal/bridging"
	appconfig "github.com/adisantoso/klinika-platform/internal/config"
	"github.com/adisantoso/klinika-platform/internal/encounter"
	"github.com/adisantoso/klinika-platform/internal/observability/metrics"
	"github.com/adisantoso/klinika-platform/internal/satusehat"
	"github.com/adisantoso/klinika-platform/pkg/logging"
)

func main() {
	// Load .env in development; in production the environment is already set.
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting klinika-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	pool, err := bootstrap.BuildDBPool(ctx, cfg)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)

	tokens, err := satusehat.NewCachedTokenSource(satusehat.TokenConfig{
		AuthURL:      cfg.SatuSehatAuthURL,
		ClientID:     cfg.SatuSehatClientID,
		ClientSecret: cfg.SatuSehatClientSecret,
		TTL:          cfg.TokenCacheTTL,
		Timeout:      cfg.RequestTimeout,
		Redis:        redisClient,
		Logger:       logger,
	})
	if err != nil {
		logger.Error("failed to build token source", "error", err)
		os.Exit(1)
	}

	gateway, err := satusehat.New(satusehat.Config{
		BaseURL: cfg.SatuSehatBaseURL,
		Tokens:  tokens,
		Timeout: cfg.RequestTimeout,
		Logger:  logger,
	})
	if err != nil {
		logger.Error("failed to build platform client", "error", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	bridgeMetrics := metrics.NewBridgeMetrics(registry)

	visits := encounter.NewRepository(pool)
	mappings := bridging.NewMappingStore(pool, gateway, logger)
	links := bridging.NewLinkStore(pool)

	bridger, err := bridging.New(bridging.Config{
		Gateway:  gateway,
		Visits:   visits,
		Mappings: mappings,
		Links:    links,
		OrgID:    cfg.SatuSehatOrgID,
		Logger:   logger,
		Metrics:  bridgeMetrics,
	})
	if err != nil {
		logger.Error("failed to build bridging orchestrator", "error", err)
		os.Exit(1)
	}

	routerCfg := &router.Config{
		Logger:             logger,
		BridgingHandler:    bridging.NewHandler(bridger, logger),
		AdminHandler:       bridging.NewAdminHandler(mappings, logger),
		AdminAuthSecret:    cfg.AdminJWTSecret,
		MetricsHandler:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	}
	r := router.New(routerCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute, // a bridging run makes many upstream calls
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

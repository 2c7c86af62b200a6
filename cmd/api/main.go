package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bimakw/amm-gateway/internal/config"
	"github.com/bimakw/amm-gateway/internal/connectors"
	"github.com/bimakw/amm-gateway/internal/connectors/registry"
	"github.com/bimakw/amm-gateway/internal/infrastructure/cache"
	"github.com/bimakw/amm-gateway/internal/infrastructure/ethereum"
	"github.com/bimakw/amm-gateway/internal/presentation/handlers"
)

const (
	version = "0.3.0"
)

func main() {
	cfg, err := config.Load(getEnv("GATEWAY_CONFIG", ""))
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.Server.LogLevel)}))
	slog.SetDefault(logger)

	// Initialize cache
	var cacheClient cache.Cache
	if cfg.Redis.Addr != "" {
		redisCache, err := cache.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Warn("failed to connect to redis, using in-memory cache", "addr", cfg.Redis.Addr, "error", err)
			cacheClient = cache.NewInMemoryCache()
		} else {
			defer redisCache.Close()
			cacheClient = redisCache
			logger.Info("connected to redis", "addr", cfg.Redis.Addr)
		}
	} else {
		cacheClient = cache.NewInMemoryCache()
		logger.Info("using in-memory cache")
	}

	keystore, err := ethereum.NewKeystore(cfg.WalletKeys)
	if err != nil {
		logger.Error("failed to load wallet keys", "error", err)
		os.Exit(1)
	}
	logger.Info("wallets loaded", "count", keystore.Len())

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	deps := registry.Dependencies{
		Config:  cfg,
		Cache:   cacheClient,
		Metrics: connectors.NewMetrics(reg),
		Logger:  logger,
	}
	manager := registry.NewManager(
		registry.ChainsFromConfig(deps),
		registry.ConnectorsFromConfig(deps),
		registry.WithLogger(logger),
	)

	wallets := func(address common.Address) (connectors.Signer, bool) {
		wallet, ok := keystore.Get(address)
		if !ok {
			return nil, false
		}
		return wallet, true
	}

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(version, manager.Statuses)
	ammHandler := handlers.NewAMMHandler(manager, wallets)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.Server.Timeout()))
	r.Use(corsMiddleware)

	// Routes
	r.Get("/health", healthHandler.Health)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	r.Route("/api/v1/amm", func(r chi.Router) {
		r.Post("/price", ammHandler.Price)
		r.Post("/trade", ammHandler.Trade)
	})

	// Start server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Server.Timeout() + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		logger.Info("starting AMM gateway", "version", version, "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
		return
	}
	logger.Info("server stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

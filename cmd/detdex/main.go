package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kestrel-sec/detdex/internal/config"
	"github.com/kestrel-sec/detdex/internal/es"
	"github.com/kestrel-sec/detdex/internal/es/eshttp"
	logpkg "github.com/kestrel-sec/detdex/internal/logger"
	"github.com/kestrel-sec/detdex/internal/metrics"
	indexrepo "github.com/kestrel-sec/detdex/internal/repository/index"
	"github.com/kestrel-sec/detdex/internal/repository/rescache"
	searchrepo "github.com/kestrel-sec/detdex/internal/repository/search"
	suggestrepo "github.com/kestrel-sec/detdex/internal/repository/suggest"
	"github.com/kestrel-sec/detdex/internal/resilience"
	chiTransport "github.com/kestrel-sec/detdex/internal/transport/chi"
	healthuc "github.com/kestrel-sec/detdex/internal/usecase/health"
	indexuc "github.com/kestrel-sec/detdex/internal/usecase/index"
	searchuc "github.com/kestrel-sec/detdex/internal/usecase/search"
	suggestuc "github.com/kestrel-sec/detdex/internal/usecase/suggest"
	"github.com/kestrel-sec/detdex/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting detdex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("backend_addrs", cfg.Backend.Addrs),
		zap.String("index", cfg.Index.Name),
		zap.String("cache_driver", cfg.Cache.Driver),
	)

	backend, err := eshttp.NewClient(eshttp.Config{
		Addrs:    cfg.Backend.Addrs,
		Username: cfg.Backend.Username,
		Password: cfg.Backend.Password,
		Timeout:  time.Duration(cfg.Backend.TimeoutSec) * time.Second,
	})
	if err != nil {
		logger.Fatal("Failed to create backend client", zap.Error(err))
	}
	defer backend.Close()

	// Wait for the backend to be ready
	ctx := context.Background()
	if err := backend.WaitForReady(ctx, time.Duration(cfg.Backend.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Backend not ready", zap.Error(err))
	}
	logger.Info("Connected to search backend")

	// Register search metrics explicitly (no init())
	metrics.RegisterSearchMetrics()

	// Result cache driver
	cacheTTL := time.Duration(cfg.Cache.TTLSec) * time.Second
	var cache searchuc.Cache
	switch cfg.Cache.Driver {
	case "memory":
		cache = rescache.NewMemory(cacheTTL)
	case "redis":
		redisCache, err := rescache.NewRedis(rescache.RedisConfig{
			Addrs:    cfg.Cache.Addrs,
			Username: cfg.Cache.Username,
			Password: cfg.Cache.Password,
		}, cfg.Cache.KeyPrefix, cacheTTL, logger)
		if err != nil {
			logger.Fatal("Failed to create redis cache", zap.Error(err))
		}
		defer redisCache.Close()
		cache = redisCache
	default:
		logger.Fatal("Unknown cache driver", zap.String("driver", cfg.Cache.Driver))
	}

	// One breaker and retryer per backend dependency, shared by all call paths.
	breaker := resilience.NewBreaker(
		"search-backend",
		cfg.Resilience.FailureThreshold,
		time.Duration(cfg.Resilience.ResetAfterSec)*time.Second,
		logger,
	)
	retry := resilience.NewRetryer(
		cfg.Resilience.MaxAttempts,
		time.Duration(cfg.Resilience.BackoffBaseSec)*time.Second,
		time.Duration(cfg.Resilience.BackoffCapSec)*time.Second,
		es.IsTransient,
		logger,
	)

	// Repositories
	searchRepo := searchrepo.New(backend)
	if cfg.Index.Profile {
		searchRepo = searchRepo.WithProfiling()
	}
	suggestRepo := suggestrepo.New(backend)
	indexRepo := indexrepo.New(backend)

	// Use case services
	searchSvc := searchuc.New(searchRepo, cache, breaker, retry, cfg.Index.Name, logger)
	suggestSvc := suggestuc.New(suggestRepo, breaker, retry, cfg.Index.Name, logger)
	indexSvc := indexuc.New(indexRepo, cache, breaker, retry, cfg.Index.Name, logger)
	healthSvc := healthuc.New(backend, indexRepo, cfg.Index.Name)

	// Readiness: verify cluster health and create the index schema if absent.
	if err := indexSvc.EnsureReady(ctx); err != nil {
		logger.Fatal("Index not ready", zap.Error(err))
	}
	logger.Info("Detection index ready", zap.String("index", cfg.Index.Name))

	server := chiTransport.NewServer(searchSvc, suggestSvc, indexSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	server.Register(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}

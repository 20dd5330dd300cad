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

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"mapportal/database"
	"mapportal/internal/config"
	"mapportal/internal/microservices/http-api/handler"
	"mapportal/internal/microservices/http-api/middleware"
	"mapportal/internal/microservices/http-api/repository"
	"mapportal/internal/microservices/http-api/service"
	"mapportal/internal/storage"
)

func main() {
	if err := run(); err != nil {
		slog.Error("api server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("could not load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	// 2. Connect to the database
	db, err := database.ConnectDB(cfg, logger)
	if err != nil {
		return err
	}
	defer database.Close(db)

	files, err := storage.NewFileStore(cfg.UploadDir, cfg.MaxUploadSize, cfg.AllowedFileExtensions)
	if err != nil {
		return err
	}

	// 3. Wire repositories, services and handlers
	paging := service.Pagination{DefaultPageSize: cfg.DefaultPageSize, MaxPageSize: cfg.MaxPageSize}
	userRepo := repository.NewUserRepository(db)
	mapRepo := repository.NewMapRepo(db)
	ratingRepo := repository.NewRatingRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	authService := service.NewAuthService(userRepo, files, cfg, logger)
	mapService := service.NewMapService(mapRepo, userRepo, files, paging, logger)
	ratingService := service.NewRatingService(ratingRepo, mapRepo, paging, logger)
	commentService := service.NewCommentService(commentRepo, mapRepo, paging, logger)

	limiter, closeLimiter := newLimiter(cfg, logger)
	defer closeLimiter()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handler.NewRouter(handler.Handlers{
		Auth:     handler.NewAuthHandler(authService),
		Maps:     handler.NewMapHandler(mapService, cfg.MaxUploadSize),
		Ratings:  handler.NewRatingHandler(ratingService, cfg.DefaultPageSize),
		Comments: handler.NewCommentHandler(commentService),
	}, handler.Middleware{
		Auth:      middleware.AuthMiddleware(authService),
		RateLimit: middleware.RateLimit(limiter, logger),
		Global: []gin.HandlerFunc{
			middleware.RequestLogger(logger),
			middleware.CORS(cfg.CORSOrigins),
		},
	})
	if cfg.PrometheusEnabled {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 4. Serve until SIGINT/SIGTERM, then drain in-flight requests
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server listening", "addr", srv.Addr, "env", cfg.GoEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

// newLimiter prefers the shared Redis limiter and falls back to an
// in-process one when REDIS_URL is unset or unreachable.
func newLimiter(cfg *config.Config, logger *slog.Logger) (middleware.Limiter, func()) {
	local := middleware.NewLocalLimiter(cfg.RateLimitPerMinute)
	if cfg.RedisURL == "" {
		return local, func() {}
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Warn("invalid REDIS_URL, using in-process rate limiter", "error", err)
		return local, func() {}
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unreachable, using in-process rate limiter", "error", err)
		client.Close()
		return local, func() {}
	}

	logger.Info("using redis rate limiter")
	return middleware.NewRedisLimiter(client, cfg.RateLimitPerMinute), func() { client.Close() }
}

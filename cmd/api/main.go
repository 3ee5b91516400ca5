package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/gin-gonic/gin"

	"task-api/cache"
	"task-api/config"
	"task-api/handlers"
	"task-api/service"
	"task-api/store"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger := cfg.NewLogger()
	gin.SetMode(gin.ReleaseMode)

	ctx := context.Background()
	db, err := store.Open(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to open store", "driver", cfg.Database.Driver, "error", err)
		os.Exit(1)
	}
	logger.Info("store ready", "driver", db.Driver())

	opts := []service.Option{service.WithLogger(logger)}
	var taskCache *cache.TaskListCache
	if cfg.RedisAddr != "" {
		taskCache, err = cache.Connect(ctx, cfg.RedisAddr, cfg.CacheTTL)
		if err != nil {
			// The cache is optional; serve straight from the store.
			logger.Warn("task list cache disabled", "error", err)
		} else {
			opts = append(opts, service.WithCache(taskCache))
			logger.Info("task list cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.CacheTTL)
		}
	}

	svc := service.NewTaskService(db, opts...)
	router := handlers.NewRouter(svc, handlers.RouterConfig{
		CORSOrigin: cfg.CORSOrigin,
		Logger:     logger,
		Store:      db,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("API listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", "error", err)
			os.Exit(1)
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"api": func(ctx context.Context) error {
				return shutdown(ctx, logger, srv, db, taskCache)
			},
		},
	)

	exitCode := <-wait
	logger.Info("API exited", "code", exitCode)
	os.Exit(exitCode)
}

// shutdown drains in-flight requests before releasing the store.
func shutdown(ctx context.Context, logger *slog.Logger, srv *http.Server, db *store.DB, c *cache.TaskListCache) error {
	logger.Info("shutting down API")
	var errs []error
	if err := srv.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if c != nil {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := db.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

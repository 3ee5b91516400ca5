package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/gin-gonic/gin"

	"task-api/client"
	"task-api/config"
	"task-api/handlers"
	"task-api/web"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger := cfg.NewLogger()
	gin.SetMode(gin.ReleaseMode)

	api := client.New(cfg.APIURL, client.WithLogger(logger))

	r := gin.New()
	r.Use(handlers.RequestID(), handlers.RequestLogger(logger), gin.Recovery())
	web.NewViews(api, logger).Register(r)

	srv := &http.Server{
		Addr:              ":" + cfg.WebPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("web listening", "addr", srv.Addr, "api", cfg.APIURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", "error", err)
			os.Exit(1)
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"web": func(ctx context.Context) error {
				logger.Info("shutting down web")
				return srv.Shutdown(ctx)
			},
		},
	)

	exitCode := <-wait
	logger.Info("web exited", "code", exitCode)
	os.Exit(exitCode)
}

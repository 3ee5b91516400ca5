package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"task-api/models"
)

const requestIDKey = "request_id"

// Pinger reports whether the store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type RouterConfig struct {
	CORSOrigin string
	Logger     *slog.Logger
	Store      Pinger
}

// NewRouter builds the API engine with every route mounted under /api/tasks.
func NewRouter(service TaskService, cfg RouterConfig) *gin.Engine {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if err := RegisterValidators(); err != nil {
		cfg.Logger.Error("failed to register validators", "error", err)
	}

	r := gin.New()
	r.Use(RequestID(), RequestLogger(cfg.Logger), gin.Recovery())
	if cfg.CORSOrigin != "" {
		r.Use(cors.New(cors.Config{
			AllowOrigins: []string{cfg.CORSOrigin},
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
			AllowHeaders: []string{"Content-Type"},
			MaxAge:       12 * time.Hour,
		}))
	}

	if cfg.Store != nil {
		r.GET("/healthz", health(cfg.Store))
	}

	NewTaskHandler(service, cfg.Logger).Register(r.Group("/api/tasks"))
	return r
}

// RegisterValidators adds the taskstatus and notblank rules to gin's binding validator.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("binding validator is not go-playground/validator")
	}
	if err := v.RegisterValidation("taskstatus", func(fl validator.FieldLevel) bool {
		return models.Status(fl.Field().String()).Valid()
	}); err != nil {
		return fmt.Errorf("failed to register taskstatus: %w", err)
	}
	if err := v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	}); err != nil {
		return fmt.Errorf("failed to register notblank: %w", err)
	}
	return nil
}

// RequestID tags every request with an X-Request-ID, reusing the caller's when present.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"request_id", c.GetString(requestIDKey))
	}
}

func health(p Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := p.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"task-api/models"
	"task-api/store"
)

const (
	msgInvalidStatus = "invalid status value"
	msgInternal      = "internal server error"
)

// TaskService is the part of the service layer the handlers call.
type TaskService interface {
	ListTasks(ctx context.Context) ([]models.Task, error)
	GetTask(ctx context.Context, id int64) (*models.Task, error)
	CreateTask(ctx context.Context, in models.TaskInput) (*models.Task, error)
	UpdateTask(ctx context.Context, id int64, patch models.TaskPatch) error
	DeleteTask(ctx context.Context, id int64) error
}

type TaskHandler struct {
	service TaskService
	logger  *slog.Logger
}

func NewTaskHandler(service TaskService, logger *slog.Logger) *TaskHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskHandler{service: service, logger: logger}
}

// Register mounts the task routes on rg.
func (h *TaskHandler) Register(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
	rg.POST("", h.Create)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
}

// List handles GET /api/tasks.
func (h *TaskHandler) List(c *gin.Context) {
	tasks, err := h.service.ListTasks(c.Request.Context())
	if err != nil {
		h.internalError(c, "list tasks", err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

// Get handles GET /api/tasks/:id.
func (h *TaskHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	task, err := h.service.GetTask(c.Request.Context(), id)
	if errors.Is(err, store.ErrTaskNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	}
	if err != nil {
		h.internalError(c, "get task", err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// Create handles POST /api/tasks.
func (h *TaskHandler) Create(c *gin.Context) {
	var input models.TaskInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": bindingMessage(err)})
		return
	}
	if input.Status == "" {
		input.Status = models.StatusPending
	}

	task, err := h.service.CreateTask(c.Request.Context(), input)
	if err != nil {
		h.internalError(c, "create task", err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

// Update handles PUT /api/tasks/:id. Only the supplied fields change.
func (h *TaskHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var patch models.TaskPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": bindingMessage(err)})
		return
	}

	if err := h.service.UpdateTask(c.Request.Context(), id, patch); err != nil {
		h.internalError(c, "update task", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Task updated"})
}

// Delete handles DELETE /api/tasks/:id.
func (h *TaskHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteTask(c.Request.Context(), id); err != nil {
		h.internalError(c, "delete task", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Task deleted"})
}

func (h *TaskHandler) internalError(c *gin.Context, op string, err error) {
	h.logger.Error("request failed",
		"op", op,
		"request_id", c.GetString(requestIDKey),
		"error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": msgInternal})
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task ID"})
		return 0, false
	}
	return id, true
}

// bindingMessage turns a bind error into a client facing message.
// A bad status wins over every other complaint.
func bindingMessage(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field == "status" {
		return msgInvalidStatus
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "Invalid request body"
	}
	for _, fe := range verrs {
		if fe.Field() == "Status" {
			return msgInvalidStatus
		}
	}
	if verrs[0].Field() == "Title" {
		return "title is required"
	}
	return "Invalid request body"
}

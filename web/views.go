// Package web serves the task list and the create/edit form on top of the task API.
package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"task-api/client"
	"task-api/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// TaskAPI is the remote task API as seen by the views.
type TaskAPI interface {
	ListTasks(ctx context.Context) ([]models.Task, error)
	GetTask(ctx context.Context, id int64) (*models.Task, error)
	CreateTask(ctx context.Context, in models.TaskInput) (*models.Task, error)
	UpdateTask(ctx context.Context, id int64, patch models.TaskPatch) error
	DeleteTask(ctx context.Context, id int64) error
}

type Views struct {
	api    TaskAPI
	logger *slog.Logger
}

func NewViews(api TaskAPI, logger *slog.Logger) *Views {
	if logger == nil {
		logger = slog.Default()
	}
	return &Views{api: api, logger: logger}
}

type formValues struct {
	Title       string
	Description string
	Status      models.Status
}

type listPage struct {
	Title string
	Error string
	Tasks []models.Task
}

type formPage struct {
	Title    string
	Error    string
	Editing  bool
	Action   string
	Form     formValues
	Statuses []models.Status
}

// Templates parses the embedded page templates.
func Templates() *template.Template {
	return template.Must(template.New("").ParseFS(templateFS, "templates/*.html"))
}

// Register mounts the pages on r and installs their templates.
func (v *Views) Register(r *gin.Engine) {
	r.SetHTMLTemplate(Templates())

	r.GET("/", v.List)
	r.GET("/tasks/new", v.New)
	r.POST("/tasks", v.Create)
	r.GET("/tasks/:id/edit", v.Edit)
	r.POST("/tasks/:id", v.Update)
	r.POST("/tasks/:id/delete", v.Delete)
}

// List renders every task, or an error banner when the API call fails.
func (v *Views) List(c *gin.Context) {
	page := listPage{Title: "Task List"}

	tasks, err := v.api.ListTasks(c.Request.Context())
	if err != nil {
		page.Error = userMessage(err, "Could not load tasks. Please try again.")
		c.HTML(statusFor(err), "list.html", page)
		return
	}

	page.Tasks = tasks
	c.HTML(http.StatusOK, "list.html", page)
}

func (v *Views) New(c *gin.Context) {
	c.HTML(http.StatusOK, "form.html", newFormPage(0, formValues{Status: models.StatusPending}))
}

// Edit renders the form seeded from the existing task.
func (v *Views) Edit(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	task, err := v.api.GetTask(c.Request.Context(), id)
	if err != nil {
		page := newFormPage(id, formValues{Status: models.StatusPending})
		page.Error = userMessage(err, "Could not load the task.")
		c.HTML(statusFor(err), "form.html", page)
		return
	}

	c.HTML(http.StatusOK, "form.html", newFormPage(id, formValues{
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
	}))
}

func (v *Views) Create(c *gin.Context) {
	form := readForm(c)
	if msg := validate(form); msg != "" {
		v.renderFormError(c, 0, form, http.StatusBadRequest, msg)
		return
	}

	_, err := v.api.CreateTask(c.Request.Context(), models.TaskInput{
		Title:       form.Title,
		Description: form.Description,
		Status:      form.Status,
	})
	if err != nil {
		v.renderFormError(c, 0, form, statusFor(err), userMessage(err, "Could not create the task."))
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (v *Views) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	form := readForm(c)
	if msg := validate(form); msg != "" {
		v.renderFormError(c, id, form, http.StatusBadRequest, msg)
		return
	}

	err := v.api.UpdateTask(c.Request.Context(), id, models.TaskPatch{
		Title:       &form.Title,
		Description: &form.Description,
		Status:      &form.Status,
	})
	if err != nil {
		v.renderFormError(c, id, form, statusFor(err), userMessage(err, "Could not update the task."))
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (v *Views) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := v.api.DeleteTask(c.Request.Context(), id); err != nil {
		v.logger.Warn("delete from list view failed", "id", id, "error", err)
		c.HTML(statusFor(err), "list.html", listPage{
			Title: "Task List",
			Error: userMessage(err, "Could not delete the task."),
		})
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (v *Views) renderFormError(c *gin.Context, id int64, form formValues, code int, msg string) {
	page := newFormPage(id, form)
	page.Error = msg
	c.HTML(code, "form.html", page)
}

func newFormPage(id int64, form formValues) formPage {
	page := formPage{
		Title:    "New Task",
		Action:   "/tasks",
		Form:     form,
		Statuses: models.Statuses,
	}
	if id > 0 {
		page.Title = "Edit Task"
		page.Editing = true
		page.Action = "/tasks/" + strconv.FormatInt(id, 10)
	}
	return page
}

func readForm(c *gin.Context) formValues {
	return formValues{
		Title:       strings.TrimSpace(c.PostForm("title")),
		Description: c.PostForm("description"),
		Status:      models.Status(c.DefaultPostForm("status", string(models.StatusPending))),
	}
}

func validate(form formValues) string {
	if !form.Status.Valid() {
		return "invalid status value"
	}
	if form.Title == "" {
		return "title is required"
	}
	return ""
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.String(http.StatusBadRequest, "invalid task id")
		return 0, false
	}
	return id, true
}

// userMessage shows API client errors verbatim and hides everything else.
func userMessage(err error, fallback string) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode < 500 && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

func statusFor(err error) int {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode < 500 {
		return apiErr.StatusCode
	}
	return http.StatusBadGateway
}

package service

import (
	"context"
	"log/slog"
	"strconv"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"task-api/models"
)

type Repository interface {
	ListTasks(ctx context.Context) ([]models.Task, error)
	GetTask(ctx context.Context, id int64) (*models.Task, error)
	CreateTask(ctx context.Context, in models.TaskInput) (*models.Task, error)
	UpdateTask(ctx context.Context, id int64, patch models.TaskPatch) error
	DeleteTask(ctx context.Context, id int64) error
}

// Cache holds the task list between writes. Implementations may fail freely;
// the service falls back to the repository.
type Cache interface {
	GetTaskList(ctx context.Context) ([]models.Task, bool, error)
	SetTaskList(ctx context.Context, tasks []models.Task) error
	DeleteTaskList(ctx context.Context) error
}

type TaskService struct {
	repo   Repository
	cache  Cache
	group  singleflight.Group
	logger *slog.Logger

	// generation is bumped by every write so reads that started earlier
	// do not put their rows back into the cache.
	generation atomic.Uint64
}

type Option func(*TaskService)

// WithCache enables the read-through list cache.
func WithCache(c Cache) Option {
	return func(s *TaskService) { s.cache = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *TaskService) { s.logger = l }
}

func NewTaskService(repo Repository, opts ...Option) *TaskService {
	s := &TaskService{
		repo:   repo,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *TaskService) ListTasks(ctx context.Context) ([]models.Task, error) {
	if s.cache == nil {
		return s.repo.ListTasks(ctx)
	}

	tasks, hit, err := s.cache.GetTaskList(ctx)
	if err != nil {
		s.logger.Warn("task list cache read failed", "error", err)
	}
	if hit {
		return tasks, nil
	}

	gen := s.generation.Load()
	v, err, _ := s.group.Do("list:"+strconv.FormatUint(gen, 10), func() (any, error) {
		// Shared by every caller in the flight, so one caller going away must not cancel it.
		ctx := context.WithoutCancel(ctx)

		tasks, err := s.repo.ListTasks(ctx)
		if err != nil {
			return nil, err
		}
		if s.generation.Load() != gen {
			return tasks, nil
		}
		if err := s.cache.SetTaskList(ctx, tasks); err != nil {
			s.logger.Warn("task list cache write failed", "error", err)
		}
		return tasks, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.Task), nil
}

func (s *TaskService) GetTask(ctx context.Context, id int64) (*models.Task, error) {
	return s.repo.GetTask(ctx, id)
}

func (s *TaskService) CreateTask(ctx context.Context, in models.TaskInput) (*models.Task, error) {
	task, err := s.repo.CreateTask(ctx, in)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return task, nil
}

func (s *TaskService) UpdateTask(ctx context.Context, id int64, patch models.TaskPatch) error {
	if err := s.repo.UpdateTask(ctx, id, patch); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *TaskService) DeleteTask(ctx context.Context, id int64) error {
	if err := s.repo.DeleteTask(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *TaskService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	s.generation.Add(1)
	if err := s.cache.DeleteTaskList(ctx); err != nil {
		s.logger.Warn("task list cache invalidation failed", "error", err)
	}
}

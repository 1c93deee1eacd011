package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/KartikGSparrow/AuthAppWithTasks/internal/domain"
	"github.com/KartikGSparrow/AuthAppWithTasks/internal/repository"
	apperrors "github.com/KartikGSparrow/AuthAppWithTasks/pkg/errors"
	"github.com/KartikGSparrow/AuthAppWithTasks/pkg/logger"
)

// TaskService implements the to-do list operations, always scoped to the
// authenticated owner.
type TaskService struct {
	tasks  repository.TaskRepository
	logger *slog.Logger
	now    func() time.Time
}

// NewTaskService creates a task service.
func NewTaskService(tasks repository.TaskRepository, log *slog.Logger) *TaskService {
	return &TaskService{
		tasks:  tasks,
		logger: log,
		now:    time.Now,
	}
}

// List returns all tasks owned by the user.
func (s *TaskService) List(ctx context.Context, userID int64) ([]domain.Task, error) {
	tasks, err := s.tasks.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	return tasks, nil
}

// Save creates the task when it has no id, or updates the existing one
// otherwise. The task is always bound to the given owner.
func (s *TaskService) Save(ctx context.Context, userID int64, task *domain.Task) (*domain.Task, error) {
	task.UserID = userID
	if task.Ts.IsZero() {
		task.Ts = s.now().UTC()
	}

	if task.ID == 0 {
		if err := s.tasks.Create(ctx, task); err != nil {
			s.log(ctx).Error("failed to create task", "user_id", userID, "error", err)
			return nil, ErrTaskSaveFailed
		}
		return task, nil
	}

	if err := s.tasks.Update(ctx, task); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, ErrTaskNotFound
		}
		s.log(ctx).Error("failed to update task", "user_id", userID, "task_id", task.ID, "error", err)
		return nil, ErrTaskSaveFailed
	}

	return task, nil
}

// Delete removes the task if the user owns it.
func (s *TaskService) Delete(ctx context.Context, userID, taskID int64) error {
	deleted, err := s.tasks.Delete(ctx, taskID, userID)
	if err != nil {
		s.log(ctx).Error("failed to delete task", "user_id", userID, "task_id", taskID, "error", err)
		return ErrTaskSaveFailed
	}
	if !deleted {
		return ErrTaskNotFound
	}

	return nil
}

func (s *TaskService) log(ctx context.Context) *slog.Logger {
	return logger.WithContext(ctx, s.logger)
}

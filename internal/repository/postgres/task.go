package postgres

import (
	"context"
	"fmt"

	"github.com/KartikGSparrow/AuthAppWithTasks/internal/domain"
	"github.com/KartikGSparrow/AuthAppWithTasks/internal/repository"
	"github.com/KartikGSparrow/AuthAppWithTasks/pkg/database"
	apperrors "github.com/KartikGSparrow/AuthAppWithTasks/pkg/errors"
)

// TaskRepository implements repository.TaskRepository backed by PostgreSQL.
// Every statement is scoped by user_id so a caller can never touch another
// user's tasks.
type TaskRepository struct {
	db database.DBTX
}

// NewTaskRepository creates a new PostgreSQL task repository.
func NewTaskRepository(db database.DBTX) *TaskRepository {
	return &TaskRepository{db: db}
}

var _ repository.TaskRepository = (*TaskRepository)(nil)

func (r *TaskRepository) ListByUserID(ctx context.Context, userID int64) ([]domain.Task, error) {
	query := `
		SELECT id, user_id, name, is_completed, ts
		FROM tasks
		WHERE user_id = $1
		ORDER BY ts DESC, id DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]domain.Task, 0)
	for rows.Next() {
		var task domain.Task
		if err := rows.Scan(&task.ID, &task.UserID, &task.Name, &task.IsCompleted, &task.Ts); err != nil {
			return nil, fmt.Errorf("scanning task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tasks: %w", err)
	}

	return tasks, nil
}

func (r *TaskRepository) Create(ctx context.Context, task *domain.Task) error {
	query := `
		INSERT INTO tasks (user_id, name, is_completed, ts)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	err := r.db.QueryRow(ctx, query,
		task.UserID,
		task.Name,
		task.IsCompleted,
		task.Ts,
	).Scan(&task.ID)
	if err != nil {
		return fmt.Errorf("creating task: %w", err)
	}

	return nil
}

func (r *TaskRepository) Update(ctx context.Context, task *domain.Task) error {
	query := `
		UPDATE tasks
		SET name = $1, is_completed = $2, ts = $3
		WHERE id = $4 AND user_id = $5`

	tag, err := r.db.Exec(ctx, query,
		task.Name,
		task.IsCompleted,
		task.Ts,
		task.ID,
		task.UserID,
	)
	if err != nil {
		return fmt.Errorf("updating task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("task", fmt.Sprintf("%d", task.ID))
	}

	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, taskID, userID int64) (bool, error) {
	query := `DELETE FROM tasks WHERE id = $1 AND user_id = $2`

	tag, err := r.db.Exec(ctx, query, taskID, userID)
	if err != nil {
		return false, fmt.Errorf("deleting task: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

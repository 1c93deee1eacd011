package repository

import (
	"context"

	"github.com/KartikGSparrow/AuthAppWithTasks/internal/domain"
)

// UserRepository defines the interface for user persistence operations.
type UserRepository interface {
	// Create inserts a new user and fills in its generated ID.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique identifier.
	GetByID(ctx context.Context, id int64) (*domain.User, error)

	// GetByEmail retrieves a user by email. The lookup is exact:
	// emails are unique and case-sensitive as stored.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// RefreshTokenRepository defines the interface for refresh token persistence.
// The store guarantees at most one record per user.
type RefreshTokenRepository interface {
	// ReplaceForUser atomically replaces the user's refresh token record
	// (if any) with the given one, as a single upsert keyed by the unique
	// user id. The record's generated ID is filled in.
	ReplaceForUser(ctx context.Context, token *domain.RefreshToken) error

	// GetByUserID retrieves the refresh token record owned by the user.
	GetByUserID(ctx context.Context, userID int64) (*domain.RefreshToken, error)

	// DeleteByUserID removes the user's refresh token record. Deleting an
	// absent record is not an error; the bool reports whether a row was
	// actually removed.
	DeleteByUserID(ctx context.Context, userID int64) (bool, error)
}

// TaskRepository defines the interface for task persistence operations.
type TaskRepository interface {
	// ListByUserID returns all tasks owned by the user, newest first.
	ListByUserID(ctx context.Context, userID int64) ([]domain.Task, error)

	// Create inserts a new task and fills in its generated ID.
	Create(ctx context.Context, task *domain.Task) error

	// Update modifies an existing task, scoped to its owner.
	Update(ctx context.Context, task *domain.Task) error

	// Delete removes a task by id, scoped to its owner. The bool reports
	// whether a row was actually removed.
	Delete(ctx context.Context, taskID, userID int64) (bool, error)
}

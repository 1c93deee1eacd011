package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/KartikGSparrow/AuthAppWithTasks/internal/domain"
	"github.com/KartikGSparrow/AuthAppWithTasks/internal/repository"
	"github.com/KartikGSparrow/AuthAppWithTasks/pkg/database"
	apperrors "github.com/KartikGSparrow/AuthAppWithTasks/pkg/errors"
)

// RefreshTokenRepository implements repository.RefreshTokenRepository backed
// by PostgreSQL. A UNIQUE constraint on user_id enforces the single-session
// invariant; replacement is a single upsert so two concurrent logins cannot
// leave the user with zero or two records.
type RefreshTokenRepository struct {
	db database.DBTX
}

// NewRefreshTokenRepository creates a new PostgreSQL refresh token repository.
func NewRefreshTokenRepository(db database.DBTX) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

var _ repository.RefreshTokenRepository = (*RefreshTokenRepository)(nil)

func (r *RefreshTokenRepository) ReplaceForUser(ctx context.Context, token *domain.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (user_id, token_hash, token_salt, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE
		SET token_hash = EXCLUDED.token_hash,
		    token_salt = EXCLUDED.token_salt,
		    created_at = EXCLUDED.created_at,
		    expires_at = EXCLUDED.expires_at
		RETURNING id`

	err := r.db.QueryRow(ctx, query,
		token.UserID,
		token.TokenHash,
		token.TokenSalt,
		token.CreatedAt,
		token.ExpiresAt,
	).Scan(&token.ID)
	if err != nil {
		return fmt.Errorf("replacing refresh token: %w", err)
	}

	return nil
}

func (r *RefreshTokenRepository) GetByUserID(ctx context.Context, userID int64) (*domain.RefreshToken, error) {
	query := `
		SELECT id, user_id, token_hash, token_salt, created_at, expires_at
		FROM refresh_tokens
		WHERE user_id = $1`

	var token domain.RefreshToken
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&token.ID,
		&token.UserID,
		&token.TokenHash,
		&token.TokenSalt,
		&token.CreatedAt,
		&token.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("refresh token", fmt.Sprintf("%d", userID))
		}
		return nil, fmt.Errorf("getting refresh token: %w", err)
	}

	return &token, nil
}

func (r *RefreshTokenRepository) DeleteByUserID(ctx context.Context, userID int64) (bool, error) {
	query := `DELETE FROM refresh_tokens WHERE user_id = $1`

	tag, err := r.db.Exec(ctx, query, userID)
	if err != nil {
		return false, fmt.Errorf("deleting refresh token: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

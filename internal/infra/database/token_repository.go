package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/sitekick/pipeline/internal/entity"
	"github.com/sitekick/pipeline/internal/infra/http/middleware"
)

// TokenRepository resolves API tokens to identities. The admin flag is a
// stored column, resolved here and nowhere else.
type TokenRepository struct {
	DB *sql.DB
}

func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{DB: db}
}

func (r *TokenRepository) Resolve(ctx context.Context, token string) (*middleware.Identity, error) {
	query := `
		SELECT user_id, is_admin
		FROM api_tokens
		WHERE token = $1 AND revoked_at IS NULL
	`

	var identity middleware.Identity
	err := r.DB.QueryRowContext(ctx, query, token).Scan(&identity.UserID, &identity.Admin)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &identity, nil
}

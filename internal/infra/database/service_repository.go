package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/sitekick/pipeline/internal/entity"
)

type ServiceRepository struct {
	DB *sql.DB
}

func NewServiceRepository(db *sql.DB) *ServiceRepository {
	return &ServiceRepository{DB: db}
}

func (r *ServiceRepository) FindByID(ctx context.Context, id string) (*entity.Service, error) {
	query := `
		SELECT id, website_id, name, duration_minutes, price_cents, created_at
		FROM services
		WHERE id = $1
	`

	var s entity.Service
	var priceCents sql.NullInt64

	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&s.ID,
		&s.WebsiteID,
		&s.Name,
		&s.DurationMinutes,
		&priceCents,
		&s.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	s.PriceCents = priceCents.Int64
	return &s, nil
}

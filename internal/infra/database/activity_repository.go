package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sitekick/pipeline/internal/entity"
)

// ActivityRepository is append-only; the timeline is never consulted for
// correctness decisions.
type ActivityRepository struct {
	DB *sql.DB
}

func NewActivityRepository(db *sql.DB) *ActivityRepository {
	return &ActivityRepository{DB: db}
}

func (r *ActivityRepository) Append(ctx context.Context, a *entity.Activity) error {
	query := `
		INSERT INTO activities (id, lead_id, kind, detail, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.DB.ExecContext(ctx, query, a.ID, a.LeadID, a.Kind, a.Detail, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("append activity: %w", err)
	}
	return nil
}

func (r *ActivityRepository) ListByLeadID(ctx context.Context, leadID string, limit int) ([]*entity.Activity, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, lead_id, kind, detail, created_at
		FROM activities
		WHERE lead_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.DB.QueryContext(ctx, query, leadID, limit)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	defer rows.Close()

	var activities []*entity.Activity
	for rows.Next() {
		var a entity.Activity
		var detail sql.NullString
		if err := rows.Scan(&a.ID, &a.LeadID, &a.Kind, &detail, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Detail = detail.String
		activities = append(activities, &a)
	}
	return activities, rows.Err()
}

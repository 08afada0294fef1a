package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sitekick/pipeline/internal/entity"
)

type LeadRepository struct {
	DB *sql.DB
}

func NewLeadRepository(db *sql.DB) *LeadRepository {
	return &LeadRepository{DB: db}
}

const leadColumns = `
	id, user_id, business_name, category, email, phone, website_id,
	status, next_follow_up, last_contacted_at, created_at, updated_at
`

func (r *LeadRepository) Create(ctx context.Context, lead *entity.Lead) error {
	query := `
		INSERT INTO leads (
			id, user_id, business_name, category, email, phone, website_id,
			status, next_follow_up, last_contacted_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8, $9, $10, $11, $12)
	`

	_, err := r.DB.ExecContext(ctx, query,
		lead.ID,
		lead.UserID,
		lead.BusinessName,
		lead.Category,
		lead.Email,
		lead.Phone,
		lead.WebsiteID,
		lead.Status,
		lead.NextFollowUp,
		lead.LastContactedAt,
		lead.CreatedAt,
		lead.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert lead: %w", err)
	}
	return nil
}

func (r *LeadRepository) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id = $1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, id))
}

func (r *LeadRepository) FindByWebsiteID(ctx context.Context, websiteID string) (*entity.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE website_id = $1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, websiteID))
}

func (r *LeadRepository) Update(ctx context.Context, lead *entity.Lead) error {
	query := `
		UPDATE leads SET
			business_name = $2,
			category = $3,
			email = $4,
			phone = $5,
			status = $6,
			next_follow_up = $7,
			last_contacted_at = $8,
			updated_at = $9
		WHERE id = $1
	`

	_, err := r.DB.ExecContext(ctx, query,
		lead.ID,
		lead.BusinessName,
		lead.Category,
		lead.Email,
		lead.Phone,
		lead.Status,
		lead.NextFollowUp,
		lead.LastContactedAt,
		lead.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update lead: %w", err)
	}
	return nil
}

func (r *LeadRepository) ListDueFollowUps(ctx context.Context, userID string, now time.Time) ([]*entity.Lead, error) {
	query := `
		SELECT ` + leadColumns + `
		FROM leads
		WHERE user_id = $1
		  AND next_follow_up IS NOT NULL
		  AND next_follow_up <= $2
		  AND status NOT IN ($3, $4)
		ORDER BY next_follow_up ASC
	`

	rows, err := r.DB.QueryContext(ctx, query, userID, now, entity.LeadStatusWon, entity.LeadStatusLost)
	if err != nil {
		return nil, fmt.Errorf("list due follow-ups: %w", err)
	}
	defer rows.Close()

	var leads []*entity.Lead
	for rows.Next() {
		lead, err := r.scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *LeadRepository) scanOne(row *sql.Row) (*entity.Lead, error) {
	lead, err := r.scanLead(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrNotFound
	}
	return lead, err
}

func (r *LeadRepository) scanLead(row rowScanner) (*entity.Lead, error) {
	var lead entity.Lead
	var email, phone, websiteID sql.NullString
	var nextFollowUp, lastContactedAt sql.NullTime

	err := row.Scan(
		&lead.ID,
		&lead.UserID,
		&lead.BusinessName,
		&lead.Category,
		&email,
		&phone,
		&websiteID,
		&lead.Status,
		&nextFollowUp,
		&lastContactedAt,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	lead.Email = email.String
	lead.Phone = phone.String
	lead.WebsiteID = websiteID.String
	if nextFollowUp.Valid {
		lead.NextFollowUp = &nextFollowUp.Time
	}
	if lastContactedAt.Valid {
		lead.LastContactedAt = &lastContactedAt.Time
	}
	return &lead, nil
}

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sitekick/pipeline/internal/entity"
)

type ProposalRepository struct {
	DB *sql.DB
}

func NewProposalRepository(db *sql.DB) *ProposalRepository {
	return &ProposalRepository{DB: db}
}

const proposalColumns = `
	id, lead_id, user_id, deal_id, title, scope, timeline, terms,
	amount, is_recurring, access_token, status,
	expires_at, sent_at, viewed_at, accepted_at, declined_at, client_name,
	created_at, updated_at
`

func (r *ProposalRepository) Create(ctx context.Context, p *entity.Proposal) error {
	query := `
		INSERT INTO proposals (
			id, lead_id, user_id, deal_id, title, scope, timeline, terms,
			amount, is_recurring, access_token, status,
			expires_at, sent_at, client_name, created_at, updated_at
		) VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	_, err := r.DB.ExecContext(ctx, query,
		p.ID,
		p.LeadID,
		p.UserID,
		p.DealID,
		p.Title,
		p.Scope,
		p.Timeline,
		p.Terms,
		p.Amount,
		p.IsRecurring,
		p.AccessToken,
		p.Status,
		p.ExpiresAt,
		p.SentAt,
		p.ClientName,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		// proposals_one_active_per_lead: unique SENT/VIEWED row per lead.
		if isUniqueViolation(err) {
			return entity.ErrActiveProposalExists
		}
		return fmt.Errorf("insert proposal: %w", err)
	}
	return nil
}

func (r *ProposalRepository) FindByID(ctx context.Context, id string) (*entity.Proposal, error) {
	query := `SELECT ` + proposalColumns + ` FROM proposals WHERE id = $1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, id))
}

func (r *ProposalRepository) FindByAccessToken(ctx context.Context, token string) (*entity.Proposal, error) {
	query := `SELECT ` + proposalColumns + ` FROM proposals WHERE access_token = $1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, token))
}

// FindActiveByLeadID applies the lazy-expiry rule in the query itself: a
// lapsed SENT/VIEWED row no longer holds the lead's active slot.
func (r *ProposalRepository) FindActiveByLeadID(ctx context.Context, leadID string) (*entity.Proposal, error) {
	query := `
		SELECT ` + proposalColumns + `
		FROM proposals
		WHERE lead_id = $1
		  AND status IN ($2, $3)
		  AND (expires_at IS NULL OR expires_at > NOW())
		ORDER BY created_at DESC
		LIMIT 1
	`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, leadID,
		entity.ProposalStatusSent, entity.ProposalStatusViewed))
}

func (r *ProposalRepository) Update(ctx context.Context, p *entity.Proposal) error {
	_, err := r.update(ctx, p, "")
	return err
}

// UpdateIfStatus is the per-row compare-and-set: the write only lands if
// the stored status still matches expected.
func (r *ProposalRepository) UpdateIfStatus(ctx context.Context, p *entity.Proposal, expected string) (bool, error) {
	return r.update(ctx, p, expected)
}

func (r *ProposalRepository) update(ctx context.Context, p *entity.Proposal, expected string) (bool, error) {
	query := `
		UPDATE proposals SET
			deal_id = NULLIF($2, ''),
			status = $3,
			viewed_at = $4,
			accepted_at = $5,
			declined_at = $6,
			client_name = $7,
			updated_at = $8
		WHERE id = $1 AND ($9 = '' OR status = $9)
	`

	res, err := r.DB.ExecContext(ctx, query,
		p.ID,
		p.DealID,
		p.Status,
		p.ViewedAt,
		p.AcceptedAt,
		p.DeclinedAt,
		p.ClientName,
		p.UpdatedAt,
		expected,
	)
	if err != nil {
		return false, fmt.Errorf("update proposal: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *ProposalRepository) scanOne(row *sql.Row) (*entity.Proposal, error) {
	var p entity.Proposal
	var dealID, scope, timeline, terms, clientName sql.NullString
	var expiresAt, sentAt, viewedAt, acceptedAt, declinedAt sql.NullTime

	err := row.Scan(
		&p.ID,
		&p.LeadID,
		&p.UserID,
		&dealID,
		&p.Title,
		&scope,
		&timeline,
		&terms,
		&p.Amount,
		&p.IsRecurring,
		&p.AccessToken,
		&p.Status,
		&expiresAt,
		&sentAt,
		&viewedAt,
		&acceptedAt,
		&declinedAt,
		&clientName,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	p.DealID = dealID.String
	p.Scope = scope.String
	p.Timeline = timeline.String
	p.Terms = terms.String
	p.ClientName = clientName.String
	if expiresAt.Valid {
		p.ExpiresAt = &expiresAt.Time
	}
	if sentAt.Valid {
		p.SentAt = &sentAt.Time
	}
	if viewedAt.Valid {
		p.ViewedAt = &viewedAt.Time
	}
	if acceptedAt.Valid {
		p.AcceptedAt = &acceptedAt.Time
	}
	if declinedAt.Valid {
		p.DeclinedAt = &declinedAt.Time
	}
	return &p, nil
}

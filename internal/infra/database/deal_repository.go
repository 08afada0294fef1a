package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sitekick/pipeline/internal/entity"
)

type DealRepository struct {
	DB *sql.DB
}

func NewDealRepository(db *sql.DB) *DealRepository {
	return &DealRepository{DB: db}
}

const dealColumns = `
	id, lead_id, user_id, amount, is_recurring, recurring_amount,
	platform_fee, seller_payout, status,
	session_id, subscription_id, price_id,
	refunded_at, refund_reason, refund_amount,
	created_at, updated_at
`

func (r *DealRepository) Create(ctx context.Context, deal *entity.Deal) error {
	query := `
		INSERT INTO deals (
			id, lead_id, user_id, amount, is_recurring, recurring_amount,
			platform_fee, seller_payout, status,
			session_id, subscription_id, price_id,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.DB.ExecContext(ctx, query,
		deal.ID,
		deal.LeadID,
		deal.UserID,
		deal.Amount,
		deal.IsRecurring,
		deal.RecurringAmount,
		deal.PlatformFee,
		deal.SellerPayout,
		deal.Status,
		deal.SessionID,
		deal.SubscriptionID,
		deal.PriceID,
		deal.CreatedAt,
		deal.UpdatedAt,
	)
	if err != nil {
		// The partial unique index deals_one_active_per_lead makes the
		// one-active-deal invariant hold under concurrent creates.
		if isUniqueViolation(err) {
			return entity.ErrActiveDealExists
		}
		return fmt.Errorf("insert deal: %w", err)
	}
	return nil
}

func (r *DealRepository) FindByID(ctx context.Context, id string) (*entity.Deal, error) {
	query := `SELECT ` + dealColumns + ` FROM deals WHERE id = $1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, id))
}

func (r *DealRepository) FindActiveByLeadID(ctx context.Context, leadID string) (*entity.Deal, error) {
	query := `
		SELECT ` + dealColumns + `
		FROM deals
		WHERE lead_id = $1 AND status != $2
		ORDER BY created_at DESC
		LIMIT 1
	`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, leadID, entity.DealStatusRefunded))
}

func (r *DealRepository) FindBySessionID(ctx context.Context, sessionID string) (*entity.Deal, error) {
	query := `SELECT ` + dealColumns + ` FROM deals WHERE session_id = $1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, sessionID))
}

func (r *DealRepository) Update(ctx context.Context, deal *entity.Deal) error {
	query := `
		UPDATE deals SET
			amount = $2,
			is_recurring = $3,
			recurring_amount = $4,
			status = $5,
			session_id = $6,
			subscription_id = $7,
			price_id = $8,
			updated_at = $9
		WHERE id = $1
	`

	_, err := r.DB.ExecContext(ctx, query,
		deal.ID,
		deal.Amount,
		deal.IsRecurring,
		deal.RecurringAmount,
		deal.Status,
		deal.SessionID,
		deal.SubscriptionID,
		deal.PriceID,
		deal.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update deal: %w", err)
	}
	return nil
}

// ConfirmPaid flips PENDING to the paid status in one guarded statement.
// Zero rows affected means the deal already left PENDING; the webhook
// replay is absorbed here.
func (r *DealRepository) ConfirmPaid(ctx context.Context, dealID, toStatus, externalRef string) (bool, error) {
	query := `
		UPDATE deals SET
			status = $2,
			subscription_id = COALESCE(NULLIF($3, ''), subscription_id),
			updated_at = NOW()
		WHERE id = $1 AND status = $4
	`

	res, err := r.DB.ExecContext(ctx, query, dealID, toStatus, externalRef, entity.DealStatusPending)
	if err != nil {
		return false, fmt.Errorf("confirm deal payment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// MarkRefunded is the refund idempotency guard: the status check and the
// write are one statement, so a racing second refund sees zero rows.
func (r *DealRepository) MarkRefunded(ctx context.Context, deal *entity.Deal) (bool, error) {
	query := `
		UPDATE deals SET
			status = $2,
			refunded_at = $3,
			refund_reason = $4,
			refund_amount = $5,
			updated_at = $6
		WHERE id = $1 AND status IN ($7, $8)
	`

	res, err := r.DB.ExecContext(ctx, query,
		deal.ID,
		entity.DealStatusRefunded,
		deal.RefundedAt,
		deal.RefundReason,
		deal.RefundAmount,
		deal.UpdatedAt,
		entity.DealStatusPaid,
		entity.DealStatusActiveSubscription,
	)
	if err != nil {
		return false, fmt.Errorf("mark deal refunded: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *DealRepository) Delete(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM deals WHERE id = $1`, id)
	return err
}

func (r *DealRepository) scanOne(row *sql.Row) (*entity.Deal, error) {
	var deal entity.Deal
	var sessionID, subscriptionID, priceID, refundReason sql.NullString
	var refundedAt sql.NullTime
	var refundAmount sql.NullInt64

	err := row.Scan(
		&deal.ID,
		&deal.LeadID,
		&deal.UserID,
		&deal.Amount,
		&deal.IsRecurring,
		&deal.RecurringAmount,
		&deal.PlatformFee,
		&deal.SellerPayout,
		&deal.Status,
		&sessionID,
		&subscriptionID,
		&priceID,
		&refundedAt,
		&refundReason,
		&refundAmount,
		&deal.CreatedAt,
		&deal.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	deal.SessionID = sessionID.String
	deal.SubscriptionID = subscriptionID.String
	deal.PriceID = priceID.String
	deal.RefundReason = refundReason.String
	deal.RefundAmount = refundAmount.Int64
	if refundedAt.Valid {
		deal.RefundedAt = &refundedAt.Time
	}
	return &deal, nil
}

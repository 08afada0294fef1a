package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sitekick/pipeline/internal/entity"
)

type BookingRepository struct {
	DB *sql.DB
}

func NewBookingRepository(db *sql.DB) *BookingRepository {
	return &BookingRepository{DB: db}
}

const bookingColumns = `
	id, website_id, service_id, date, start_minute, end_minute, status,
	confirmation_code, customer_name, customer_email, customer_phone,
	notes, created_at, updated_at
`

// CreateIfFree runs check-then-insert as one atomic unit. An advisory
// lock keyed on (website, date) serializes racing creates for the same
// day, so two overlapping requests get exactly one success. The day's
// bookings-created counter is bumped inside the same transaction.
func (r *BookingRepository) CreateIfFree(ctx context.Context, b *entity.Booking) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin booking tx: %w", err)
	}
	defer tx.Rollback()

	lockKey := b.WebsiteID + ":" + b.Date
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, lockKey); err != nil {
		return fmt.Errorf("acquire booking lock: %w", err)
	}

	var conflicts int
	overlapQuery := `
		SELECT COUNT(1)
		FROM bookings
		WHERE website_id = $1
		  AND date = $2
		  AND status IN ($3, $4)
		  AND start_minute < $6
		  AND $5 < end_minute
	`
	err = tx.QueryRowContext(ctx, overlapQuery,
		b.WebsiteID, b.Date,
		entity.BookingStatusPending, entity.BookingStatusConfirmed,
		b.StartMinute, b.EndMinute,
	).Scan(&conflicts)
	if err != nil {
		return fmt.Errorf("check booking overlap: %w", err)
	}
	if conflicts > 0 {
		return entity.ErrBookingConflict
	}

	insertQuery := `
		INSERT INTO bookings (
			id, website_id, service_id, date, start_minute, end_minute,
			status, confirmation_code, customer_name, customer_email,
			customer_phone, notes, created_at, updated_at
		) VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err = tx.ExecContext(ctx, insertQuery,
		b.ID,
		b.WebsiteID,
		b.ServiceID,
		b.Date,
		b.StartMinute,
		b.EndMinute,
		b.Status,
		b.ConfirmationCode,
		b.CustomerName,
		b.CustomerEmail,
		b.CustomerPhone,
		b.Notes,
		b.CreatedAt,
		b.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return entity.ErrBookingConflict
		}
		return fmt.Errorf("insert booking: %w", err)
	}

	statsQuery := `
		INSERT INTO site_stats (website_id, day, bookings_created)
		VALUES ($1, $2, 1)
		ON CONFLICT (website_id, day)
		DO UPDATE SET bookings_created = site_stats.bookings_created + 1
	`
	if _, err := tx.ExecContext(ctx, statsQuery, b.WebsiteID, b.Date); err != nil {
		return fmt.Errorf("bump booking stats: %w", err)
	}

	return tx.Commit()
}

func (r *BookingRepository) FindByID(ctx context.Context, id string) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, id))
}

func (r *BookingRepository) FindByConfirmationCode(ctx context.Context, code string) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE confirmation_code = $1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, code))
}

func (r *BookingRepository) ListBlocking(ctx context.Context, websiteID, date string) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE website_id = $1 AND date = $2 AND status IN ($3, $4)
		ORDER BY start_minute ASC
	`

	rows, err := r.DB.QueryContext(ctx, query, websiteID, date,
		entity.BookingStatusPending, entity.BookingStatusConfirmed)
	if err != nil {
		return nil, fmt.Errorf("list blocking bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*entity.Booking
	for rows.Next() {
		b, err := r.scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// UpdateStatus is a guarded flip: the write only lands while the stored
// status still equals from, so racing owner actions cannot resurrect a
// booking another action already moved.
func (r *BookingRepository) UpdateStatus(ctx context.Context, id, from, to string) (bool, error) {
	query := `UPDATE bookings SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2`
	res, err := r.DB.ExecContext(ctx, query, id, from, to)
	if err != nil {
		return false, fmt.Errorf("update booking status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *BookingRepository) scanOne(row *sql.Row) (*entity.Booking, error) {
	b, err := r.scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrNotFound
	}
	return b, err
}

func (r *BookingRepository) scanBooking(row rowScanner) (*entity.Booking, error) {
	var b entity.Booking
	var serviceID, customerPhone, notes sql.NullString

	err := row.Scan(
		&b.ID,
		&b.WebsiteID,
		&serviceID,
		&b.Date,
		&b.StartMinute,
		&b.EndMinute,
		&b.Status,
		&b.ConfirmationCode,
		&b.CustomerName,
		&b.CustomerEmail,
		&customerPhone,
		&notes,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	b.ServiceID = serviceID.String
	b.CustomerPhone = customerPhone.String
	b.Notes = notes.String
	return &b, nil
}

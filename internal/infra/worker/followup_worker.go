package worker

import (
	"context"
	"database/sql"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/sitekick/pipeline/internal/infra/queue"
)

// FollowUpWorker periodically scans for due, un-reminded follow-ups and
// enqueues reminder emails for the owning users. The pipeline engine
// itself stays request-driven; this is delivery plumbing.
type FollowUpWorker struct {
	db           *sql.DB
	producer     queue.QueueProducerInterface
	tickInterval time.Duration
	log          *log.Entry
}

func NewFollowUpWorker(db *sql.DB, producer queue.QueueProducerInterface) *FollowUpWorker {
	return &FollowUpWorker{
		db:           db,
		producer:     producer,
		tickInterval: 5 * time.Minute,
		log:          log.WithField("component", "followup-worker"),
	}
}

func (w *FollowUpWorker) Start(ctx context.Context) {
	w.log.Info("follow-up reminder worker started")

	ticker := time.NewTicker(w.tickInterval)
	defer ticker.Stop()

	w.remindDue(ctx)

	for {
		select {
		case <-ctx.Done():
			w.log.Info("follow-up reminder worker stopped")
			return
		case <-ticker.C:
			w.remindDue(ctx)
		}
	}
}

func (w *FollowUpWorker) remindDue(ctx context.Context) {
	// Claim-and-return: stamping reminder_sent_at inside the UPDATE means
	// each due follow-up produces exactly one reminder even with several
	// worker replicas.
	query := `
		UPDATE leads
		SET reminder_sent_at = NOW()
		WHERE next_follow_up IS NOT NULL
		  AND next_follow_up <= NOW()
		  AND (reminder_sent_at IS NULL OR reminder_sent_at < next_follow_up)
		  AND status NOT IN ('WON', 'LOST')
		RETURNING id, business_name,
			(SELECT email FROM users WHERE users.id = leads.user_id)
	`

	rows, err := w.db.QueryContext(ctx, query)
	if err != nil {
		w.log.WithError(err).Error("failed to claim due follow-ups")
		return
	}
	defer rows.Close()

	reminded := 0
	for rows.Next() {
		var leadID, businessName string
		var ownerEmail sql.NullString
		if err := rows.Scan(&leadID, &businessName, &ownerEmail); err != nil {
			w.log.WithError(err).Error("failed to scan due follow-up")
			return
		}
		if !ownerEmail.Valid || ownerEmail.String == "" {
			continue
		}

		payload := queue.NotificationPayload{
			Kind:         queue.NotifyFollowUpReminder,
			To:           ownerEmail.String,
			Name:         ownerEmail.String,
			LeadID:       leadID,
			BusinessName: businessName,
		}
		if err := w.producer.PublishNotification(ctx, payload); err != nil {
			w.log.WithError(err).WithField("lead_id", leadID).Warn("failed to enqueue reminder")
			continue
		}
		reminded++
	}
	if err := rows.Err(); err != nil {
		w.log.WithError(err).Error("follow-up scan failed")
		return
	}

	if reminded > 0 {
		w.log.WithField("count", reminded).Info("follow-up reminders enqueued")
	}
}

package queue

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Notification kinds routed by the worker.
const (
	NotifyProposalSent        = "PROPOSAL_SENT"
	NotifyProposalAccepted    = "PROPOSAL_ACCEPTED"
	NotifyBookingConfirmation = "BOOKING_CONFIRMATION"
	NotifyRefundIssued        = "REFUND_ISSUED"
	NotifyFollowUpReminder    = "FOLLOW_UP_REMINDER"
)

// NotificationPayload is fire-and-forget from the engine's point of view:
// a publish failure is logged by the caller and never fails the pipeline
// operation that produced it.
type NotificationPayload struct {
	Kind string `json:"kind"`

	To   string `json:"to"`
	Name string `json:"name"`

	LeadID       string `json:"lead_id,omitempty"`
	BusinessName string `json:"business_name,omitempty"`

	ProposalTitle string `json:"proposal_title,omitempty"`
	ProposalLink  string `json:"proposal_link,omitempty"`

	ConfirmationCode string `json:"confirmation_code,omitempty"`
	BookingDate      string `json:"booking_date,omitempty"`
	BookingStart     string `json:"booking_start,omitempty"`

	AmountCents int64 `json:"amount_cents,omitempty"`
}

type QueueProducerInterface interface {
	PublishNotification(ctx context.Context, payload NotificationPayload) error
}

type RabbitMQProducer struct {
	Conn *amqp.Connection
	Ch   *amqp.Channel
}

func NewProducer(conn *amqp.Connection, ch *amqp.Channel) *RabbitMQProducer {
	return &RabbitMQProducer{Conn: conn, Ch: ch}
}

func (p *RabbitMQProducer) PublishNotification(ctx context.Context, payload NotificationPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	err = p.Ch.PublishWithContext(ctx,
		ExchangeName,
		RoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}

	return nil
}

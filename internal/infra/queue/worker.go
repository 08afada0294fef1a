package queue

import (
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"
	log "github.com/sirupsen/logrus"
)

// MailSender is the delivery contract the worker drives. Implemented by
// the SMTP sender in infra/mail.
type MailSender interface {
	SendProposal(to, name, title, link string) error
	SendBookingConfirmation(to, name, businessName, code, date, start string) error
	SendRefundNotice(to, name string, amountCents int64) error
	SendFollowUpReminder(to, name, businessName string) error
}

type Worker struct {
	Channel *amqp.Channel
	Mail    MailSender
	log     *log.Entry
}

func NewWorker(ch *amqp.Channel, mail MailSender) *Worker {
	return &Worker{
		Channel: ch,
		Mail:    mail,
		log:     log.WithField("component", "notification-worker"),
	}
}

func (w *Worker) Start(queueName string) {
	msgs, err := w.Channel.Consume(
		queueName,
		"",    // consumer
		false, // manual ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		w.log.WithError(err).Fatal("failed to register consumer")
	}

	forever := make(chan bool)

	go func() {
		for d := range msgs {
			var payload NotificationPayload
			if err := json.Unmarshal(d.Body, &payload); err != nil {
				w.log.WithError(err).Warn("malformed notification, rejecting without requeue")
				d.Nack(false, false)
				continue
			}

			if err := w.deliver(payload); err != nil {
				w.log.WithError(err).WithField("kind", payload.Kind).Warn("delivery failed, dead-lettering")
				d.Nack(false, false)
			} else {
				d.Ack(false)
			}
		}
	}()

	w.log.WithField("queue", queueName).Info("notification worker running")
	<-forever
}

func (w *Worker) deliver(payload NotificationPayload) error {
	switch payload.Kind {
	case NotifyProposalSent, NotifyProposalAccepted:
		return w.Mail.SendProposal(payload.To, payload.Name, payload.ProposalTitle, payload.ProposalLink)
	case NotifyBookingConfirmation:
		return w.Mail.SendBookingConfirmation(payload.To, payload.Name, payload.BusinessName,
			payload.ConfirmationCode, payload.BookingDate, payload.BookingStart)
	case NotifyRefundIssued:
		return w.Mail.SendRefundNotice(payload.To, payload.Name, payload.AmountCents)
	case NotifyFollowUpReminder:
		return w.Mail.SendFollowUpReminder(payload.To, payload.Name, payload.BusinessName)
	default:
		// Unknown kind: ack and drop, nothing can handle it.
		w.log.WithField("kind", payload.Kind).Warn("unknown notification kind, dropping")
		return nil
	}
}

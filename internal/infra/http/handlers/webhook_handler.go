package handlers

import (
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/sitekick/pipeline/internal/infra/http/middleware"
	"github.com/sitekick/pipeline/internal/usecase"
)

// WebhookHandler receives the payment processor's asynchronous
// confirmations. It must tolerate replays: the confirm use case absorbs
// duplicates, so a 200 on a replay is correct.
type WebhookHandler struct {
	ConfirmUC *usecase.ConfirmPaymentUseCase
}

func NewWebhookHandler(confirmUC *usecase.ConfirmPaymentUseCase) *WebhookHandler {
	return &WebhookHandler{ConfirmUC: confirmUC}
}

func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var event struct {
		Type string `json:"type"`
		Data struct {
			SessionID      string `json:"session_id"`
			SubscriptionID string `json:"subscription_id"`
		} `json:"data"`
	}

	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		http.Error(w, "bad JSON", http.StatusBadRequest)
		return
	}

	if event.Type != "checkout.session.completed" && event.Type != "invoice.paid" {
		// Not a confirmation event; acknowledge and move on.
		w.WriteHeader(http.StatusOK)
		return
	}

	externalRef := event.Data.SubscriptionID
	if externalRef == "" {
		externalRef = event.Data.SessionID
	}

	err := h.ConfirmUC.Execute(r.Context(), usecase.ConfirmPaymentInput{
		SessionID:   event.Data.SessionID,
		ExternalRef: externalRef,
	})
	if err != nil {
		switch usecase.ErrorCode(err) {
		case usecase.CodeNotFound:
			// Unknown session: log and ack so the processor stops retrying.
			log.WithField("session_id", event.Data.SessionID).Warn("webhook for unknown session")
			w.WriteHeader(http.StatusOK)
		case usecase.CodeExternalService, usecase.CodeDatabase:
			// Transient: non-2xx makes the processor redeliver.
			middleware.RecordIntegrationError("paygate")
			http.Error(w, err.Error(), http.StatusInternalServerError)
		default:
			writeError(w, err)
		}
		return
	}

	middleware.RecordPaymentConfirmed(event.Type)
	w.WriteHeader(http.StatusOK)
}

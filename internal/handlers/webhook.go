package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/movelane/payments/internal/service"
	"github.com/movelane/payments/internal/webhook"
)

// Webhook bodies are small JSON envelopes; anything larger is not ours.
const maxWebhookBody = 1 << 20

// ReceiveWebhook handles POST /payments/webhook.
//
// The raw body is passed through byte-for-byte because the signature covers
// exactly what the provider sent. The endpoint answers 200 as soon as the
// event is durably recorded, even when applying it failed, so the provider
// does not retry-storm an already-captured delivery. 500 means the event
// could not be recorded at all and the provider should redeliver.
func (h *Handler) ReceiveWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "invalid_body", "failed to read request body")
		return
	}

	outcome, err := h.webhooks.Process(r.Context(), body, r.Header)
	switch {
	case outcome == service.OutcomeRecorded, outcome == service.OutcomeDuplicate:
		writeJSON(w, h.logger, http.StatusOK, map[string]bool{"received": true})
	case errors.Is(err, service.ErrMalformedEvent):
		writeError(w, h.logger, http.StatusBadRequest, "malformed_event", err.Error())
	case isSignatureFailure(err):
		writeError(w, h.logger, http.StatusUnauthorized, "invalid_signature", err.Error())
	default:
		h.logger.Error("failed to record webhook event", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, service.ErrCodeInternalError,
			"event could not be recorded")
	}
}

func isSignatureFailure(err error) bool {
	return errors.Is(err, webhook.ErrMissingHeaders) ||
		errors.Is(err, webhook.ErrMalformedTimestamp) ||
		errors.Is(err, webhook.ErrStaleTimestamp) ||
		errors.Is(err, webhook.ErrBadSignature)
}

package handlers

import (
	"net/http"
	"time"

	"github.com/movelane/payments/internal/models"
)

type createRefundRequest struct {
	AmountCents int64  `json:"amount_cents"`
	Reason      string `json:"reason"`
	Initiator   string `json:"initiator"`
}

type refundResponse struct {
	RefundID     string     `json:"refund_id"`
	Status       string     `json:"status"`
	AmountCents  int64      `json:"amount_cents"`
	Currency     string     `json:"currency"`
	Reason       string     `json:"reason,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

func toRefundResponse(refund *models.RefundTransaction) refundResponse {
	return refundResponse{
		RefundID:     refund.ProviderRefundID,
		Status:       string(refund.Status),
		AmountCents:  refund.AmountCents,
		Currency:     refund.Currency,
		Reason:       refund.Reason,
		ErrorMessage: refund.ErrorMessage,
		CreatedAt:    refund.CreatedAt,
		CompletedAt:  refund.CompletedAt,
	}
}

// CreateRefund handles POST /payments/{checkoutID}/refunds
func (h *Handler) CreateRefund(w http.ResponseWriter, r *http.Request) {
	var req createRefundRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "invalid_body", "request body is not valid JSON")
		return
	}

	refund, err := h.refunds.Initiate(r.Context(), r.PathValue("checkoutID"),
		req.AmountCents, req.Reason, req.Initiator)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusCreated, toRefundResponse(refund))
}

// ListRefunds handles GET /payments/{checkoutID}/refunds
func (h *Handler) ListRefunds(w http.ResponseWriter, r *http.Request) {
	refunds, err := h.refunds.ListByCheckoutID(r.Context(), r.PathValue("checkoutID"))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	out := make([]refundResponse, 0, len(refunds))
	for _, refund := range refunds {
		out = append(out, toRefundResponse(refund))
	}
	writeJSON(w, h.logger, http.StatusOK, out)
}

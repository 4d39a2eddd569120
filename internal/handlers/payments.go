package handlers

import (
	"net/http"
	"time"

	"github.com/movelane/payments/internal/models"
	"github.com/movelane/payments/internal/service"
)

type createPaymentRequest struct {
	ExternalReference string `json:"external_reference"`
	CustomerID        string `json:"customer_id"`
	RecipientID       string `json:"recipient_id"`
	BookingReference  string `json:"booking_reference"`
	AmountCents       int64  `json:"amount_cents"`
	Currency          string `json:"currency"`
	SuccessURL        string `json:"success_url"`
	CancelURL         string `json:"cancel_url"`
	FailureURL        string `json:"failure_url"`
	Metadata          string `json:"metadata"`
}

type paymentResponse struct {
	CheckoutID        string     `json:"checkout_id"`
	ExternalReference string     `json:"external_reference"`
	Status            string     `json:"status"`
	AmountCents       int64      `json:"amount_cents"`
	Currency          string     `json:"currency"`
	RedirectURL       string     `json:"redirect_url,omitempty"`
	ErrorCode         string     `json:"error_code,omitempty"`
	ErrorMessage      string     `json:"error_message,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
}

func toPaymentResponse(txn *models.PaymentTransaction) paymentResponse {
	return paymentResponse{
		CheckoutID:        txn.CheckoutID,
		ExternalReference: txn.ExternalRef,
		Status:            string(txn.Status),
		AmountCents:       txn.AmountCents,
		Currency:          txn.Currency,
		RedirectURL:       txn.RedirectURL,
		ErrorCode:         txn.ErrorCode,
		ErrorMessage:      txn.ErrorMessage,
		CreatedAt:         txn.CreatedAt,
		CompletedAt:       txn.CompletedAt,
	}
}

// CreatePayment handles POST /payments
func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var req createPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "invalid_body", "request body is not valid JSON")
		return
	}

	result, err := h.payments.Initiate(r.Context(), service.InitiatePaymentRequest{
		ExternalRef: req.ExternalReference,
		CustomerID:  req.CustomerID,
		RecipientID: req.RecipientID,
		BookingRef:  req.BookingReference,
		AmountCents: req.AmountCents,
		Currency:    req.Currency,
		SuccessURL:  req.SuccessURL,
		CancelURL:   req.CancelURL,
		FailureURL:  req.FailureURL,
		Metadata:    req.Metadata,
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	// A replayed initiation returns the existing transaction, not an error.
	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
		w.Header().Set("X-Idempotent-Replayed", "true")
	}
	writeJSON(w, h.logger, status, toPaymentResponse(result.Transaction))
}

// GetPayment handles GET /payments/{checkoutID}
func (h *Handler) GetPayment(w http.ResponseWriter, r *http.Request) {
	txn, err := h.paymentReader.GetByCheckoutID(r.Context(), r.PathValue("checkoutID"))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, toPaymentResponse(txn))
}

// ListPayments handles GET /payments?external_reference=
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	ref := r.URL.Query().Get("external_reference")
	if ref == "" {
		writeError(w, h.logger, http.StatusBadRequest, service.ErrCodeMissingReference,
			"external_reference query parameter is required")
		return
	}

	txn, err := h.paymentReader.GetByExternalRef(r.Context(), ref)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, toPaymentResponse(txn))
}

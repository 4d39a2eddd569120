package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentStatus represents the lifecycle state of a payment transaction
type PaymentStatus string

const (
	PaymentStatusCreated           PaymentStatus = "CREATED"
	PaymentStatusPending           PaymentStatus = "PENDING"
	PaymentStatusProcessing        PaymentStatus = "PROCESSING"
	PaymentStatusSucceeded         PaymentStatus = "SUCCEEDED"
	PaymentStatusFailed            PaymentStatus = "FAILED"
	PaymentStatusCancelled         PaymentStatus = "CANCELLED"
	PaymentStatusExpired           PaymentStatus = "EXPIRED"
	PaymentStatusRefunded          PaymentStatus = "REFUNDED"
	PaymentStatusPartiallyRefunded PaymentStatus = "PARTIALLY_REFUNDED"
)

// TerminalPaymentStatuses lists every status from which the primary flow
// admits no further transition. SUCCEEDED and PARTIALLY_REFUNDED still
// accept refund-driven transitions.
var TerminalPaymentStatuses = []PaymentStatus{
	PaymentStatusSucceeded,
	PaymentStatusFailed,
	PaymentStatusCancelled,
	PaymentStatusExpired,
	PaymentStatusRefunded,
	PaymentStatusPartiallyRefunded,
}

// IsTerminal reports whether the status ends the primary payment flow.
func (s PaymentStatus) IsTerminal() bool {
	for _, t := range TerminalPaymentStatuses {
		if s == t {
			return true
		}
	}
	return false
}

// PaymentTransaction is the durable record of a single checkout with the
// payment provider. Amount and currency are immutable after creation; status
// is only ever changed through the state machine's transition rules, guarded
// by the optimistic Version counter.
type PaymentTransaction struct {
	ID             uuid.UUID     `db:"id"`
	CheckoutID     string        `db:"checkout_id"`
	ExternalRef    string        `db:"external_reference"`
	IdempotencyKey string        `db:"idempotency_key"`
	CustomerID     string        `db:"customer_id"`
	RecipientID    string        `db:"recipient_id"`
	BookingRef     string        `db:"booking_reference"`
	AmountCents    int64         `db:"amount_cents"`
	Currency       string        `db:"currency"`
	Status         PaymentStatus `db:"status"`
	RedirectURL    string        `db:"redirect_url"`
	ProcessingMode string        `db:"processing_mode"`
	Metadata       string        `db:"metadata"`
	ErrorCode      string        `db:"error_code"`
	ErrorMessage   string        `db:"error_message"`
	Version        int64         `db:"version"`
	CreatedAt      time.Time     `db:"created_at"`
	UpdatedAt      time.Time     `db:"updated_at"`
	CompletedAt    *time.Time    `db:"completed_at"`
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// RefundStatus represents the lifecycle state of a refund transaction
type RefundStatus string

const (
	RefundStatusPending   RefundStatus = "PENDING"
	RefundStatusSucceeded RefundStatus = "SUCCEEDED"
	RefundStatusFailed    RefundStatus = "FAILED"
)

// RefundTransaction is owned by its parent payment. The sum of succeeded
// refund amounts for one payment must never exceed the payment's amount;
// the refund service enforces this before creating a PENDING refund.
type RefundTransaction struct {
	ID               uuid.UUID    `db:"id"`
	PaymentID        uuid.UUID    `db:"payment_id"`
	ProviderRefundID string       `db:"provider_refund_id"`
	AmountCents      int64        `db:"amount_cents"`
	Currency         string       `db:"currency"`
	Status           RefundStatus `db:"status"`
	Reason           string       `db:"reason"`
	InitiatedBy      string       `db:"initiated_by"`
	ErrorMessage     string       `db:"error_message"`
	CreatedAt        time.Time    `db:"created_at"`
	CompletedAt      *time.Time   `db:"completed_at"`
}

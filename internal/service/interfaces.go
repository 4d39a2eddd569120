package service

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/movelane/payments/internal/models"
	"github.com/movelane/payments/internal/provider"
	"github.com/movelane/payments/internal/worker"
)

// HealthChecker validates system health.
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// CheckoutProvider is the outbound RPC surface of the payment provider.
type CheckoutProvider interface {
	CreateCheckout(ctx context.Context, idempotencyKey string, req provider.CreateCheckoutRequest) (*provider.Checkout, error)
	CreateRefund(ctx context.Context, checkoutID string, req provider.CreateRefundRequest) (*provider.Refund, error)
}

// SignatureVerifier authenticates inbound webhook deliveries.
type SignatureVerifier interface {
	Verify(body []byte, headers http.Header) error
}

// AttemptLimiter throttles initiation attempts per key.
type AttemptLimiter interface {
	Allow(key string) bool
}

// Dispatcher hands work to the background pool without blocking. A false
// return means the job was not accepted and went to the dead-letter path.
type Dispatcher interface {
	Dispatch(job worker.Job) bool
}

// Fulfiller runs the post-success side-effect pipeline.
type Fulfiller interface {
	Fulfill(ctx context.Context, payment *models.PaymentTransaction) error
}

// Collaborator interfaces consumed by the fulfillment pipeline. Their
// implementations (booking persistence, notification transport, receipt
// rendering) live outside this service.

// BookingUpdater transitions the downstream booking record.
type BookingUpdater interface {
	UpdateStatus(ctx context.Context, bookingRef, status string) error
}

// Notifier delivers a notification of the given kind to a recipient.
type Notifier interface {
	Notify(ctx context.Context, recipientID, kind string, payload map[string]string) error
}

// ReceiptIssuer issues a receipt document for a payment.
type ReceiptIssuer interface {
	Issue(ctx context.Context, paymentID uuid.UUID, templateID string) error
}

// PaymentInitiator handles payment initiation
type PaymentInitiator interface {
	Initiate(ctx context.Context, req InitiatePaymentRequest) (*InitiatePaymentResult, error)
}

// PaymentReader handles payment status lookups
type PaymentReader interface {
	GetByCheckoutID(ctx context.Context, checkoutID string) (*models.PaymentTransaction, error)
	GetByExternalRef(ctx context.Context, externalRef string) (*models.PaymentTransaction, error)
}

// RefundInitiator handles refund operations
type RefundInitiator interface {
	Initiate(ctx context.Context, checkoutID string, amountCents int64, reason, initiator string) (*models.RefundTransaction, error)
	ListByCheckoutID(ctx context.Context, checkoutID string) ([]*models.RefundTransaction, error)
}

// WebhookReceiver handles inbound webhook deliveries
type WebhookReceiver interface {
	Process(ctx context.Context, body []byte, headers http.Header) (ProcessOutcome, error)
}

// Ensure concrete types implement interfaces
var (
	_ CheckoutProvider = (*provider.Client)(nil)
	_ Fulfiller        = (*FulfillmentCoordinator)(nil)
	_ PaymentInitiator = (*PaymentService)(nil)
	_ PaymentReader    = (*PaymentService)(nil)
	_ RefundInitiator  = (*RefundService)(nil)
	_ WebhookReceiver  = (*WebhookProcessor)(nil)
)

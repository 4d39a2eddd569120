package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/movelane/payments/internal/models"
	"github.com/movelane/payments/internal/provider"
	"github.com/movelane/payments/internal/repository"
)

// RefundService handles refund initiation. Completion is driven by webhook
// delivery, see WebhookProcessor.
type RefundService struct {
	payments repository.PaymentRepository
	refunds  repository.RefundRepository
	provider CheckoutProvider
	logger   *slog.Logger
	now      func() time.Time
}

// NewRefundService creates a new RefundService
func NewRefundService(
	payments repository.PaymentRepository,
	refunds repository.RefundRepository,
	checkoutProvider CheckoutProvider,
	logger *slog.Logger,
) *RefundService {
	return &RefundService{
		payments: payments,
		refunds:  refunds,
		provider: checkoutProvider,
		logger:   logger,
		now:      time.Now,
	}
}

// Initiate validates the refund preconditions, asks the provider to refund
// the checkout and persists the PENDING refund.
//
// The parent payment must have succeeded (possibly with earlier partial
// refunds), and the requested amount must not exceed what remains after
// earlier refunds. Pending refunds count against the remainder: two
// concurrent refunds must never reserve more than the payment amount
// between them.
func (s *RefundService) Initiate(ctx context.Context, checkoutID string, amountCents int64, reason, initiator string) (*models.RefundTransaction, error) {
	if amountCents <= 0 {
		return nil, &ServiceError{
			Code:    ErrCodeInvalidAmount,
			Message: fmt.Sprintf("refund amount must be positive, got %d", amountCents),
		}
	}

	payment, err := s.payments.FindByCheckoutID(ctx, checkoutID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, &ServiceError{Code: ErrCodePaymentNotFound, Message: "payment not found"}
	}
	if err != nil {
		return nil, err
	}

	if !isRefundable(payment.Status) {
		return nil, &ServiceError{
			Code:    ErrCodePaymentNotRefundable,
			Message: fmt.Sprintf("payment in status %s cannot be refunded", payment.Status),
		}
	}

	reserved, err := s.refunds.SumReservedByPayment(ctx, payment.ID)
	if err != nil {
		return nil, err
	}

	remaining := payment.AmountCents - reserved
	if amountCents > remaining {
		return nil, &ServiceError{
			Code: ErrCodeRefundExceedsRemaining,
			Message: fmt.Sprintf("refund amount %d exceeds remaining refundable amount %d",
				amountCents, remaining),
		}
	}

	providerRefund, err := s.provider.CreateRefund(ctx, checkoutID, provider.CreateRefundRequest{
		AmountCents: amountCents,
		Reason:      reason,
	})
	if err != nil {
		return nil, &ServiceError{
			Code:    ErrCodeProviderError,
			Message: "provider rejected refund creation",
			Err:     err,
		}
	}

	refund := &models.RefundTransaction{
		ID:               uuid.New(),
		PaymentID:        payment.ID,
		ProviderRefundID: providerRefund.ID,
		AmountCents:      amountCents,
		Currency:         payment.Currency,
		Status:           models.RefundStatusPending,
		Reason:           reason,
		InitiatedBy:      initiator,
		CreatedAt:        s.now().UTC(),
	}

	if err := s.refunds.Create(ctx, refund); err != nil {
		if errors.Is(err, models.ErrDuplicateTransaction) {
			return nil, &ServiceError{
				Code:    ErrCodeDuplicateRefund,
				Message: "refund already recorded for this provider refund id",
			}
		}
		return nil, fmt.Errorf("failed to persist refund transaction: %w", err)
	}

	s.logger.Info("refund initiated",
		"checkout_id", checkoutID,
		"refund_id", refund.ProviderRefundID,
		"amount_cents", amountCents,
		"initiated_by", initiator,
	)

	return refund, nil
}

// ListByCheckoutID returns all refunds for a payment, identified by checkout id.
func (s *RefundService) ListByCheckoutID(ctx context.Context, checkoutID string) ([]*models.RefundTransaction, error) {
	payment, err := s.payments.FindByCheckoutID(ctx, checkoutID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, &ServiceError{Code: ErrCodePaymentNotFound, Message: "payment not found"}
	}
	if err != nil {
		return nil, err
	}
	return s.refunds.ListByPayment(ctx, payment.ID)
}

func isRefundable(s models.PaymentStatus) bool {
	return s == models.PaymentStatusSucceeded || s == models.PaymentStatusPartiallyRefunded
}

// completeRefund moves a refund to its terminal state and, on success,
// drives the parent payment to REFUNDED or PARTIALLY_REFUNDED. Refund
// completion is the only trigger for those two payment transitions besides
// direct webhook delivery.
func completeRefund(
	ctx context.Context,
	payments repository.PaymentRepository,
	refunds repository.RefundRepository,
	refund *models.RefundTransaction,
	target models.RefundStatus,
	errorMessage string,
	now time.Time,
	logger *slog.Logger,
) error {
	apply, err := PlanRefundTransition(refund.Status, target)
	if err != nil {
		logger.Error("refund transition anomaly requires manual review",
			"refund_id", refund.ProviderRefundID,
			"current_status", refund.Status,
			"target_status", target,
			"alert", true,
		)
		return &ServiceError{
			Code:    ErrCodeIllegalTransition,
			Message: fmt.Sprintf("cannot move refund %s from %s to %s", refund.ProviderRefundID, refund.Status, target),
			Err:     err,
		}
	}
	if !apply {
		return nil
	}

	// The settlement must not push succeeded refunds past the payment
	// amount, even if the provider reports it. Leave the refund as is and
	// flag it instead of applying.
	var payment *models.PaymentTransaction
	var refunded int64
	if target == models.RefundStatusSucceeded {
		payment, err = payments.FindByID(ctx, refund.PaymentID)
		if err != nil {
			return err
		}
		refunded, err = refunds.SumSucceededByPayment(ctx, payment.ID)
		if err != nil {
			return err
		}
		if refunded+refund.AmountCents > payment.AmountCents {
			logger.Error("refund settlement exceeds payment amount, requires manual review",
				"refund_id", refund.ProviderRefundID,
				"refund_amount_cents", refund.AmountCents,
				"already_refunded_cents", refunded,
				"payment_amount_cents", payment.AmountCents,
				"alert", true,
			)
			return &ServiceError{
				Code: ErrCodeIllegalTransition,
				Message: fmt.Sprintf("refund %s of %d would exceed payment amount %d with %d already refunded",
					refund.ProviderRefundID, refund.AmountCents, payment.AmountCents, refunded),
			}
		}
	}

	completedAt := now
	refund.Status = target
	refund.ErrorMessage = errorMessage
	refund.CompletedAt = &completedAt
	if err := refunds.Update(ctx, refund); err != nil {
		return err
	}

	logger.Info("refund transitioned",
		"refund_id", refund.ProviderRefundID,
		"status", refund.Status,
	)

	if target != models.RefundStatusSucceeded {
		return nil
	}

	refunded += refund.AmountCents
	parentTarget := models.PaymentStatusPartiallyRefunded
	if refunded >= payment.AmountCents {
		parentTarget = models.PaymentStatusRefunded
	}

	_, _, err = transitionPayment(ctx, payments, payment.ID, transitionChange{
		target: parentTarget,
		at:     now,
	}, logger)
	return err
}

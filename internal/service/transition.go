package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/movelane/payments/internal/models"
	"github.com/movelane/payments/internal/repository"
)

// How many times a transition is retried after losing a version race.
const maxTransitionAttempts = 3

// transitionChange carries the fields stamped alongside a status change.
type transitionChange struct {
	target       models.PaymentStatus
	errorCode    string
	errorMessage string
	at           time.Time
}

// transitionPayment applies a status change to the payment with the given
// internal id under optimistic concurrency control: read, plan, compare-and-
// swap, and retry on a lost race. It returns the transaction as written and
// whether the state actually moved; the "applied" edge is what gates
// exactly-once side effects.
func transitionPayment(
	ctx context.Context,
	payments repository.PaymentRepository,
	id uuid.UUID,
	change transitionChange,
	logger *slog.Logger,
) (*models.PaymentTransaction, bool, error) {
	for attempt := 1; attempt <= maxTransitionAttempts; attempt++ {
		txn, err := payments.FindByID(ctx, id)
		if err != nil {
			return nil, false, err
		}

		apply, err := PlanPaymentTransition(txn.Status, change.target)
		if err != nil {
			logger.Error("payment transition anomaly requires manual review",
				"checkout_id", txn.CheckoutID,
				"current_status", txn.Status,
				"target_status", change.target,
				"alert", true,
			)
			return txn, false, &ServiceError{
				Code:    ErrCodeIllegalTransition,
				Message: fmt.Sprintf("cannot move %s from %s to %s", txn.CheckoutID, txn.Status, change.target),
				Err:     err,
			}
		}
		if !apply {
			logger.Debug("payment transition is a no-op",
				"checkout_id", txn.CheckoutID,
				"current_status", txn.Status,
				"target_status", change.target,
			)
			return txn, false, nil
		}

		txn.Status = change.target
		txn.ErrorCode = change.errorCode
		txn.ErrorMessage = change.errorMessage
		if txn.CompletedAt == nil && isCompletion(change.target) {
			at := change.at
			txn.CompletedAt = &at
		}

		err = payments.Update(ctx, txn)
		if errors.Is(err, models.ErrVersionConflict) {
			logger.Debug("payment transition lost version race, retrying",
				"checkout_id", txn.CheckoutID,
				"attempt", attempt,
			)
			continue
		}
		if err != nil {
			return nil, false, err
		}

		logger.Info("payment transitioned",
			"checkout_id", txn.CheckoutID,
			"status", txn.Status,
		)
		return txn, true, nil
	}

	return nil, false, fmt.Errorf("payment %s: %w after %d attempts",
		id, models.ErrVersionConflict, maxTransitionAttempts)
}

func isCompletion(s models.PaymentStatus) bool {
	return s == models.PaymentStatusSucceeded || s == models.PaymentStatusFailed
}

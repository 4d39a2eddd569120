package service

import (
	"errors"
	"fmt"

	"github.com/movelane/payments/internal/models"
)

// ErrIllegalTransition indicates a move between two different terminal
// states. That only happens when the provider contradicts itself, so it is
// never auto-resolved; it is logged as an anomaly for manual review.
var ErrIllegalTransition = errors.New("illegal state transition")

// paymentTransitions holds the legal forward moves of a payment transaction.
// Webhooks may arrive out of order, so every forward jump is legal (a
// success delivery can land while the transaction is still CREATED).
var paymentTransitions = map[models.PaymentStatus][]models.PaymentStatus{
	models.PaymentStatusCreated: {
		models.PaymentStatusPending,
		models.PaymentStatusProcessing,
		models.PaymentStatusSucceeded,
		models.PaymentStatusFailed,
		models.PaymentStatusCancelled,
		models.PaymentStatusExpired,
	},
	models.PaymentStatusPending: {
		models.PaymentStatusProcessing,
		models.PaymentStatusSucceeded,
		models.PaymentStatusFailed,
		models.PaymentStatusCancelled,
		models.PaymentStatusExpired,
	},
	models.PaymentStatusProcessing: {
		models.PaymentStatusSucceeded,
		models.PaymentStatusFailed,
		models.PaymentStatusCancelled,
		models.PaymentStatusExpired,
	},
	models.PaymentStatusSucceeded: {
		models.PaymentStatusRefunded,
		models.PaymentStatusPartiallyRefunded,
	},
	models.PaymentStatusPartiallyRefunded: {
		models.PaymentStatusRefunded,
		models.PaymentStatusPartiallyRefunded,
	},
}

// PlanPaymentTransition decides how a reported target status applies to the
// current one:
//
//   - same state: no-op success (apply=false, nil), which is what makes
//     duplicate webhook delivery safe;
//   - legal forward move: apply=true;
//   - two different terminal states: ErrIllegalTransition;
//   - anything else (a late, out-of-order report of an earlier state):
//     stale no-op (apply=false, nil).
func PlanPaymentTransition(current, target models.PaymentStatus) (bool, error) {
	if current == target {
		return false, nil
	}

	for _, next := range paymentTransitions[current] {
		if next == target {
			return true, nil
		}
	}

	if current.IsTerminal() && target.IsTerminal() {
		return false, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, current, target)
	}

	return false, nil
}

// PlanRefundTransition applies the same rules to the refund lifecycle
// (PENDING -> SUCCEEDED | FAILED, both terminal).
func PlanRefundTransition(current, target models.RefundStatus) (bool, error) {
	if current == target {
		return false, nil
	}

	if current == models.RefundStatusPending &&
		(target == models.RefundStatusSucceeded || target == models.RefundStatusFailed) {
		return true, nil
	}

	return false, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, current, target)
}

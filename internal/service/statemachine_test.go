package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/movelane/payments/internal/models"
)

func TestPlanPaymentTransition(t *testing.T) {
	tests := []struct {
		name    string
		current models.PaymentStatus
		target  models.PaymentStatus
		apply   bool
		wantErr bool
	}{
		{"created to pending", models.PaymentStatusCreated, models.PaymentStatusPending, true, false},
		{"pending to processing", models.PaymentStatusPending, models.PaymentStatusProcessing, true, false},
		{"processing to succeeded", models.PaymentStatusProcessing, models.PaymentStatusSucceeded, true, false},
		{"processing to failed", models.PaymentStatusProcessing, models.PaymentStatusFailed, true, false},
		{"created jumps straight to succeeded", models.PaymentStatusCreated, models.PaymentStatusSucceeded, true, false},
		{"created jumps straight to expired", models.PaymentStatusCreated, models.PaymentStatusExpired, true, false},
		{"succeeded to refunded", models.PaymentStatusSucceeded, models.PaymentStatusRefunded, true, false},
		{"succeeded to partially refunded", models.PaymentStatusSucceeded, models.PaymentStatusPartiallyRefunded, true, false},
		{"partially refunded to refunded", models.PaymentStatusPartiallyRefunded, models.PaymentStatusRefunded, true, false},

		// Duplicate delivery of the same status is a no-op, never an error.
		{"same state created", models.PaymentStatusCreated, models.PaymentStatusCreated, false, false},
		{"same state succeeded", models.PaymentStatusSucceeded, models.PaymentStatusSucceeded, false, false},
		{"same state failed", models.PaymentStatusFailed, models.PaymentStatusFailed, false, false},

		// Late out-of-order reports of earlier states are silently ignored.
		{"stale pending after processing", models.PaymentStatusProcessing, models.PaymentStatusPending, false, false},
		{"stale processing after succeeded", models.PaymentStatusSucceeded, models.PaymentStatusProcessing, false, false},
		{"stale created after failed", models.PaymentStatusFailed, models.PaymentStatusCreated, false, false},

		// Two contradictory terminal states are an anomaly.
		{"succeeded then failed", models.PaymentStatusSucceeded, models.PaymentStatusFailed, false, true},
		{"failed then succeeded", models.PaymentStatusFailed, models.PaymentStatusSucceeded, false, true},
		{"cancelled then expired", models.PaymentStatusCancelled, models.PaymentStatusExpired, false, true},
		{"failed then refunded", models.PaymentStatusFailed, models.PaymentStatusRefunded, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apply, err := PlanPaymentTransition(tt.current, tt.target)

			assert.Equal(t, tt.apply, apply)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrIllegalTransition)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPlanRefundTransition(t *testing.T) {
	tests := []struct {
		name    string
		current models.RefundStatus
		target  models.RefundStatus
		apply   bool
		wantErr bool
	}{
		{"pending to succeeded", models.RefundStatusPending, models.RefundStatusSucceeded, true, false},
		{"pending to failed", models.RefundStatusPending, models.RefundStatusFailed, true, false},
		{"duplicate succeeded", models.RefundStatusSucceeded, models.RefundStatusSucceeded, false, false},
		{"duplicate failed", models.RefundStatusFailed, models.RefundStatusFailed, false, false},
		{"succeeded then failed", models.RefundStatusSucceeded, models.RefundStatusFailed, false, true},
		{"failed then succeeded", models.RefundStatusFailed, models.RefundStatusSucceeded, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apply, err := PlanRefundTransition(tt.current, tt.target)

			assert.Equal(t, tt.apply, apply)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrIllegalTransition)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

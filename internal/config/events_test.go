package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/movelane/payments/internal/models"
)

func TestLoadEventMapping(t *testing.T) {
	events, err := LoadEventMapping()
	require.NoError(t, err)

	t.Run("payment event types resolve", func(t *testing.T) {
		tests := map[string]models.PaymentStatus{
			"payment.pending":    models.PaymentStatusPending,
			"payment.processing": models.PaymentStatusProcessing,
			"payment.succeeded":  models.PaymentStatusSucceeded,
			"payment.failed":     models.PaymentStatusFailed,
			"payment.cancelled":  models.PaymentStatusCancelled,
			"payment.expired":    models.PaymentStatusExpired,
		}
		for eventType, want := range tests {
			got, ok := events.PaymentTarget(eventType)
			assert.True(t, ok, eventType)
			assert.Equal(t, want, got, eventType)
		}
	})

	t.Run("refund event types resolve", func(t *testing.T) {
		got, ok := events.RefundTarget("refund.succeeded")
		assert.True(t, ok)
		assert.Equal(t, models.RefundStatusSucceeded, got)

		got, ok = events.RefundTarget("refund.failed")
		assert.True(t, ok)
		assert.Equal(t, models.RefundStatusFailed, got)
	})

	t.Run("unknown event types are not handled", func(t *testing.T) {
		_, ok := events.PaymentTarget("payment.method_attached")
		assert.False(t, ok)

		_, ok = events.RefundTarget("checkout.session_viewed")
		assert.False(t, ok)
	})
}

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/movelane/payments/internal/models"
)

func newTestRefund(paymentID uuid.UUID, providerRefundID string, amount int64) *models.RefundTransaction {
	return &models.RefundTransaction{
		ID:               uuid.New(),
		PaymentID:        paymentID,
		ProviderRefundID: providerRefundID,
		AmountCents:      amount,
		Currency:         "ZAR",
		Status:           models.RefundStatusPending,
		InitiatedBy:      "support",
		CreatedAt:        time.Now().UTC().Truncate(time.Microsecond),
	}
}

func TestRefundRepository(t *testing.T) {
	database := setupTestDB(t)
	payments := NewPaymentRepository(database)
	refunds := NewRefundRepository(database)
	ctx := context.Background()

	parent := newTestPayment("chk_refund", "booking-refund")
	require.NoError(t, payments.Create(ctx, parent))

	first := newTestRefund(parent.ID, "rf_first", 4000)
	require.NoError(t, refunds.Create(ctx, first))

	t.Run("duplicate provider refund id rejected", func(t *testing.T) {
		dup := newTestRefund(parent.ID, "rf_first", 4000)
		assert.ErrorIs(t, refunds.Create(ctx, dup), models.ErrDuplicateTransaction)
	})

	t.Run("find by provider refund id", func(t *testing.T) {
		found, err := refunds.FindByProviderRefundID(ctx, "rf_first")
		require.NoError(t, err)
		assert.Equal(t, first.ID, found.ID)
		assert.Equal(t, models.RefundStatusPending, found.Status)
	})

	t.Run("sum counts succeeded refunds only", func(t *testing.T) {
		total, err := refunds.SumSucceededByPayment(ctx, parent.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(0), total)

		// Pending refunds already count toward the reservation.
		reserved, err := refunds.SumReservedByPayment(ctx, parent.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(4000), reserved)

		completedAt := time.Now().UTC().Truncate(time.Microsecond)
		first.Status = models.RefundStatusSucceeded
		first.CompletedAt = &completedAt
		require.NoError(t, refunds.Update(ctx, first))

		total, err = refunds.SumSucceededByPayment(ctx, parent.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(4000), total)
	})

	t.Run("list returns all refunds oldest first", func(t *testing.T) {
		second := newTestRefund(parent.ID, "rf_second", 1000)
		require.NoError(t, refunds.Create(ctx, second))

		all, err := refunds.ListByPayment(ctx, parent.ID)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, "rf_first", all[0].ProviderRefundID)
		assert.Equal(t, "rf_second", all[1].ProviderRefundID)
	})

	t.Run("updating an unknown refund surfaces not found", func(t *testing.T) {
		ghost := newTestRefund(parent.ID, "rf_ghost", 100)
		assert.ErrorIs(t, refunds.Update(ctx, ghost), models.ErrNotFound)
	})
}

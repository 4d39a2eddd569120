package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/movelane/payments/internal/models"
	"github.com/movelane/payments/internal/provider"
	"github.com/movelane/payments/internal/repository/mocks"
)

// fakeProvider records calls and returns canned responses without HTTP.
type fakeProvider struct {
	checkout      *provider.Checkout
	checkoutErr   error
	refund        *provider.Refund
	refundErr     error
	checkoutCalls int
	refundCalls   int
	lastKey       string
}

func (f *fakeProvider) CreateCheckout(_ context.Context, idempotencyKey string, _ provider.CreateCheckoutRequest) (*provider.Checkout, error) {
	f.checkoutCalls++
	f.lastKey = idempotencyKey
	return f.checkout, f.checkoutErr
}

func (f *fakeProvider) CreateRefund(_ context.Context, _ string, _ provider.CreateRefundRequest) (*provider.Refund, error) {
	f.refundCalls++
	return f.refund, f.refundErr
}

type allowAll struct{}

func (allowAll) Allow(string) bool { return true }

type denyAll struct{}

func (denyAll) Allow(string) bool { return false }

func validRequest() InitiatePaymentRequest {
	return InitiatePaymentRequest{
		ExternalRef: "booking-1042",
		CustomerID:  "cust_77",
		RecipientID: "driver_12",
		BookingRef:  "bk_1042",
		AmountCents: 125000,
		Currency:    "ZAR",
		SuccessURL:  "https://app.example.com/pay/success",
		CancelURL:   "https://app.example.com/pay/cancel",
	}
}

func TestDeriveIdempotencyKey(t *testing.T) {
	bucket := 2 * time.Minute
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("same bucket yields same key", func(t *testing.T) {
		first := DeriveIdempotencyKey("booking-1", base, bucket)
		second := DeriveIdempotencyKey("booking-1", base.Add(90*time.Second), bucket)
		assert.Equal(t, first, second)
	})

	t.Run("next bucket yields different key", func(t *testing.T) {
		first := DeriveIdempotencyKey("booking-1", base, bucket)
		second := DeriveIdempotencyKey("booking-1", base.Add(bucket+time.Second), bucket)
		assert.NotEqual(t, first, second)
	})

	t.Run("different references never collide", func(t *testing.T) {
		first := DeriveIdempotencyKey("booking-1", base, bucket)
		second := DeriveIdempotencyKey("booking-2", base, bucket)
		assert.NotEqual(t, first, second)
	})
}

func TestPaymentService_Initiate(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	bucket := 2 * time.Minute

	t.Run("successful initiation", func(t *testing.T) {
		mockRepo := mocks.NewMockPaymentRepository(t)
		prov := &fakeProvider{checkout: &provider.Checkout{
			ID:          "chk_abc",
			Status:      "CREATED",
			RedirectURL: "https://pay.provider.test/chk_abc",
			Mode:        "live",
		}}
		svc := NewPaymentService(mockRepo, prov, allowAll{}, bucket, slog.Default())
		svc.now = func() time.Time { return now }

		req := validRequest()
		key := DeriveIdempotencyKey(req.ExternalRef, now, bucket)

		mockRepo.On("FindActiveByExternalRef", ctx, req.ExternalRef).Return(nil, models.ErrNotFound)
		mockRepo.On("FindByIdempotencyKey", ctx, key).Return(nil, models.ErrNotFound)
		mockRepo.On("Create", ctx, mock.AnythingOfType("*models.PaymentTransaction")).Return(nil)

		result, err := svc.Initiate(ctx, req)

		require.NoError(t, err)
		assert.False(t, result.Replayed)
		assert.Equal(t, "chk_abc", result.Transaction.CheckoutID)
		assert.Equal(t, key, result.Transaction.IdempotencyKey)
		assert.Equal(t, models.PaymentStatusCreated, result.Transaction.Status)
		assert.Equal(t, "https://pay.provider.test/chk_abc", result.Transaction.RedirectURL)
		assert.Equal(t, key, prov.lastKey)
	})

	t.Run("active transaction short-circuits without provider call", func(t *testing.T) {
		mockRepo := mocks.NewMockPaymentRepository(t)
		prov := &fakeProvider{}
		svc := NewPaymentService(mockRepo, prov, allowAll{}, bucket, slog.Default())
		svc.now = func() time.Time { return now }

		req := validRequest()
		existing := &models.PaymentTransaction{
			ID:         uuid.New(),
			CheckoutID: "chk_existing",
			Status:     models.PaymentStatusPending,
		}
		mockRepo.On("FindActiveByExternalRef", ctx, req.ExternalRef).Return(existing, nil)

		result, err := svc.Initiate(ctx, req)

		require.NoError(t, err)
		assert.True(t, result.Replayed)
		assert.Equal(t, "chk_existing", result.Transaction.CheckoutID)
		assert.Zero(t, prov.checkoutCalls)
	})

	t.Run("idempotency key replay without provider call", func(t *testing.T) {
		mockRepo := mocks.NewMockPaymentRepository(t)
		prov := &fakeProvider{}
		svc := NewPaymentService(mockRepo, prov, allowAll{}, bucket, slog.Default())
		svc.now = func() time.Time { return now }

		req := validRequest()
		key := DeriveIdempotencyKey(req.ExternalRef, now, bucket)
		existing := &models.PaymentTransaction{
			ID:         uuid.New(),
			CheckoutID: "chk_replay",
			Status:     models.PaymentStatusFailed,
		}
		mockRepo.On("FindActiveByExternalRef", ctx, req.ExternalRef).Return(nil, models.ErrNotFound)
		mockRepo.On("FindByIdempotencyKey", ctx, key).Return(existing, nil)

		result, err := svc.Initiate(ctx, req)

		require.NoError(t, err)
		assert.True(t, result.Replayed)
		assert.Equal(t, "chk_replay", result.Transaction.CheckoutID)
		assert.Zero(t, prov.checkoutCalls)
	})

	t.Run("lost insert race returns the winner", func(t *testing.T) {
		mockRepo := mocks.NewMockPaymentRepository(t)
		prov := &fakeProvider{checkout: &provider.Checkout{ID: "chk_loser"}}
		svc := NewPaymentService(mockRepo, prov, allowAll{}, bucket, slog.Default())
		svc.now = func() time.Time { return now }

		req := validRequest()
		key := DeriveIdempotencyKey(req.ExternalRef, now, bucket)
		winner := &models.PaymentTransaction{ID: uuid.New(), CheckoutID: "chk_winner"}

		mockRepo.On("FindActiveByExternalRef", ctx, req.ExternalRef).Return(nil, models.ErrNotFound).Once()
		mockRepo.On("FindByIdempotencyKey", ctx, key).Return(nil, models.ErrNotFound).Once()
		mockRepo.On("Create", ctx, mock.AnythingOfType("*models.PaymentTransaction")).Return(models.ErrDuplicateTransaction)
		mockRepo.On("FindByIdempotencyKey", ctx, key).Return(winner, nil).Once()

		result, err := svc.Initiate(ctx, req)

		require.NoError(t, err)
		assert.True(t, result.Replayed)
		assert.Equal(t, "chk_winner", result.Transaction.CheckoutID)
	})

	t.Run("throttled customer", func(t *testing.T) {
		mockRepo := mocks.NewMockPaymentRepository(t)
		svc := NewPaymentService(mockRepo, &fakeProvider{}, denyAll{}, bucket, slog.Default())

		_, err := svc.Initiate(ctx, validRequest())

		var svcErr *ServiceError
		require.ErrorAs(t, err, &svcErr)
		assert.Equal(t, ErrCodeThrottled, svcErr.Code)
	})

	t.Run("provider failure persists nothing", func(t *testing.T) {
		mockRepo := mocks.NewMockPaymentRepository(t)
		prov := &fakeProvider{checkoutErr: errors.New("connection refused")}
		svc := NewPaymentService(mockRepo, prov, allowAll{}, bucket, slog.Default())
		svc.now = func() time.Time { return now }

		req := validRequest()
		mockRepo.On("FindActiveByExternalRef", ctx, req.ExternalRef).Return(nil, models.ErrNotFound)
		mockRepo.On("FindByIdempotencyKey", ctx, mock.AnythingOfType("string")).Return(nil, models.ErrNotFound)

		_, err := svc.Initiate(ctx, req)

		var svcErr *ServiceError
		require.ErrorAs(t, err, &svcErr)
		assert.Equal(t, ErrCodeProviderError, svcErr.Code)
		mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("validation failures", func(t *testing.T) {
		tests := []struct {
			name   string
			mutate func(*InitiatePaymentRequest)
			code   string
		}{
			{"missing reference", func(r *InitiatePaymentRequest) { r.ExternalRef = "" }, ErrCodeMissingReference},
			{"missing customer", func(r *InitiatePaymentRequest) { r.CustomerID = "" }, ErrCodeMissingCustomer},
			{"zero amount", func(r *InitiatePaymentRequest) { r.AmountCents = 0 }, ErrCodeInvalidAmount},
			{"negative amount", func(r *InitiatePaymentRequest) { r.AmountCents = -100 }, ErrCodeInvalidAmount},
			{"bad currency", func(r *InitiatePaymentRequest) { r.Currency = "RAND" }, ErrCodeInvalidCurrency},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				svc := NewPaymentService(mocks.NewMockPaymentRepository(t), &fakeProvider{}, allowAll{}, bucket, slog.Default())

				req := validRequest()
				tt.mutate(&req)
				_, err := svc.Initiate(ctx, req)

				var svcErr *ServiceError
				require.ErrorAs(t, err, &svcErr)
				assert.Equal(t, tt.code, svcErr.Code)
			})
		}
	})
}

func TestPaymentService_GetByCheckoutID(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		mockRepo := mocks.NewMockPaymentRepository(t)
		svc := NewPaymentService(mockRepo, &fakeProvider{}, allowAll{}, time.Minute, slog.Default())

		txn := &models.PaymentTransaction{CheckoutID: "chk_1"}
		mockRepo.On("FindByCheckoutID", ctx, "chk_1").Return(txn, nil)

		got, err := svc.GetByCheckoutID(ctx, "chk_1")
		require.NoError(t, err)
		assert.Equal(t, txn, got)
	})

	t.Run("not found", func(t *testing.T) {
		mockRepo := mocks.NewMockPaymentRepository(t)
		svc := NewPaymentService(mockRepo, &fakeProvider{}, allowAll{}, time.Minute, slog.Default())

		mockRepo.On("FindByCheckoutID", ctx, "chk_missing").Return(nil, models.ErrNotFound)

		_, err := svc.GetByCheckoutID(ctx, "chk_missing")

		var svcErr *ServiceError
		require.ErrorAs(t, err, &svcErr)
		assert.Equal(t, ErrCodePaymentNotFound, svcErr.Code)
	})
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/movelane/payments/internal/models"
	"github.com/movelane/payments/internal/provider"
	"github.com/movelane/payments/internal/repository"
)

// DeriveIdempotencyKey builds the deterministic key for a payment initiation:
// the external reference joined with the current time bucket. Retries inside
// one bucket collapse to the same key; genuinely new requests for the same
// reference more than a bucket apart get distinct keys.
func DeriveIdempotencyKey(externalRef string, now time.Time, bucket time.Duration) string {
	return externalRef + "-" + strconv.FormatInt(now.Unix()/int64(bucket.Seconds()), 10)
}

// InitiatePaymentRequest carries the caller's payment initiation input.
type InitiatePaymentRequest struct {
	ExternalRef string
	CustomerID  string
	RecipientID string
	BookingRef  string
	AmountCents int64
	Currency    string
	SuccessURL  string
	CancelURL   string
	FailureURL  string
	Metadata    string
}

// InitiatePaymentResult is the outcome of an initiation attempt. Replayed is
// true when an existing transaction was returned instead of creating a new
// checkout (idempotency conflict, which is a redirect, not an error).
type InitiatePaymentResult struct {
	Transaction *models.PaymentTransaction
	Replayed    bool
}

// PaymentService handles payment initiation and status lookups.
type PaymentService struct {
	payments repository.PaymentRepository
	provider CheckoutProvider
	limiter  AttemptLimiter
	bucket   time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	payments repository.PaymentRepository,
	checkoutProvider CheckoutProvider,
	limiter AttemptLimiter,
	bucket time.Duration,
	logger *slog.Logger,
) *PaymentService {
	return &PaymentService{
		payments: payments,
		provider: checkoutProvider,
		limiter:  limiter,
		bucket:   bucket,
		logger:   logger,
		now:      time.Now,
	}
}

// Initiate validates the request, reserves the idempotency key, creates the
// provider checkout and persists the CREATED transaction.
//
// The repository read on the idempotency key is an optimization; the unique
// constraints on idempotency_key and the active external reference are the
// authoritative guard against concurrent duplicates.
func (s *PaymentService) Initiate(ctx context.Context, req InitiatePaymentRequest) (*InitiatePaymentResult, error) {
	if err := validateInitiation(req); err != nil {
		return nil, err
	}

	if s.limiter != nil && !s.limiter.Allow(req.CustomerID) {
		return nil, &ServiceError{
			Code:    ErrCodeThrottled,
			Message: "too many payment attempts for this customer",
		}
	}

	// One non-terminal transaction per external reference at a time.
	if existing, err := s.payments.FindActiveByExternalRef(ctx, req.ExternalRef); err == nil {
		s.logger.Info("initiation redirected to active transaction",
			"external_reference", req.ExternalRef,
			"checkout_id", existing.CheckoutID,
		)
		return &InitiatePaymentResult{Transaction: existing, Replayed: true}, nil
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("failed to check active transactions: %w", err)
	}

	key := DeriveIdempotencyKey(req.ExternalRef, s.now(), s.bucket)
	if existing, err := s.payments.FindByIdempotencyKey(ctx, key); err == nil {
		s.logger.Info("initiation redirected by idempotency key",
			"idempotency_key", key,
			"checkout_id", existing.CheckoutID,
		)
		return &InitiatePaymentResult{Transaction: existing, Replayed: true}, nil
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("failed to check idempotency key: %w", err)
	}

	checkout, err := s.provider.CreateCheckout(ctx, key, provider.CreateCheckoutRequest{
		AmountCents: req.AmountCents,
		Currency:    req.Currency,
		SuccessURL:  req.SuccessURL,
		CancelURL:   req.CancelURL,
		FailureURL:  req.FailureURL,
		ExternalRef: req.ExternalRef,
	})
	if err != nil {
		// No transaction was persisted, so there is nothing to roll back.
		return nil, &ServiceError{
			Code:    ErrCodeProviderError,
			Message: "provider rejected checkout creation",
			Err:     err,
		}
	}

	now := s.now().UTC()
	txn := &models.PaymentTransaction{
		ID:             uuid.New(),
		CheckoutID:     checkout.ID,
		ExternalRef:    req.ExternalRef,
		IdempotencyKey: key,
		CustomerID:     req.CustomerID,
		RecipientID:    req.RecipientID,
		BookingRef:     req.BookingRef,
		AmountCents:    req.AmountCents,
		Currency:       req.Currency,
		Status:         models.PaymentStatusCreated,
		RedirectURL:    checkout.RedirectURL,
		ProcessingMode: checkout.Mode,
		Metadata:       req.Metadata,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.payments.Create(ctx, txn); err != nil {
		if errors.Is(err, models.ErrDuplicateTransaction) {
			// A concurrent duplicate won the insert race; return the winner.
			winner, findErr := s.payments.FindByIdempotencyKey(ctx, key)
			if findErr != nil {
				winner, findErr = s.payments.FindActiveByExternalRef(ctx, req.ExternalRef)
			}
			if findErr == nil {
				return &InitiatePaymentResult{Transaction: winner, Replayed: true}, nil
			}
		}
		return nil, fmt.Errorf("failed to persist payment transaction: %w", err)
	}

	s.logger.Info("payment initiated",
		"checkout_id", txn.CheckoutID,
		"external_reference", txn.ExternalRef,
		"amount_cents", txn.AmountCents,
		"currency", txn.Currency,
	)

	return &InitiatePaymentResult{Transaction: txn}, nil
}

// GetByCheckoutID retrieves a payment transaction by provider checkout id.
func (s *PaymentService) GetByCheckoutID(ctx context.Context, checkoutID string) (*models.PaymentTransaction, error) {
	txn, err := s.payments.FindByCheckoutID(ctx, checkoutID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, &ServiceError{Code: ErrCodePaymentNotFound, Message: "payment not found"}
	}
	return txn, err
}

// GetByExternalRef retrieves the most recent payment transaction for an
// external reference.
func (s *PaymentService) GetByExternalRef(ctx context.Context, externalRef string) (*models.PaymentTransaction, error) {
	txn, err := s.payments.FindLatestByExternalRef(ctx, externalRef)
	if errors.Is(err, models.ErrNotFound) {
		return nil, &ServiceError{Code: ErrCodePaymentNotFound, Message: "payment not found"}
	}
	return txn, err
}

func validateInitiation(req InitiatePaymentRequest) error {
	if req.ExternalRef == "" {
		return &ServiceError{Code: ErrCodeMissingReference, Message: "external reference is required"}
	}
	if req.CustomerID == "" {
		return &ServiceError{Code: ErrCodeMissingCustomer, Message: "customer id is required"}
	}
	if req.AmountCents <= 0 {
		return &ServiceError{
			Code:    ErrCodeInvalidAmount,
			Message: fmt.Sprintf("amount must be positive, got %d", req.AmountCents),
		}
	}
	if len(req.Currency) != 3 {
		return &ServiceError{
			Code:    ErrCodeInvalidCurrency,
			Message: fmt.Sprintf("currency must be a 3-letter code, got %q", req.Currency),
		}
	}
	return nil
}

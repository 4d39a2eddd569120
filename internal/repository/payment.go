package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/movelane/payments/internal/models"
)

// PaymentRepository defines the interface for payment transaction data access
type PaymentRepository interface {
	Create(ctx context.Context, txn *models.PaymentTransaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.PaymentTransaction, error)
	FindByCheckoutID(ctx context.Context, checkoutID string) (*models.PaymentTransaction, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*models.PaymentTransaction, error)
	FindActiveByExternalRef(ctx context.Context, externalRef string) (*models.PaymentTransaction, error)
	FindLatestByExternalRef(ctx context.Context, externalRef string) (*models.PaymentTransaction, error)
	// Update persists the transaction's mutable fields with a compare-and-swap
	// on the version counter. txn.Version must hold the version that was read;
	// on success it is incremented in place. A lost race returns
	// models.ErrVersionConflict.
	Update(ctx context.Context, txn *models.PaymentTransaction) error
	CountByStatusSince(ctx context.Context, status models.PaymentStatus, since time.Time) (int64, error)
	FindStuck(ctx context.Context, updatedBefore time.Time, limit int) ([]*models.PaymentTransaction, error)
}

type paymentRepository struct {
	db DBTX
}

// NewPaymentRepository creates a new PaymentRepository
func NewPaymentRepository(db DBTX) PaymentRepository {
	return &paymentRepository{db: db}
}

const paymentColumns = `id, checkout_id, external_reference, idempotency_key, customer_id,
	       recipient_id, booking_reference, amount_cents, currency, status,
	       redirect_url, processing_mode, metadata, error_code, error_message,
	       version, created_at, updated_at, completed_at`

// Create inserts a new payment transaction. Unique violations on the
// idempotency key or the active external reference surface as
// models.ErrDuplicateTransaction so the caller can redirect to the winner.
func (r *paymentRepository) Create(ctx context.Context, txn *models.PaymentTransaction) error {
	query := `
		INSERT INTO payment_transactions (
			id, checkout_id, external_reference, idempotency_key, customer_id,
			recipient_id, booking_reference, amount_cents, currency, status,
			redirect_url, processing_mode, metadata, version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $15)
	`

	_, err := r.db.ExecContext(ctx, query,
		txn.ID,
		txn.CheckoutID,
		txn.ExternalRef,
		txn.IdempotencyKey,
		txn.CustomerID,
		txn.RecipientID,
		txn.BookingRef,
		txn.AmountCents,
		txn.Currency,
		txn.Status,
		txn.RedirectURL,
		txn.ProcessingMode,
		txn.Metadata,
		txn.Version,
		txn.CreatedAt,
	)
	if isUniqueViolation(err) {
		return models.ErrDuplicateTransaction
	}
	if err != nil {
		return fmt.Errorf("failed to create payment transaction: %w", err)
	}

	return nil
}

// FindByID retrieves a payment transaction by its internal id
func (r *paymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.PaymentTransaction, error) {
	query := fmt.Sprintf(`SELECT %s FROM payment_transactions WHERE id = $1`, paymentColumns)
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// FindByCheckoutID retrieves a payment transaction by its provider checkout id
func (r *paymentRepository) FindByCheckoutID(ctx context.Context, checkoutID string) (*models.PaymentTransaction, error) {
	query := fmt.Sprintf(`SELECT %s FROM payment_transactions WHERE checkout_id = $1`, paymentColumns)
	return r.scanOne(r.db.QueryRowContext(ctx, query, checkoutID))
}

// FindByIdempotencyKey retrieves a payment transaction by its idempotency key
func (r *paymentRepository) FindByIdempotencyKey(ctx context.Context, key string) (*models.PaymentTransaction, error) {
	query := fmt.Sprintf(`SELECT %s FROM payment_transactions WHERE idempotency_key = $1`, paymentColumns)
	return r.scanOne(r.db.QueryRowContext(ctx, query, key))
}

// FindActiveByExternalRef retrieves the single non-terminal payment
// transaction for an external reference, if one exists.
func (r *paymentRepository) FindActiveByExternalRef(ctx context.Context, externalRef string) (*models.PaymentTransaction, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM payment_transactions
		WHERE external_reference = $1
		  AND status IN ('CREATED', 'PENDING', 'PROCESSING')
		ORDER BY created_at DESC
		LIMIT 1`, paymentColumns)
	return r.scanOne(r.db.QueryRowContext(ctx, query, externalRef))
}

// FindLatestByExternalRef retrieves the most recent payment transaction for
// an external reference regardless of status.
func (r *paymentRepository) FindLatestByExternalRef(ctx context.Context, externalRef string) (*models.PaymentTransaction, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM payment_transactions
		WHERE external_reference = $1
		ORDER BY created_at DESC
		LIMIT 1`, paymentColumns)
	return r.scanOne(r.db.QueryRowContext(ctx, query, externalRef))
}

// Update writes status, error fields and completion timestamp guarded by the
// optimistic version counter.
func (r *paymentRepository) Update(ctx context.Context, txn *models.PaymentTransaction) error {
	query := `
		UPDATE payment_transactions
		SET status = $3,
		    error_code = $4,
		    error_message = $5,
		    completed_at = $6,
		    version = version + 1,
		    updated_at = NOW()
		WHERE id = $1 AND version = $2
	`

	result, err := r.db.ExecContext(ctx, query,
		txn.ID,
		txn.Version,
		txn.Status,
		txn.ErrorCode,
		txn.ErrorMessage,
		txn.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update payment transaction: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		// Either the row is gone or a concurrent transition won the race.
		if _, findErr := r.FindByID(ctx, txn.ID); findErr != nil {
			return findErr
		}
		return models.ErrVersionConflict
	}

	txn.Version++
	return nil
}

// CountByStatusSince counts transactions that entered the given status within
// the lookback window. Used by the health monitor only.
func (r *paymentRepository) CountByStatusSince(ctx context.Context, status models.PaymentStatus, since time.Time) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM payment_transactions
		WHERE status = $1 AND updated_at >= $2
	`

	var count int64
	if err := r.db.QueryRowContext(ctx, query, status, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count transactions by status: %w", err)
	}
	return count, nil
}

// FindStuck returns non-terminal transactions that have not moved since the
// given cutoff.
func (r *paymentRepository) FindStuck(ctx context.Context, updatedBefore time.Time, limit int) ([]*models.PaymentTransaction, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM payment_transactions
		WHERE status IN ('CREATED', 'PENDING', 'PROCESSING')
		  AND updated_at < $1
		ORDER BY updated_at ASC
		LIMIT $2`, paymentColumns)

	rows, err := r.db.QueryContext(ctx, query, updatedBefore, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query stuck transactions: %w", err)
	}
	defer rows.Close()

	var txns []*models.PaymentTransaction
	for rows.Next() {
		txn, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate stuck transactions: %w", err)
	}

	return txns, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *paymentRepository) scanOne(row *sql.Row) (*models.PaymentTransaction, error) {
	txn, err := scanPayment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return txn, nil
}

func scanPayment(row rowScanner) (*models.PaymentTransaction, error) {
	var txn models.PaymentTransaction
	err := row.Scan(
		&txn.ID,
		&txn.CheckoutID,
		&txn.ExternalRef,
		&txn.IdempotencyKey,
		&txn.CustomerID,
		&txn.RecipientID,
		&txn.BookingRef,
		&txn.AmountCents,
		&txn.Currency,
		&txn.Status,
		&txn.RedirectURL,
		&txn.ProcessingMode,
		&txn.Metadata,
		&txn.ErrorCode,
		&txn.ErrorMessage,
		&txn.Version,
		&txn.CreatedAt,
		&txn.UpdatedAt,
		&txn.CompletedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan payment transaction: %w", err)
	}
	return &txn, nil
}

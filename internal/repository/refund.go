package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/movelane/payments/internal/models"
)

// RefundRepository defines the interface for refund transaction data access
type RefundRepository interface {
	Create(ctx context.Context, refund *models.RefundTransaction) error
	FindByProviderRefundID(ctx context.Context, providerRefundID string) (*models.RefundTransaction, error)
	ListByPayment(ctx context.Context, paymentID uuid.UUID) ([]*models.RefundTransaction, error)
	// SumSucceededByPayment returns the total amount already refunded for a
	// payment, counting succeeded refunds only.
	SumSucceededByPayment(ctx context.Context, paymentID uuid.UUID) (int64, error)
	// SumReservedByPayment returns the total amount reserved against a
	// payment, counting pending refunds as well as succeeded ones.
	SumReservedByPayment(ctx context.Context, paymentID uuid.UUID) (int64, error)
	Update(ctx context.Context, refund *models.RefundTransaction) error
}

type refundRepository struct {
	db DBTX
}

// NewRefundRepository creates a new RefundRepository
func NewRefundRepository(db DBTX) RefundRepository {
	return &refundRepository{db: db}
}

const refundColumns = `id, payment_id, provider_refund_id, amount_cents, currency, status,
	       reason, initiated_by, error_message, created_at, completed_at`

// Create inserts a new refund transaction. A unique violation on the provider
// refund id surfaces as models.ErrDuplicateTransaction.
func (r *refundRepository) Create(ctx context.Context, refund *models.RefundTransaction) error {
	query := `
		INSERT INTO refund_transactions (
			id, payment_id, provider_refund_id, amount_cents, currency,
			status, reason, initiated_by, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		refund.ID,
		refund.PaymentID,
		refund.ProviderRefundID,
		refund.AmountCents,
		refund.Currency,
		refund.Status,
		refund.Reason,
		refund.InitiatedBy,
		refund.CreatedAt,
	)
	if isUniqueViolation(err) {
		return models.ErrDuplicateTransaction
	}
	if err != nil {
		return fmt.Errorf("failed to create refund transaction: %w", err)
	}

	return nil
}

// FindByProviderRefundID retrieves a refund by the provider-assigned refund id
func (r *refundRepository) FindByProviderRefundID(ctx context.Context, providerRefundID string) (*models.RefundTransaction, error) {
	query := fmt.Sprintf(`SELECT %s FROM refund_transactions WHERE provider_refund_id = $1`, refundColumns)

	refund, err := scanRefund(r.db.QueryRowContext(ctx, query, providerRefundID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	return refund, err
}

// ListByPayment retrieves all refunds belonging to a payment
func (r *refundRepository) ListByPayment(ctx context.Context, paymentID uuid.UUID) ([]*models.RefundTransaction, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM refund_transactions
		WHERE payment_id = $1
		ORDER BY created_at ASC`, refundColumns)

	rows, err := r.db.QueryContext(ctx, query, paymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list refunds: %w", err)
	}
	defer rows.Close()

	var refunds []*models.RefundTransaction
	for rows.Next() {
		refund, err := scanRefund(rows)
		if err != nil {
			return nil, err
		}
		refunds = append(refunds, refund)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate refunds: %w", err)
	}

	return refunds, nil
}

// SumSucceededByPayment totals the succeeded refund amounts for a payment
func (r *refundRepository) SumSucceededByPayment(ctx context.Context, paymentID uuid.UUID) (int64, error) {
	query := `
		SELECT COALESCE(SUM(amount_cents), 0)
		FROM refund_transactions
		WHERE payment_id = $1 AND status = 'SUCCEEDED'
	`

	var total int64
	if err := r.db.QueryRowContext(ctx, query, paymentID).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum succeeded refunds: %w", err)
	}
	return total, nil
}

// SumReservedByPayment totals pending and succeeded refund amounts. Pending
// refunds count because the provider may still settle them.
func (r *refundRepository) SumReservedByPayment(ctx context.Context, paymentID uuid.UUID) (int64, error) {
	query := `
		SELECT COALESCE(SUM(amount_cents), 0)
		FROM refund_transactions
		WHERE payment_id = $1 AND status IN ('PENDING', 'SUCCEEDED')
	`

	var total int64
	if err := r.db.QueryRowContext(ctx, query, paymentID).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum reserved refunds: %w", err)
	}
	return total, nil
}

// Update persists the refund's status, error message and completion timestamp
func (r *refundRepository) Update(ctx context.Context, refund *models.RefundTransaction) error {
	query := `
		UPDATE refund_transactions
		SET status = $2,
		    error_message = $3,
		    completed_at = $4
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		refund.ID,
		refund.Status,
		refund.ErrorMessage,
		refund.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update refund transaction: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return models.ErrNotFound
	}

	return nil
}

func scanRefund(row rowScanner) (*models.RefundTransaction, error) {
	var refund models.RefundTransaction
	err := row.Scan(
		&refund.ID,
		&refund.PaymentID,
		&refund.ProviderRefundID,
		&refund.AmountCents,
		&refund.Currency,
		&refund.Status,
		&refund.Reason,
		&refund.InitiatedBy,
		&refund.ErrorMessage,
		&refund.CreatedAt,
		&refund.CompletedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan refund transaction: %w", err)
	}
	return &refund, nil
}

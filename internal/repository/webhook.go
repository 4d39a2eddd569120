package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/movelane/payments/internal/models"
)

// WebhookLedger defines the interface for the webhook event ledger. Every
// delivery is recorded exactly once per provider event id; the unique
// constraint on event_id is the authoritative deduplication guard.
type WebhookLedger interface {
	Insert(ctx context.Context, event *models.WebhookEvent) error
	FindByEventID(ctx context.Context, eventID string) (*models.WebhookEvent, error)
	// MarkProcessed flags the event as done. A non-empty processingError
	// records a non-retryable outcome (an anomaly) alongside the flag.
	MarkProcessed(ctx context.Context, eventID string, processedAt time.Time, processingError string) error
	MarkFailed(ctx context.Context, eventID string, processingError string) error
	// MarkVerified upgrades a previously recorded event to signature-valid,
	// replacing its payload with the verified body. Used when a legitimate
	// delivery follows one that failed verification under the same event id.
	MarkVerified(ctx context.Context, eventID string, payload []byte) error
	FindUnprocessed(ctx context.Context, receivedBefore time.Time, limit int) ([]*models.WebhookEvent, error)
}

type webhookLedger struct {
	db DBTX
}

// NewWebhookLedger creates a new WebhookLedger
func NewWebhookLedger(db DBTX) WebhookLedger {
	return &webhookLedger{db: db}
}

const webhookColumns = `event_id, checkout_id, event_type, payload, signature_valid,
	       processed, processing_error, retry_count, received_at, processed_at`

// Insert records a received webhook. A redelivered event id surfaces as
// models.ErrDuplicateEvent without touching the stored row.
func (l *webhookLedger) Insert(ctx context.Context, event *models.WebhookEvent) error {
	query := `
		INSERT INTO webhook_events (
			event_id, checkout_id, event_type, payload, signature_valid,
			processed, retry_count, received_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := l.db.ExecContext(ctx, query,
		event.EventID,
		event.CheckoutID,
		event.EventType,
		event.Payload,
		event.SignatureValid,
		event.Processed,
		event.RetryCount,
		event.ReceivedAt,
	)
	if isUniqueViolation(err) {
		return models.ErrDuplicateEvent
	}
	if err != nil {
		return fmt.Errorf("failed to insert webhook event: %w", err)
	}

	return nil
}

// FindByEventID retrieves a webhook event by the provider event id
func (l *webhookLedger) FindByEventID(ctx context.Context, eventID string) (*models.WebhookEvent, error) {
	query := fmt.Sprintf(`SELECT %s FROM webhook_events WHERE event_id = $1`, webhookColumns)

	event, err := scanWebhookEvent(l.db.QueryRowContext(ctx, query, eventID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	return event, err
}

// MarkProcessed flags the event as durably applied
func (l *webhookLedger) MarkProcessed(ctx context.Context, eventID string, processedAt time.Time, processingError string) error {
	query := `
		UPDATE webhook_events
		SET processed = TRUE,
		    processing_error = $3,
		    processed_at = $2
		WHERE event_id = $1
	`
	return l.exec(ctx, query, eventID, processedAt, processingError)
}

// MarkFailed records a processing error and bumps the retry counter. The
// event stays unprocessed so the retry sweep picks it up again.
func (l *webhookLedger) MarkFailed(ctx context.Context, eventID string, processingError string) error {
	query := `
		UPDATE webhook_events
		SET processing_error = $2,
		    retry_count = retry_count + 1
		WHERE event_id = $1
	`
	return l.exec(ctx, query, eventID, processingError)
}

// MarkVerified upgrades a stored event to signature-valid with the new payload
func (l *webhookLedger) MarkVerified(ctx context.Context, eventID string, payload []byte) error {
	query := `
		UPDATE webhook_events
		SET signature_valid = TRUE,
		    payload = $2,
		    retry_count = retry_count + 1
		WHERE event_id = $1
	`
	return l.exec(ctx, query, eventID, payload)
}

// FindUnprocessed returns signature-valid events that were recorded before the
// cutoff but never finished processing, oldest first.
func (l *webhookLedger) FindUnprocessed(ctx context.Context, receivedBefore time.Time, limit int) ([]*models.WebhookEvent, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM webhook_events
		WHERE processed = FALSE
		  AND signature_valid = TRUE
		  AND received_at < $1
		ORDER BY received_at ASC
		LIMIT $2`, webhookColumns)

	rows, err := l.db.QueryContext(ctx, query, receivedBefore, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query unprocessed webhook events: %w", err)
	}
	defer rows.Close()

	var events []*models.WebhookEvent
	for rows.Next() {
		event, err := scanWebhookEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate webhook events: %w", err)
	}

	return events, nil
}

func (l *webhookLedger) exec(ctx context.Context, query string, args ...any) error {
	result, err := l.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update webhook event: %w", err)
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

func scanWebhookEvent(row rowScanner) (*models.WebhookEvent, error) {
	var event models.WebhookEvent
	err := row.Scan(
		&event.EventID,
		&event.CheckoutID,
		&event.EventType,
		&event.Payload,
		&event.SignatureValid,
		&event.Processed,
		&event.ProcessingError,
		&event.RetryCount,
		&event.ReceivedAt,
		&event.ProcessedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan webhook event: %w", err)
	}
	return &event, nil
}

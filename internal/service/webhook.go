package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/movelane/payments/internal/config"
	"github.com/movelane/payments/internal/db"
	"github.com/movelane/payments/internal/models"
	"github.com/movelane/payments/internal/repository"
	"github.com/movelane/payments/internal/worker"
)

// ProcessOutcome classifies what the webhook endpoint should tell the
// provider. Recorded means the event is durable and must be acknowledged even
// if applying it failed; the retry sweep owns it from here.
type ProcessOutcome int

const (
	OutcomeRecorded ProcessOutcome = iota
	OutcomeDuplicate
	OutcomeRejected
)

// ErrMalformedEvent indicates a delivery without a usable event envelope.
var ErrMalformedEvent = errors.New("malformed webhook event")

// eventEnvelope is the provider's delivery wrapper.
type eventEnvelope struct {
	ID      string       `json:"id"`
	Type    string       `json:"type"`
	Payload eventPayload `json:"payload"`
}

// eventPayload carries the subject of the event. For payment events ID is
// the checkout id; for refund events ID is the provider refund id and
// CheckoutID points back at the payment.
type eventPayload struct {
	ID           string `json:"id"`
	CheckoutID   string `json:"checkoutId"`
	Status       string `json:"status"`
	ErrorCode    string `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}

func (e *eventEnvelope) checkoutID() string {
	if e.Payload.CheckoutID != "" {
		return e.Payload.CheckoutID
	}
	return e.Payload.ID
}

// WebhookProcessor turns at-least-once, possibly-duplicated deliveries into
// exactly-once state transitions: record the event in the ledger first
// (dedup by event id), apply the transition and the processed flag in one
// database transaction, and gate side effects behind the state machine's
// "applied" edge.
type WebhookProcessor struct {
	db          *db.DB
	ledger      repository.WebhookLedger
	verifier    SignatureVerifier
	events      *config.EventMapping
	queue       Dispatcher
	fulfillment Fulfiller
	logger      *slog.Logger
	now         func() time.Time
}

// NewWebhookProcessor creates a new WebhookProcessor
func NewWebhookProcessor(
	database *db.DB,
	verifier SignatureVerifier,
	events *config.EventMapping,
	queue Dispatcher,
	fulfillment Fulfiller,
	logger *slog.Logger,
) *WebhookProcessor {
	return &WebhookProcessor{
		db:          database,
		ledger:      repository.NewWebhookLedger(database),
		verifier:    verifier,
		events:      events,
		queue:       queue,
		fulfillment: fulfillment,
		logger:      logger,
		now:         time.Now,
	}
}

// Process handles one inbound delivery: verify, record, apply.
//
// The returned error is non-nil only when the event could not be durably
// recorded; every later failure is absorbed (and retried later) so the
// provider does not retry-storm an already-captured event.
func (p *WebhookProcessor) Process(ctx context.Context, body []byte, headers http.Header) (ProcessOutcome, error) {
	var env eventEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return OutcomeRejected, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if env.ID == "" {
		env.ID = headers.Get("webhook-id")
	}
	if env.ID == "" {
		return OutcomeRejected, fmt.Errorf("%w: no event id", ErrMalformedEvent)
	}

	sigErr := p.verifier.Verify(body, headers)
	if sigErr != nil {
		p.logger.Warn("webhook signature verification failed",
			"event_id", env.ID,
			"event_type", env.Type,
			"reason", sigErr,
			"alert", true,
		)
	}

	event := &models.WebhookEvent{
		EventID:        env.ID,
		CheckoutID:     env.checkoutID(),
		EventType:      env.Type,
		Payload:        body,
		SignatureValid: sigErr == nil,
		ReceivedAt:     p.now().UTC(),
	}

	if err := p.ledger.Insert(ctx, event); err != nil {
		if !errors.Is(err, models.ErrDuplicateEvent) {
			return OutcomeRejected, fmt.Errorf("failed to record webhook event: %w", err)
		}

		existing, findErr := p.ledger.FindByEventID(ctx, env.ID)
		if findErr != nil {
			return OutcomeRejected, findErr
		}
		if existing.Processed {
			p.logger.Info("duplicate webhook delivery ignored",
				"event_id", env.ID,
				"event_type", env.Type,
			)
			return OutcomeDuplicate, nil
		}
		if sigErr != nil {
			return OutcomeRejected, sigErr
		}
		if !existing.SignatureValid {
			// A verified delivery supersedes an earlier unauthenticated one
			// that claimed the same event id.
			if err := p.ledger.MarkVerified(ctx, env.ID, body); err != nil {
				return OutcomeRejected, err
			}
		}
		// Recorded but never finished processing; fall through and retry.
	}

	if sigErr != nil {
		// Recorded for audit, but an unauthenticated delivery never drives
		// a state transition.
		return OutcomeRejected, sigErr
	}

	p.apply(ctx, &env)
	return OutcomeRecorded, nil
}

// RetryUnprocessed re-applies signature-valid events that were recorded but
// never finished processing. Called from the background sweep loop.
func (p *WebhookProcessor) RetryUnprocessed(ctx context.Context, grace time.Duration, limit int) (int, error) {
	events, err := p.ledger.FindUnprocessed(ctx, p.now().Add(-grace), limit)
	if err != nil {
		return 0, err
	}

	for _, event := range events {
		var env eventEnvelope
		if err := json.Unmarshal(event.Payload, &env); err != nil {
			p.logger.Error("stored webhook payload is unreadable",
				"event_id", event.EventID,
				"error", err,
			)
			//nolint:errcheck // the sweep moves on; the row keeps its error
			p.ledger.MarkProcessed(ctx, event.EventID, p.now().UTC(), "unreadable payload: "+err.Error())
			continue
		}
		if env.ID == "" {
			env.ID = event.EventID
		}

		p.logger.Info("retrying unprocessed webhook event",
			"event_id", event.EventID,
			"event_type", event.EventType,
			"retry_count", event.RetryCount,
		)
		p.apply(ctx, &env)
	}

	return len(events), nil
}

// apply runs the event's transition and the processed flag as one database
// transaction, then dispatches fulfillment if the payment just succeeded.
// Failures are absorbed: the event stays unprocessed with the error recorded
// and the sweep retries it.
func (p *WebhookProcessor) apply(ctx context.Context, env *eventEnvelope) {
	fulfill, err := p.applyInTx(ctx, env)
	if err != nil {
		p.logger.Error("webhook processing failed, event left for retry",
			"event_id", env.ID,
			"event_type", env.Type,
			"error", err,
		)
		if markErr := p.ledger.MarkFailed(ctx, env.ID, err.Error()); markErr != nil {
			p.logger.Error("failed to record webhook processing error",
				"event_id", env.ID,
				"error", markErr,
			)
		}
		return
	}

	if fulfill != nil {
		p.dispatchFulfillment(fulfill)
	}
}

func (p *WebhookProcessor) applyInTx(ctx context.Context, env *eventEnvelope) (*models.PaymentTransaction, error) {
	tx, err := p.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // rollback error is not critical in defer
	}()

	fulfill, route := p.route(ctx,
		repository.NewPaymentRepository(tx),
		repository.NewRefundRepository(tx),
		env,
	)
	if route.retry != nil {
		return nil, route.retry
	}

	ledger := repository.NewWebhookLedger(tx)
	if err := ledger.MarkProcessed(ctx, env.ID, p.now().UTC(), route.anomaly); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return fulfill, nil
}

// routeResult separates retryable failures (event stays unprocessed) from
// anomalies (event is processed with the anomaly on record).
type routeResult struct {
	retry   error
	anomaly string
}

// route applies the event against the state machines. It returns the payment
// to fulfill when this delivery moved it into SUCCEEDED for the first time.
func (p *WebhookProcessor) route(
	ctx context.Context,
	payments repository.PaymentRepository,
	refunds repository.RefundRepository,
	env *eventEnvelope,
) (*models.PaymentTransaction, routeResult) {
	if target, ok := p.events.PaymentTarget(env.Type); ok {
		return p.routePayment(ctx, payments, env, target)
	}
	if target, ok := p.events.RefundTarget(env.Type); ok {
		return nil, p.routeRefund(ctx, payments, refunds, env, target)
	}

	p.logger.Debug("ignoring unhandled webhook event type",
		"event_id", env.ID,
		"event_type", env.Type,
	)
	return nil, routeResult{}
}

func (p *WebhookProcessor) routePayment(
	ctx context.Context,
	payments repository.PaymentRepository,
	env *eventEnvelope,
	target models.PaymentStatus,
) (*models.PaymentTransaction, routeResult) {
	txn, err := payments.FindByCheckoutID(ctx, env.Payload.ID)
	if errors.Is(err, models.ErrNotFound) {
		// The webhook may have raced initiation's own insert; retry later.
		return nil, routeResult{retry: fmt.Errorf("unknown checkout %s: %w", env.Payload.ID, err)}
	}
	if err != nil {
		return nil, routeResult{retry: err}
	}

	txn, applied, err := transitionPayment(ctx, payments, txn.ID, transitionChange{
		target:       target,
		errorCode:    env.Payload.ErrorCode,
		errorMessage: env.Payload.ErrorMessage,
		at:           p.now().UTC(),
	}, p.logger)

	var svcErr *ServiceError
	if errors.As(err, &svcErr) && svcErr.Code == ErrCodeIllegalTransition {
		return nil, routeResult{anomaly: svcErr.Message}
	}
	if err != nil {
		return nil, routeResult{retry: err}
	}

	if applied && target == models.PaymentStatusSucceeded {
		return txn, routeResult{}
	}
	return nil, routeResult{}
}

func (p *WebhookProcessor) routeRefund(
	ctx context.Context,
	payments repository.PaymentRepository,
	refunds repository.RefundRepository,
	env *eventEnvelope,
	target models.RefundStatus,
) routeResult {
	refund, err := refunds.FindByProviderRefundID(ctx, env.Payload.ID)
	if errors.Is(err, models.ErrNotFound) {
		return routeResult{retry: fmt.Errorf("unknown refund %s: %w", env.Payload.ID, err)}
	}
	if err != nil {
		return routeResult{retry: err}
	}

	err = completeRefund(ctx, payments, refunds, refund, target,
		env.Payload.ErrorMessage, p.now().UTC(), p.logger)

	var svcErr *ServiceError
	if errors.As(err, &svcErr) && svcErr.Code == ErrCodeIllegalTransition {
		return routeResult{anomaly: svcErr.Message}
	}
	if err != nil {
		return routeResult{retry: err}
	}
	return routeResult{}
}

// dispatchFulfillment hands the success side effects to the bounded worker
// pool. The webhook response never waits on fulfillment; a saturated queue
// drops to the dead-letter log instead of blocking.
func (p *WebhookProcessor) dispatchFulfillment(txn *models.PaymentTransaction) {
	payment := *txn
	accepted := p.queue.Dispatch(worker.Job{
		Name: "fulfillment:" + payment.CheckoutID,
		Run: func(ctx context.Context) error {
			return p.fulfillment.Fulfill(ctx, &payment)
		},
	})
	if !accepted {
		p.logger.Error("fulfillment dropped to dead letter, queue saturated",
			"checkout_id", payment.CheckoutID,
			"alert", true,
		)
	}
}

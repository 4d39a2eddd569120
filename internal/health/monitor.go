// Package health watches transaction outcomes for abnormal failure rates and
// stuck transactions. It is a read-only consumer of the transaction store and
// never sits on the write path.
package health

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/movelane/payments/internal/config"
	"github.com/movelane/payments/internal/models"
	"github.com/movelane/payments/internal/repository"
)

// StuckTransaction describes a non-terminal transaction that has not moved
// for longer than the configured threshold.
type StuckTransaction struct {
	CheckoutID    string               `json:"checkout_id"`
	ExternalRef   string               `json:"external_reference"`
	Status        models.PaymentStatus `json:"status"`
	StuckDuration time.Duration        `json:"stuck_duration"`
}

// Snapshot is one sampling pass over the transaction store.
type Snapshot struct {
	At          time.Time          `json:"at"`
	Succeeded   int64              `json:"succeeded"`
	Failed      int64              `json:"failed"`
	FailureRate float64            `json:"failure_rate"`
	Alerting    bool               `json:"alerting"`
	Stuck       []StuckTransaction `json:"stuck"`
}

// Monitor periodically samples completed transactions and scans for stuck
// ones, raising alerts through the structured log.
type Monitor struct {
	payments repository.PaymentRepository
	cfg      config.MonitorConfig
	logger   *slog.Logger
	now      func() time.Time

	mu   sync.Mutex
	last Snapshot
}

// NewMonitor creates a new Monitor
func NewMonitor(payments repository.PaymentRepository, cfg config.MonitorConfig, logger *slog.Logger) *Monitor {
	return &Monitor{
		payments: payments,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// Run samples on the configured interval until the context is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	m.logger.Info("health monitor started",
		"interval", m.cfg.Interval,
		"lookback", m.cfg.Lookback,
		"failure_rate_threshold", m.cfg.FailureRateThreshold,
	)

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("health monitor stopped")
			return
		case <-ticker.C:
			m.Sample(ctx)
		}
	}
}

// Sample runs one sampling pass and stores the result for Snapshot.
func (m *Monitor) Sample(ctx context.Context) Snapshot {
	now := m.now().UTC()
	snap := Snapshot{At: now}

	since := now.Add(-m.cfg.Lookback)
	succeeded, err := m.payments.CountByStatusSince(ctx, models.PaymentStatusSucceeded, since)
	if err != nil {
		m.logger.Error("health sample failed: succeeded count", "error", err)
		return m.store(snap)
	}
	failed, err := m.payments.CountByStatusSince(ctx, models.PaymentStatusFailed, since)
	if err != nil {
		m.logger.Error("health sample failed: failed count", "error", err)
		return m.store(snap)
	}

	snap.Succeeded = succeeded
	snap.Failed = failed

	total := succeeded + failed
	if total > 0 {
		snap.FailureRate = float64(failed) / float64(total)
	}
	if total >= int64(m.cfg.MinSampleSize) && snap.FailureRate > m.cfg.FailureRateThreshold {
		snap.Alerting = true
		m.logger.Error("payment failure rate above threshold",
			"failure_rate", snap.FailureRate,
			"threshold", m.cfg.FailureRateThreshold,
			"failed", failed,
			"succeeded", succeeded,
			"lookback", m.cfg.Lookback,
			"alert", true,
		)
	}

	stuck, err := m.payments.FindStuck(ctx, now.Add(-m.cfg.StuckAfter), 100)
	if err != nil {
		m.logger.Error("health sample failed: stuck scan", "error", err)
		return m.store(snap)
	}
	for _, txn := range stuck {
		snap.Stuck = append(snap.Stuck, StuckTransaction{
			CheckoutID:    txn.CheckoutID,
			ExternalRef:   txn.ExternalRef,
			Status:        txn.Status,
			StuckDuration: now.Sub(txn.UpdatedAt),
		})
	}
	if len(snap.Stuck) > 0 {
		snap.Alerting = true
		m.logger.Error("stuck payment transactions detected",
			"count", len(snap.Stuck),
			"stuck_after", m.cfg.StuckAfter,
			"alert", true,
		)
	}

	return m.store(snap)
}

// Snapshot returns the result of the most recent sampling pass.
func (m *Monitor) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

func (m *Monitor) store(snap Snapshot) Snapshot {
	m.mu.Lock()
	m.last = snap
	m.mu.Unlock()
	return snap
}

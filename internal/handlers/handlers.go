// Package handlers implements the HTTP surface of the payments core.
package handlers

import (
	"log/slog"

	"github.com/movelane/payments/internal/health"
	"github.com/movelane/payments/internal/service"
)

// MonitorSnapshotter exposes the health monitor's latest sampling pass.
type MonitorSnapshotter interface {
	Snapshot() health.Snapshot
}

// Handler serves all payment endpoints
type Handler struct {
	payments      service.PaymentInitiator
	paymentReader service.PaymentReader
	refunds       service.RefundInitiator
	webhooks      service.WebhookReceiver
	healthChecker service.HealthChecker
	monitor       MonitorSnapshotter
	logger        *slog.Logger
}

// NewHandler creates a new Handler with injected service dependencies.
func NewHandler(
	payments service.PaymentInitiator,
	paymentReader service.PaymentReader,
	refunds service.RefundInitiator,
	webhooks service.WebhookReceiver,
	healthChecker service.HealthChecker,
	monitor MonitorSnapshotter,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		payments:      payments,
		paymentReader: paymentReader,
		refunds:       refunds,
		webhooks:      webhooks,
		healthChecker: healthChecker,
		monitor:       monitor,
		logger:        logger,
	}
}

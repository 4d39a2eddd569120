package handlers

import (
	"log/slog"
	"net/http"

	"github.com/movelane/payments/internal/middleware"
	"github.com/movelane/payments/internal/service"
)

// NewRouter wires the HTTP routes and middleware.
func NewRouter(
	payments service.PaymentInitiator,
	paymentReader service.PaymentReader,
	refunds service.RefundInitiator,
	webhooks service.WebhookReceiver,
	healthChecker service.HealthChecker,
	monitor MonitorSnapshotter,
	logger *slog.Logger,
) http.Handler {
	handler := NewHandler(payments, paymentReader, refunds, webhooks, healthChecker, monitor, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /payments", handler.CreatePayment)
	mux.HandleFunc("GET /payments", handler.ListPayments)
	mux.HandleFunc("GET /payments/{checkoutID}", handler.GetPayment)
	mux.HandleFunc("POST /payments/{checkoutID}/refunds", handler.CreateRefund)
	mux.HandleFunc("GET /payments/{checkoutID}/refunds", handler.ListRefunds)
	mux.HandleFunc("POST /payments/webhook", handler.ReceiveWebhook)
	mux.HandleFunc("GET /health", handler.GetHealth)
	mux.HandleFunc("GET /internal/payments/health", handler.GetPaymentsHealth)

	return middleware.RequestLogging(logger)(mux)
}

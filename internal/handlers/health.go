package handlers

import "net/http"

// GetHealth handles GET /health
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.healthChecker.PingContext(r.Context()); err != nil {
		h.logger.Error("health check failed", "error", err)
		writeJSON(w, h.logger, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
		return
	}
	writeJSON(w, h.logger, http.StatusOK, map[string]string{"status": "healthy"})
}

// GetPaymentsHealth handles GET /internal/payments/health with the latest
// monitor snapshot.
func (h *Handler) GetPaymentsHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, h.logger, http.StatusOK, h.monitor.Snapshot())
}

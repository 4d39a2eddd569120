package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/movelane/payments/internal/service"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, logger *slog.Logger, status int, code, message string) {
	writeJSON(w, logger, status, errorResponse{Error: code, Message: message})
}

// writeServiceError maps a service error to its HTTP status and body. Errors
// that are not service errors are logged and masked as internal.
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var svcErr *service.ServiceError
	if !errors.As(err, &svcErr) {
		logger.Error("unexpected error", "error", err)
		writeError(w, logger, http.StatusInternalServerError, service.ErrCodeInternalError, "internal error")
		return
	}

	writeError(w, logger, statusForCode(svcErr.Code), svcErr.Code, svcErr.Message)
}

func statusForCode(code string) int {
	switch code {
	case service.ErrCodeMissingReference,
		service.ErrCodeMissingCustomer,
		service.ErrCodeInvalidAmount,
		service.ErrCodeInvalidCurrency:
		return http.StatusBadRequest
	case service.ErrCodePaymentNotFound, service.ErrCodeRefundNotFound:
		return http.StatusNotFound
	case service.ErrCodePaymentNotRefundable,
		service.ErrCodeRefundExceedsRemaining,
		service.ErrCodeDuplicateRefund:
		return http.StatusConflict
	case service.ErrCodeThrottled:
		return http.StatusTooManyRequests
	case service.ErrCodeProviderError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

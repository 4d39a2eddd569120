package service

import "fmt"

// ServiceError represents a business logic error with a code
type ServiceError struct {
	Err     error
	Message string
	Code    string
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrCodeMissingReference       = "missing_reference"
	ErrCodeMissingCustomer        = "missing_customer"
	ErrCodeInvalidAmount          = "invalid_amount"
	ErrCodeInvalidCurrency        = "invalid_currency"
	ErrCodeThrottled              = "throttled"
	ErrCodePaymentNotFound        = "payment_not_found"
	ErrCodeRefundNotFound         = "refund_not_found"
	ErrCodePaymentNotRefundable   = "payment_not_refundable"
	ErrCodeRefundExceedsRemaining = "refund_exceeds_remaining"
	ErrCodeDuplicateRefund        = "duplicate_refund"
	ErrCodeProviderError          = "provider_error"
	ErrCodeIllegalTransition      = "illegal_transition"
	ErrCodeInternalError          = "internal_error"
)

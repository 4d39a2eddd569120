package models

import "time"

// WebhookEvent is the ledger entry for a single provider delivery, keyed by
// the provider-assigned event id. The raw payload is preserved byte-for-byte
// so signature checks and replays operate on exactly what was received.
//
// An event id is stored exactly once no matter how many times the provider
// retransmits it; storing the row happens before any state transition it
// triggers is considered durable.
type WebhookEvent struct {
	EventID         string     `db:"event_id"`
	CheckoutID      string     `db:"checkout_id"`
	EventType       string     `db:"event_type"`
	Payload         []byte     `db:"payload"`
	SignatureValid  bool       `db:"signature_valid"`
	Processed       bool       `db:"processed"`
	ProcessingError string     `db:"processing_error"`
	RetryCount      int        `db:"retry_count"`
	ReceivedAt      time.Time  `db:"received_at"`
	ProcessedAt     *time.Time `db:"processed_at"`
}

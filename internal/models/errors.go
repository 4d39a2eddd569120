package models

import "errors"

// Domain errors that can be returned by repositories
var (
	// ErrDuplicateTransaction indicates a row with the same natural key
	// (idempotency key, active external reference, provider refund id)
	// already exists
	ErrDuplicateTransaction = errors.New("duplicate transaction")

	// ErrDuplicateEvent indicates a webhook event with this event id has
	// already been recorded
	ErrDuplicateEvent = errors.New("duplicate webhook event")

	// ErrVersionConflict indicates a compare-and-swap write lost to a
	// concurrent transition; callers must re-read and retry
	ErrVersionConflict = errors.New("version conflict")

	// ErrNotFound indicates the requested entity was not found
	ErrNotFound = errors.New("not found")
)

package types

import "errors"

// Repository errors.
var (
	ErrNotFound         = errors.New("entity not found")
	ErrInvalidID        = errors.New("invalid entity ID")
	ErrInvalidOwnerKind = errors.New("invalid attachment owner kind")
)

// Store lifecycle errors.
var (
	ErrStoreClosed       = errors.New("store is closed")
	ErrOperationPanicked = errors.New("store operation panicked")
)

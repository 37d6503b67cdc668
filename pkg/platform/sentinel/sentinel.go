package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores, caches and device adapters
// return these (optionally wrapped) and services translate them into coded
// domain errors.
//
//   - ErrNotFound: record does not exist in the store
//   - ErrConflict: record already exists or was modified concurrently
//   - ErrUnavailable: backing service or device temporarily unavailable
//   - ErrInvalidState: entity in wrong state for the requested operation
//   - ErrClosed: resource was released and cannot be used again
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnavailable  = errors.New("unavailable")
	ErrInvalidState = errors.New("invalid state")
	ErrClosed       = errors.New("closed")
)

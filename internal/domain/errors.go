package domain

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by workflow operations. Wrap them with context and test with errors.Is.
var (
	ErrValidation       = errors.New("validation failed")
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrCapacityExceeded = errors.New("team capacity exceeded")
	ErrExpired          = errors.New("expired")
	ErrForbidden        = errors.New("forbidden")
	ErrStorage          = errors.New("storage failure")
)

// StorageError marks err as an infrastructure failure while keeping it in the chain.
func StorageError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrStorage, err)
}

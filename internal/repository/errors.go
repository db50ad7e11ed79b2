package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrStatusConflict is returned when a guarded ride status update finds
	// the ride no longer in the expected state.
	ErrStatusConflict = errors.New("ride status changed concurrently")

	// ErrInsufficientBalance is returned when a wallet debit would take the
	// balance below zero.
	ErrInsufficientBalance = errors.New("insufficient wallet balance")
)

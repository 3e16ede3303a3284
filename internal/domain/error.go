package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrAlreadyExists   = errors.New("entity already exists")
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrLockHeld means another process instance holds the job lock.
	// Callers treat it as "skip this run", not as a failure.
	ErrLockHeld = errors.New("lock held by another instance")
)

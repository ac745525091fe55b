package domain

import "errors"

// ErrSessionNotFound is returned when no session exists for a sender.
var ErrSessionNotFound = errors.New("session not found")

// ErrJobNotFound is returned when a sender has no pending timeout job.
var ErrJobNotFound = errors.New("job not found")

// ErrLockAcquire is returned when the per-sender lock cannot be taken.
var ErrLockAcquire = errors.New("failed to acquire session lock")

// ErrUnknownStep is returned when a persisted session carries a step the flow does not know.
var ErrUnknownStep = errors.New("unknown step")

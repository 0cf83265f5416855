package services

import "errors"

// Business-rule rejections are detected before any mutation and surfaced to
// the caller as client errors; store failures pass through wrapped.
var (
	ErrNotFound             = errors.New("user points not found")
	ErrInsufficientEnergy   = errors.New("not enough energy")
	ErrClaimTooSoon         = errors.New("claim available only once every 24 hours")
	ErrTaskAlreadyCompleted = errors.New("task already completed")
	ErrTaskUnavailable      = errors.New("task is not available")
)

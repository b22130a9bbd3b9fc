// Package engine drives the multi-strategy application state machine.
package engine

import (
	"errors"
	"fmt"
)

// RetryableError signals that a strategy could not complete but a later
// strategy in the chain may still succeed.
type RetryableError struct {
	Strategy string
	Message  string
	Cause    error
}

func (e *RetryableError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Strategy, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Strategy, e.Message)
}

func (e *RetryableError) Unwrap() error {
	return e.Cause
}

// BlockingError signals that automated submission must stop for this job.
// Captchas, auth checkpoints, and unfillable required fields are blocking:
// retrying with another strategy would hit the same wall or risk a lockout.
type BlockingError struct {
	Strategy string
	Reason   string
	Cause    error
}

func (e *BlockingError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: blocked: %s: %v", e.Strategy, e.Reason, e.Cause)
	}
	return fmt.Sprintf("%s: blocked: %s", e.Strategy, e.Reason)
}

func (e *BlockingError) Unwrap() error {
	return e.Cause
}

// Retryable reports whether err allows falling through to the next strategy.
func Retryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// Blocking reports whether err must short-circuit the chain.
func Blocking(err error) bool {
	var be *BlockingError
	return errors.As(err, &be)
}

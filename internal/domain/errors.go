package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a unique key collision.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidCart marks a cart that breaks a line item invariant.
	ErrInvalidCart = errors.New("invalid cart")
	// ErrSubmissionInFlight is returned when an order for the cart is already being placed.
	ErrSubmissionInFlight = errors.New("order submission already in progress")
	// ErrUnauthenticated indicates the request carries no valid session.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrInvalidInput marks a request the caller must fix before retrying.
	ErrInvalidInput = errors.New("invalid input")
)

// GuardViolation means a checkout step was entered before its prerequisite
// state existed. It is resolved by navigating to Redirect, not by showing an error.
type GuardViolation struct {
	Step     Step
	Rule     string
	Redirect string
}

func (e *GuardViolation) Error() string {
	return fmt.Sprintf("step %s blocked by %s, redirect to %s", e.Step, e.Rule, e.Redirect)
}

// SubmissionError wraps a failure reported by the order boundary. Message is
// shown to the user as-is.
type SubmissionError struct {
	Message string
	Err     error
}

func (e *SubmissionError) Error() string {
	return e.Message
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

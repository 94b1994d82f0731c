package workflow

import "errors"

var (
	// ErrInvalidTransition is returned for a command the current state does not accept.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrBusy is returned while a submit is in flight.
	ErrBusy = errors.New("a submit is already in progress")
	// ErrUnknownProduct is returned when a selection names an item the billing does not have.
	ErrUnknownProduct = errors.New("unknown product")
	// ErrStartPending is recorded on an abandon queued behind an unfinished start-delivery.
	ErrStartPending = errors.New("start delivery still in flight")
)

// Package delivery sends drafts through email and chat transports.
// Transports are independent: the dispatcher retries each one on its own and reports
// which of them delivered the message.
package delivery

import (
	"context"
	"errors"
	"net/textproto"
)

// Message is a rendered draft addressed to one recipient
type Message struct {
	To      string // email address or chat id, depending on transport
	Subject string
	HTML    string
}

// Transport delivers a message through a single channel
type Transport interface {
	Name() string
	Deliver(ctx context.Context, msg Message) error
}

// ErrNoRecipient is returned when the schedule has no address for a transport
var ErrNoRecipient = errors.New("no recipient")

// permanentError marks failures retrying can't fix, like a rejected chat id or bad smtp credentials
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// retryable reports whether another delivery attempt may succeed.
// Smtp replies of 5xx class are permanent negative completions.
func retryable(err error) bool {
	if errors.Is(err, ErrNoRecipient) {
		return false
	}
	var pe *permanentError
	if errors.As(err, &pe) {
		return false
	}
	var te *textproto.Error
	if errors.As(err, &te) {
		return te.Code < 500
	}
	return true
}

package console

import (
	"errors"

	"github.com/camuig/trader-console/internal/gateway"
)

var (
	// ErrBusy means the control is disabled because a request from it is still in flight.
	ErrBusy = errors.New("another request is already in flight")
	// ErrDeclined means a destructive action was not confirmed; nothing was sent.
	ErrDeclined = errors.New("action not confirmed")
	// ErrNotLoaded means a mutation was attempted before the first successful load.
	ErrNotLoaded = errors.New("not loaded yet")
	// ErrNotCancellable means the order is in a terminal or non-actionable state.
	ErrNotCancellable = errors.New("order is not cancellable")
	// ErrNoBrokerOrderID means a live order has no broker id yet and cannot be addressed.
	ErrNoBrokerOrderID = errors.New("live order has no broker order id yet")
)

// ValidationError is detected client-side and never reaches the network.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(msg string) *ValidationError {
	return &ValidationError{Message: msg}
}

// Message renders err as the inline text shown next to the affected control.
func Message(err error, fallback string) string {
	if err == nil {
		return ""
	}

	var v *ValidationError
	if errors.As(err, &v) {
		return v.Message
	}

	var t *gateway.TransportError
	if errors.As(err, &t) {
		return "Network error: " + t.Error()
	}

	var a *gateway.APIError
	if errors.As(err, &a) {
		if a.Message == "" {
			return fallback
		}
		return a.Message
	}

	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}

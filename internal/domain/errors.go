package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSession means a token was required but none is stored. Terminal until re-login.
	ErrNoSession = errors.New("authentication token not found")
	// ErrUnreachable wraps transport failures talking to the backend.
	ErrUnreachable = errors.New("backend unreachable")
	// ErrNotFound is returned when a product lookup resolves to nothing.
	ErrNotFound = errors.New("product not found")
)

const (
	MsgNoSession   = "Authentication token not found. Please log in."
	MsgUnreachable = "Network Error: Could not connect to the server. Please check your connection or server status."
)

// RemoteError is a non-2xx response from the backend. Message is shown verbatim.
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("backend status %d: %s", e.Status, e.Message)
}

// ValidationError is a local check that failed before any network call.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func Invalid(msg string) error { return &ValidationError{Message: msg} }

// Describe turns an error from an operation into display text. action reads like
// "update product" and is used in the "Failed to ..." prefix for backend errors.
func Describe(action string, err error) string {
	if err == nil {
		return ""
	}
	var verr *ValidationError
	var rerr *RemoteError
	switch {
	case errors.As(err, &verr):
		return verr.Message
	case errors.Is(err, ErrNoSession):
		return MsgNoSession
	case errors.As(err, &rerr):
		return fmt.Sprintf("Failed to %s: %s", action, rerr.Message)
	case errors.Is(err, ErrUnreachable):
		return MsgUnreachable
	case errors.Is(err, ErrNotFound):
		return "Product not found."
	default:
		return fmt.Sprintf("An unexpected error occurred while trying to %s.", action)
	}
}

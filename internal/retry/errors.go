package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
)

// ErrUnavailable is matched by every error returned once an operation is given up on.
var ErrUnavailable = errors.New("service unavailable")

// TransientError marks a failure that may succeed on a later attempt.
type TransientError struct {
	err error
}

func (e *TransientError) Error() string {
	return e.err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.err
}

// NewTransientError wraps an error as retryable. Nil stays nil.
func NewTransientError(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{err: err}
}

// UnavailableError is the terminal error of an operation that either failed
// with a non-transient error or exhausted its attempts.
type UnavailableError struct {
	Operation string
	Attempts  int
	Err       error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s unavailable after %d attempt(s): %v", e.Operation, e.Attempts, e.Err)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

func (e *UnavailableError) Is(target error) bool {
	return target == ErrUnavailable
}

var transientSignatures = []string{
	"overloaded",
	"unavailable",
	"try again",
	"deadline exceeded",
	"connection reset",
	"connection refused",
	"rate limit",
}

// IsTransient reports whether err looks like a temporary failure of the remote side.
// Cancellation by the caller is never transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, ErrUnavailable) {
		return false
	}

	var transient *TransientError
	if errors.As(err, &transient) {
		return true
	}

	// context.DeadlineExceeded satisfies net.Error, so it is checked first.
	if errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, signature := range transientSignatures {
		if strings.Contains(msg, signature) {
			return true
		}
	}
	return false
}

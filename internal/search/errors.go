package search

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	// ErrCancelled marks a search superseded by a newer one. Callers drop it silently.
	ErrCancelled = errors.New("search cancelled")
	// ErrTimeout marks a search that hit the per-request ceiling. It is recoverable.
	ErrTimeout = errors.New("search timed out")
	// ErrLoginRequired is returned when the gate suppressed the search.
	ErrLoginRequired = errors.New("login required to continue searching")
)

// StatusError is a non-2xx answer from the search index.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("search index status %d", e.Code)
	}
	return fmt.Sprintf("search index status %d: %s", e.Code, e.Message)
}

// Outcome is the result class of one search attempt.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeCancelled
	OutcomeTimeout
	OutcomeRejected
	OutcomeGated
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeTimeout:
		return "timeout"
	case OutcomeRejected:
		return "rejected"
	case OutcomeGated:
		return "gated"
	default:
		return "failed"
	}
}

// Classify maps an error returned by this package to its Outcome.
func Classify(err error) Outcome {
	var status *StatusError
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, ErrCancelled):
		return OutcomeCancelled
	case errors.Is(err, ErrTimeout):
		return OutcomeTimeout
	case errors.Is(err, ErrLoginRequired):
		return OutcomeGated
	case errors.As(err, &status) && status.Code < 500:
		return OutcomeRejected
	default:
		return OutcomeFailed
	}
}

// transportError turns a failed round trip into ErrCancelled or ErrTimeout
// where it applies. parent is the caller's context, before the timeout was added.
func transportError(parent context.Context, err error) error {
	if parent.Err() != nil {
		return fmt.Errorf("%w: %v", ErrCancelled, err)
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrCancelled, err)
	}
	return fmt.Errorf("algolia query: %w", err)
}

package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Provider operations.
const (
	OpComplete = "complete"
	OpEmbed    = "embed"
	OpSearch   = "search"
)

// ProviderError represents a failed call to an external completion, embedding or search service
type ProviderError struct {
	Op        string
	Message   string
	Transient bool
	Cause     error
}

func (e *ProviderError) Error() string {
	kind := "permanent"
	if e.Transient {
		kind = "transient"
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s provider error (%s): %s: %v", e.Op, kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s provider error (%s): %s", e.Op, kind, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// IsTransient reports whether err is a provider failure worth retrying.
func IsTransient(err error) bool {
	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr.Transient
	}
	return false
}

func classify(op, message string, err error) *ProviderError {
	return &ProviderError{Op: op, Message: message, Transient: transient(err), Cause: err}
}

// transient recognizes rate limits, server errors and network failures
func transient(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusTooManyRequests || gerr.Code >= http.StatusInternalServerError
	}

	if s, ok := status.FromError(err); ok {
		switch s.Code() {
		case codes.Unavailable, codes.ResourceExhausted, codes.DeadlineExceeded, codes.Aborted, codes.Internal:
			return true
		}
		return false
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

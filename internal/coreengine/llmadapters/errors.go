package llmadapters

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ProviderError wraps a vendor API failure with enough detail to decide
// whether a retry is worthwhile. StatusCode is 0 when the failure happened
// before an HTTP response arrived (connection refused, DNS, timeout).
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s API error: %s", e.Provider, e.Message)
}

// IsTransient reports whether an error is worth retrying: rate limits,
// server-side failures, timeouts and network-level faults. Permanent errors
// such as invalid credentials or a malformed request are not retried.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var pe *ProviderError
	if errors.As(err, &pe) {
		switch {
		case pe.StatusCode == 0:
			// No HTTP response at all: treat as a network fault.
			return true
		case pe.StatusCode == 408 || pe.StatusCode == 429:
			return true
		case pe.StatusCode >= 500:
			return true
		default:
			return false
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return false
}

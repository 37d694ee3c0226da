// Package provider holds the typed error surface shared by the external
// vision and speech clients.
package provider

import "fmt"

// Reason classifies why a provider call failed.
type Reason string

const (
	ReasonTimeout   Reason = "timeout"
	ReasonAuth      Reason = "auth"
	ReasonRateLimit Reason = "rate_limit"
	ReasonMalformed Reason = "malformed_response"
	ReasonUpstream  Reason = "upstream"
)

// Error is a failed call to an external model provider. Status is the HTTP
// status when one was received, zero otherwise.
type Error struct {
	Provider string
	Reason   Reason
	Status   int
	Message  string
	Err      error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s provider error (%s): %s", e.Provider, e.Reason, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s provider error (%s): %v", e.Provider, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s provider error (%s)", e.Provider, e.Reason)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether a single bounded retry is worthwhile.
// Only rate limiting qualifies; auth and malformed responses will not
// heal on their own, and timeouts already consumed the caller's budget.
func (e *Error) Retryable() bool {
	return e.Reason == ReasonRateLimit
}

// ReasonForStatus maps an HTTP status from a provider to a Reason.
func ReasonForStatus(status int) Reason {
	switch {
	case status == 401 || status == 403:
		return ReasonAuth
	case status == 429:
		return ReasonRateLimit
	default:
		return ReasonUpstream
	}
}

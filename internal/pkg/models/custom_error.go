package models

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// StaleEventError marks an event whose occurredAt predates the collection's
// lastEventAt. Stale events are acknowledged and discarded.
type StaleEventError struct {
	ExternalID  string
	OccurredAt  time.Time
	LastEventAt time.Time
}

func (e *StaleEventError) Error() string {
	return fmt.Sprintf("stale event for collection %s: occurred at %s, last event at %s",
		e.ExternalID, e.OccurredAt.Format(time.RFC3339), e.LastEventAt.Format(time.RFC3339))
}

// IllegalTransitionError marks a transition the state machine does not
// allow. The collection is left unchanged and the event is parked.
type IllegalTransitionError struct {
	ExternalID string
	From       string
	To         string
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal transition for collection %s: %s -> %s", e.ExternalID, e.From, e.To)
}

// RateLimitExhaustedError wraps the last error after all retries for a
// service key were used. It is retryable later by the caller.
type RateLimitExhaustedError struct {
	ServiceKey string
	Attempts   int
	LastErr    error
}

func (e *RateLimitExhaustedError) Error() string {
	return fmt.Sprintf("rate limit retries exhausted for %s after %d attempts: %v",
		e.ServiceKey, e.Attempts, e.LastErr)
}

func (e *RateLimitExhaustedError) Unwrap() error { return e.LastErr }

// ProviderError carries the HTTP status of a failed provider call so the
// rate limiter can distinguish throttling from other failures.
type ProviderError struct {
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider returned status %d: %s", e.StatusCode, e.Body)
}

// IsThrottle reports whether err looks like a provider throttle signal.
func IsThrottle(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.StatusCode == http.StatusTooManyRequests
	}
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "rate limit") || strings.Contains(msg, "too many requests")
}

// ErrUnauthorized is returned when the access-control collaborator refuses
// an elevated operation.
var ErrUnauthorized = errors.New("actor not authorized for operation")

// ErrCollectionNotFound is returned for lookups of unknown external ids.
var ErrCollectionNotFound = errors.New("collection not found")

package llm

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/googleapi"
)

// ErrUpstreamRateLimited indicates the LLM provider itself is rate limiting
// us. This is the provider's limit, not the user's coin quota: callers must
// surface it as a transient-infrastructure condition so the UI never implies
// the user is out of coins when the real cause is upstream throttling.
var ErrUpstreamRateLimited = errors.New("llm provider rate limited")

// ErrUpstreamUnavailable indicates the LLM provider could not be reached or
// did not answer in time.
var ErrUpstreamUnavailable = errors.New("llm provider unavailable")

// IsTransient reports whether err is an upstream availability problem
// (rate limit, outage, timeout) rather than a request defect.
func IsTransient(err error) bool {
	return errors.Is(err, ErrUpstreamRateLimited) || errors.Is(err, ErrUpstreamUnavailable)
}

// classifyError maps provider and transport failures onto the two upstream
// sentinel errors, preserving the original via %w chaining.
func classifyError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == 429:
			return fmt.Errorf("%w: %v", ErrUpstreamRateLimited, err)
		case apiErr.Code >= 500:
			return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
		}
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	return err
}

// Package generate implements the AI features gated by the coin economy:
// resume summaries, experience/education descriptions, cover letters, and
// ATS match analysis. Each feature builds a prompt, calls the LLM under a
// short timeout, and validates structured output before returning it.
package generate

import (
	"context"
	"time"

	"github.com/oatmeal/resume-builder/internal/llm"
)

// DefaultCallTimeout bounds a single LLM call. Upstream latency is unbounded
// and the enclosing request deadline is not ours to spend; a timed-out call
// is treated as failed, not unknown.
const DefaultCallTimeout = 8 * time.Second

// Service runs the AI generation features against an LLM client.
type Service struct {
	client  llm.Client
	timeout time.Duration
}

// NewService creates a generation service. A zero timeout uses
// DefaultCallTimeout.
func NewService(client llm.Client, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	return &Service{client: client, timeout: timeout}
}

// withCallTimeout derives the per-call context for one LLM invocation.
func (s *Service) withCallTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

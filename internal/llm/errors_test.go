package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/api/googleapi"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"nil passes through", nil, nil},
		{
			"provider 429 maps to rate limited",
			fmt.Errorf("call failed: %w", &googleapi.Error{Code: 429, Message: "quota exceeded"}),
			ErrUpstreamRateLimited,
		},
		{
			"provider 503 maps to unavailable",
			fmt.Errorf("call failed: %w", &googleapi.Error{Code: 503}),
			ErrUpstreamUnavailable,
		},
		{
			"deadline maps to unavailable",
			fmt.Errorf("call failed: %w", context.DeadlineExceeded),
			ErrUpstreamUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyError(tt.in)
			if tt.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tt.want)
		})
	}
}

func TestClassifyErrorLeavesRequestDefectsAlone(t *testing.T) {
	badReq := &googleapi.Error{Code: 400, Message: "invalid argument"}
	got := classifyError(badReq)
	assert.False(t, IsTransient(got))
	var apiErr *googleapi.Error
	assert.True(t, errors.As(got, &apiErr))
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(fmt.Errorf("wrapped: %w", ErrUpstreamRateLimited)))
	assert.True(t, IsTransient(fmt.Errorf("wrapped: %w", ErrUpstreamUnavailable)))
	assert.False(t, IsTransient(errors.New("parse failure")))
	assert.False(t, IsTransient(nil))
}

package classify

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StudyChat/internal/backend"
)

const secret = "sk-live-0123456789abcdef"

func TestClassify(t *testing.T) {
	c := New(secret)

	tests := []struct {
		name     string
		err      error
		category Category
		message  string
		status   int
	}{
		{
			name:     "unauthorized",
			err:      &backend.APIError{StatusCode: 401, Message: "bad key " + secret},
			category: Unauthorized,
			message:  "API key error: Please check your AI API key configuration.",
			status:   401,
		},
		{
			name:     "rate limited",
			err:      &backend.APIError{StatusCode: 429},
			category: RateLimited,
			message:  "API rate limit or quota exceeded: Please check your plan or try again later.",
			status:   429,
		},
		{
			name:     "service error with message",
			err:      &backend.APIError{StatusCode: 503, Message: "model overloaded"},
			category: ServiceError,
			message:  "API Error: 503 - model overloaded",
			status:   503,
		},
		{
			name:     "service error without message",
			err:      &backend.APIError{StatusCode: 500},
			category: ServiceError,
			message:  "API Error: 500 - Unknown API error",
			status:   500,
		},
		{
			name:     "empty response",
			err:      fmt.Errorf("wrapped: %w", backend.ErrEmptyResponse),
			category: EmptyResponse,
			message:  "Received an empty response from the AI. Please try rephrasing your request.",
		},
		{
			name:     "transport",
			err:      &backend.TransportError{Op: "send request", Err: errors.New("connection refused")},
			category: Transport,
			message:  "I apologize, but I'm having trouble processing your request.",
		},
		{
			name:     "context canceled",
			err:      context.Canceled,
			category: Transport,
			message:  "I apologize, but I'm having trouble processing your request.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.err)
			assert.Equal(t, tt.category, got.Category)
			assert.Equal(t, tt.message, got.Message)
			assert.Equal(t, tt.status, got.StatusCode)
			assert.NotContains(t, got.Message, secret)
		})
	}
}

func TestClassifyRedactsSecretsInServerMessage(t *testing.T) {
	c := New("", secret)
	got := c.Classify(&backend.APIError{StatusCode: 400, Message: "key " + secret + " lacks access"})
	require.Equal(t, ServiceError, got.Category)
	require.Equal(t, "API Error: 400 - key [REDACTED] lacks access", got.Message)
}

// Package classify turns completion failures into the short, user-facing
// text shown in the transcript.
package classify

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"StudyChat/internal/backend"
)

// Category is the user-facing failure class
type Category string

const (
	Transport     Category = "transport"
	Unauthorized  Category = "unauthorized"
	RateLimited   Category = "rate_limited"
	ServiceError  Category = "service_error"
	EmptyResponse Category = "empty_response"
)

const (
	transportText     = "I apologize, but I'm having trouble processing your request."
	unauthorizedText  = "API key error: Please check your AI API key configuration."
	rateLimitedText   = "API rate limit or quota exceeded: Please check your plan or try again later."
	emptyResponseText = "Received an empty response from the AI. Please try rephrasing your request."
	unknownAPIError   = "Unknown API error"
	redacted          = "[REDACTED]"
)

// Result is a classified failure.
type Result struct {
	Category   Category
	Message    string
	StatusCode int // 0 when no HTTP response was received
}

// Classifier maps errors to Results. Secrets it was built with never appear
// in a Result message.
type Classifier struct {
	secrets []string
}

// New creates a classifier that scrubs the given secrets. Empty strings are ignored.
func New(secrets ...string) *Classifier {
	c := &Classifier{}
	for _, s := range secrets {
		if s != "" {
			c.secrets = append(c.secrets, s)
		}
	}
	return c
}

// Classify maps err to a category and user-facing text. Errors it does not
// recognise fall back to the transport text.
func (c *Classifier) Classify(err error) Result {
	var apiErr *backend.APIError
	switch {
	case errors.As(err, &apiErr):
		return c.classifyStatus(apiErr)
	case errors.Is(err, backend.ErrEmptyResponse):
		return Result{Category: EmptyResponse, Message: emptyResponseText}
	default:
		return Result{Category: Transport, Message: transportText}
	}
}

func (c *Classifier) classifyStatus(apiErr *backend.APIError) Result {
	switch apiErr.StatusCode {
	case http.StatusUnauthorized:
		return Result{Category: Unauthorized, Message: unauthorizedText, StatusCode: apiErr.StatusCode}
	case http.StatusTooManyRequests:
		return Result{Category: RateLimited, Message: rateLimitedText, StatusCode: apiErr.StatusCode}
	}

	detail := strings.TrimSpace(apiErr.Message)
	if detail == "" {
		detail = unknownAPIError
	}
	return Result{
		Category:   ServiceError,
		Message:    fmt.Sprintf("API Error: %d - %s", apiErr.StatusCode, c.scrub(detail)),
		StatusCode: apiErr.StatusCode,
	}
}

func (c *Classifier) scrub(s string) string {
	for _, secret := range c.secrets {
		s = strings.ReplaceAll(s, secret, redacted)
	}
	return s
}

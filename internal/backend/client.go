package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Fixed request policy for the completion endpoint.
const (
	DefaultBaseURL = "https://api.together.xyz/v1"
	Model          = "mistralai/Mixtral-8x7B-Instruct-v0.1"
	Temperature    = 0.7
	TopP           = 0.95
	TopK           = 40
	MaxTokens      = 1024
)

// Options configures a Client. Tracer and Meter default to the global
// OpenTelemetry providers.
type Options struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	Logger  *slog.Logger
	Tracer  trace.Tracer
	Meter   metric.Meter
}

// Client sends single prompts to an OpenAI-compatible chat completion API.
// It issues exactly one request per call: no retries, no caching.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	tracer     trace.Tracer
	meter      metric.Meter
	duration   metric.Float64Histogram
}

// NewClient creates a completion client
func NewClient(opts Options) (*Client, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("API key not configured")
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer("studychat")
	}
	if opts.Meter == nil {
		opts.Meter = otel.Meter("studychat")
	}

	duration, err := opts.Meter.Float64Histogram(
		"http.client.request.duration",
		metric.WithDescription("HTTP request duration in milliseconds"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}

	return &Client{
		apiKey:     opts.APIKey,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: &http.Client{Timeout: opts.Timeout},
		logger:     opts.Logger,
		tracer:     opts.Tracer,
		meter:      opts.Meter,
		duration:   duration,
	}, nil
}

// Complete sends the prompt as a single user message and returns the text of
// the first choice.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, span := c.tracer.Start(ctx, "completion_api_call")
	defer span.End()

	text, err := c.complete(ctx, span, prompt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "completion failed")
		c.logger.Warn("completion failed", "error", strings.ReplaceAll(err.Error(), c.apiKey, "[REDACTED]"))
		return "", err
	}
	return text, nil
}

func (c *Client) complete(ctx context.Context, span trace.Span, prompt string) (string, error) {
	start := time.Now()
	defer func() {
		c.duration.Record(ctx, float64(time.Since(start).Milliseconds()))
	}()
	c.logger.Debug("sending completion request", "model", Model, "prompt_len", len(prompt))

	reqBody := ChatCompletionRequest{
		Model:       Model,
		Messages:    []ChatMessage{{Role: "user", Content: prompt}},
		Temperature: Temperature,
		TopP:        TopP,
		TopK:        TopK,
		MaxTokens:   MaxTokens,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("content-type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &TransportError{Op: "send request", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &TransportError{Op: "read response", Err: err}
	}

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode != http.StatusOK {
		return "", &APIError{StatusCode: resp.StatusCode, Message: extractErrorMessage(body)}
	}

	var apiResp ChatCompletionResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return "", &TransportError{Op: "unmarshal response", Err: err}
	}

	c.recordUsage(ctx, apiResp.Usage)

	if len(apiResp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	text := apiResp.Choices[0].Message.Content
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}

	c.logger.Info("completion received", "duration_ms", time.Since(start).Milliseconds(), "response_len", len(text))
	return text, nil
}

// recordUsage records OpenTelemetry counters from the response usage object
func (c *Client) recordUsage(ctx context.Context, usage map[string]interface{}) {
	for key, value := range usage {
		n, ok := value.(float64)
		if !ok {
			continue
		}
		counter, err := c.meter.Int64Counter(
			fmt.Sprintf("llm.usage.%s", key),
			metric.WithDescription(fmt.Sprintf("LLM usage metric: %s", key)),
		)
		if err != nil {
			c.logger.Warn("failed to create counter", "key", key, "error", err)
			continue
		}
		counter.Add(ctx, int64(n))
	}
}


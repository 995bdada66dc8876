// Package llm wraps OpenAI-compatible chat completion providers behind a
// circuit breaker.
//
// The same client serves xAI and OpenAI; both speak the chat completions
// protocol, so only the base URL, token, and model differ.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"

	"github.com/brainvault/brainvault-server/internal/metrics"
)

var (
	// ErrNotConfigured indicates a provider without an API key.
	ErrNotConfigured = errors.New("llm provider not configured")

	// ErrEmptyResponse indicates the provider returned no choices or blank text.
	ErrEmptyResponse = errors.New("llm returned an empty response")

	// ErrCircuitOpen indicates the breaker refused the call.
	ErrCircuitOpen = errors.New("llm circuit open")
)

// Completer produces a single chat completion.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// Options configures a Client.
type Options struct {
	Name        string // provider label used in logs, metrics, and the breaker
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
	Logger      *slog.Logger
	Metrics     *metrics.Metrics
}

// Client calls one chat completion provider.
type Client struct {
	model       llms.Model
	name        string
	maxTokens   int
	temperature float64
	timeout     time.Duration
	breaker     *gobreaker.CircuitBreaker
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

// New builds a Client for an OpenAI-compatible endpoint.
// Returns ErrNotConfigured when opts.APIKey is empty.
func New(opts Options) (*Client, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("%s: %w", opts.Name, ErrNotConfigured)
	}

	model, err := openai.New(
		openai.WithBaseURL(opts.BaseURL),
		openai.WithModel(opts.Model),
		openai.WithToken(opts.APIKey),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s client: %w", opts.Name, err)
	}

	return NewWithModel(model, opts), nil
}

// NewWithModel builds a Client around an existing langchaingo model.
func NewWithModel(model llms.Model, opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := &Client{
		model:       model,
		name:        opts.Name,
		maxTokens:   opts.MaxTokens,
		temperature: opts.Temperature,
		timeout:     timeout,
		logger:      logger,
		metrics:     opts.Metrics,
	}
	c.breaker = gobreaker.NewCircuitBreaker(breakerSettings(opts.Name, logger, opts.Metrics))
	return c
}

// breakerSettings trips after 5 consecutive failures and probes again after
// 30 seconds with a single request.
func breakerSettings(name string, logger *slog.Logger, m *metrics.Metrics) gobreaker.Settings {
	return gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
			m.SetBreakerState(name, int(to))
		},
		IsSuccessful: func(err error) bool {
			// A caller giving up is not the provider's fault.
			return err == nil || errors.Is(err, context.Canceled)
		},
	}
}

// Name returns the provider label.
func (c *Client) Name() string {
	return c.name
}

// State reports the breaker state.
func (c *Client) State() gobreaker.State {
	return c.breaker.State()
}

// Complete sends one system and one user message and returns the trimmed reply.
func (c *Client) Complete(ctx context.Context, system, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	messages := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, system),
		llms.TextParts(schema.ChatMessageTypeHuman, prompt),
	}

	callOpts := []llms.CallOption{llms.WithTemperature(c.temperature)}
	if c.maxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(c.maxTokens))
	}

	start := time.Now()
	out, err := c.breaker.Execute(func() (any, error) {
		resp, err := c.model.GenerateContent(ctx, messages, callOpts...)
		if err != nil {
			return nil, err
		}
		if len(resp.Choices) == 0 {
			return nil, ErrEmptyResponse
		}
		text := strings.TrimSpace(resp.Choices[0].Content)
		if text == "" {
			return nil, ErrEmptyResponse
		}
		return text, nil
	})
	elapsed := time.Since(start).Seconds()

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			c.metrics.RecordUpstreamCall(c.name, "rejected", elapsed)
			return "", fmt.Errorf("%s: %w", c.name, ErrCircuitOpen)
		}
		c.metrics.RecordUpstreamCall(c.name, "error", elapsed)
		return "", fmt.Errorf("%s completion: %w", c.name, err)
	}

	c.metrics.RecordUpstreamCall(c.name, "ok", elapsed)
	return out.(string), nil
}

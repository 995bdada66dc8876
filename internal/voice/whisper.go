package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/brainvault/brainvault-server/internal/metrics"
)

// Transcript is the text recognized in an upload.
type Transcript struct {
	Text     string  `json:"text"`
	Language string  `json:"language,omitempty"`
	Duration float64 `json:"duration,omitempty"` // seconds
}

// Transcriber converts audio to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, format Format) (*Transcript, error)
}

// ErrTranscriberNotConfigured means no transcription endpoint or key is set.
var ErrTranscriberNotConfigured = errors.New("transcription service not configured")

// WhisperOptions configures a WhisperClient.
type WhisperOptions struct {
	BaseURL    string // e.g. https://api.openai.com/v1
	APIKey     string
	Model      string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
}

// WhisperClient calls an OpenAI-compatible /audio/transcriptions endpoint.
type WhisperClient struct {
	endpoint string
	apiKey   string
	model    string
	timeout  time.Duration
	http     *http.Client
	breaker  *gobreaker.CircuitBreaker
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// NewWhisperClient creates a WhisperClient.
func NewWhisperClient(opts WhisperOptions) *WhisperClient {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	model := opts.Model
	if model == "" {
		model = "whisper-1"
	}

	return &WhisperClient{
		endpoint: strings.TrimSuffix(opts.BaseURL, "/") + "/audio/transcriptions",
		apiKey:   opts.APIKey,
		model:    model,
		timeout:  timeout,
		http:     httpClient,
		logger:   logger,
		metrics:  opts.Metrics,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "whisper",
			MaxRequests: 1,
			Interval:    60 * time.Second,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
				opts.Metrics.SetBreakerState(name, int(to))
			},
		}),
	}
}

// Configured reports whether the client has credentials to call upstream.
func (c *WhisperClient) Configured() bool {
	return c.apiKey != ""
}

// Transcribe implements Transcriber.
func (c *WhisperClient) Transcribe(ctx context.Context, audio []byte, format Format) (*Transcript, error) {
	if !c.Configured() {
		return nil, ErrTranscriberNotConfigured
	}

	body, contentType, err := c.encode(audio, format)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	out, err := c.breaker.Execute(func() (any, error) {
		return c.post(ctx, body, contentType)
	})
	elapsed := time.Since(start).Seconds()
	if err != nil {
		outcome := "error"
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			outcome = "rejected"
		}
		c.metrics.RecordUpstreamCall("whisper", outcome, elapsed)
		return nil, fmt.Errorf("transcribe: %w", err)
	}
	c.metrics.RecordUpstreamCall("whisper", "ok", elapsed)
	return out.(*Transcript), nil
}

func (c *WhisperClient) encode(audio []byte, format Format) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="audio.%s"`, format))
	header.Set("Content-Type", format.ContentType())
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("create file part: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return nil, "", fmt.Errorf("write audio: %w", err)
	}
	if err := w.WriteField("model", c.model); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("response_format", "verbose_json"); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

func (c *WhisperClient) post(ctx context.Context, body []byte, contentType string) (*Transcript, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upstream status %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var t Transcript
	if err := json.Unmarshal(payload, &t); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	t.Text = strings.TrimSpace(t.Text)
	return &t, nil
}

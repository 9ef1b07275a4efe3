// Package generation talks to the long-running video generation API used by
// the create flow: submit a prompt, poll the operation, return a playable URI.
package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/veotube/backend/internal/config"
	"github.com/veotube/backend/internal/logging"
	"github.com/veotube/backend/internal/metrics"
	"github.com/veotube/backend/internal/models"
)

var (
	// ErrGenerationFailed wraps every failure reported by the backend.
	ErrGenerationFailed = errors.New("video generation failed")
	// ErrDisabled is returned when no API key is configured.
	ErrDisabled = errors.New("video generation is not configured")
)

// Error carries the backend's own message so it can be shown verbatim.
type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string { return e.Message }

// Is makes every backend error match ErrGenerationFailed.
func (e *Error) Is(target error) bool { return target == ErrGenerationFailed }

// Request is one prompt to render.
type Request struct {
	Prompt string
	Format models.Format
}

// Client submits generation jobs and polls them to completion. Polls are
// paced by a token bucket so a slow job never turns into a busy loop.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
	model   string
	timeout time.Duration
	limiter *rate.Limiter
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the instrumented default client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// NewClient builds a client from configuration.
func NewClient(cfg config.GenerationConfig, opts ...Option) *Client {
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}

	c := &Client{
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   30 * time.Second,
		},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		timeout: timeout,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

// Generate renders req and returns the media URI with the API key attached.
// There is no automatic retry: any failure is returned to the caller.
func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	if !c.Enabled() {
		return "", ErrDisabled
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return "", errors.New("prompt is required")
	}
	format := req.Format
	if !format.Valid() {
		format = models.FormatLandscape
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	ctx, span := logging.StartSpan(ctx, "generate_video")
	defer span.End()

	start := time.Now()
	uri, err := c.run(ctx, req.Prompt, format)
	if err != nil {
		span.Fail(err)
		metrics.Generations.WithLabelValues("failed").Inc()
		return "", err
	}
	metrics.Generations.WithLabelValues("completed").Inc()
	metrics.GenerationDuration.Observe(time.Since(start).Seconds())
	return uri, nil
}

func (c *Client) connect(ctx context.Context) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      c.apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  c.http,
		HTTPOptions: genai.HTTPOptions{BaseURL: c.baseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("create generation client: %w", err)
	}
	return client, nil
}

func (c *Client) run(ctx context.Context, prompt string, format models.Format) (string, error) {
	logger := logging.FromContext(ctx)

	client, err := c.connect(ctx)
	if err != nil {
		return "", err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}
	op, err := client.Models.GenerateVideos(ctx, c.model, prompt, nil, &genai.GenerateVideosConfig{
		AspectRatio:    string(format),
		NumberOfVideos: 1,
	})
	if err != nil {
		return "", backendError(err)
	}
	logger.Info("generation submitted", slog.String("operation", op.Name))

	for !op.Done {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("wait for operation %s: %w", op.Name, err)
		}
		op, err = client.Operations.GetVideosOperation(ctx, op, nil)
		if err != nil {
			return "", backendError(err)
		}
		logger.Debug("generation polled", slog.String("operation", op.Name), slog.Bool("done", op.Done))
	}

	if op.Error != nil {
		return "", operationError(op.Error)
	}
	if op.Response == nil || len(op.Response.GeneratedVideos) == 0 ||
		op.Response.GeneratedVideos[0].Video == nil {
		return "", &Error{Message: "generation finished without a video"}
	}
	return c.withKey(op.Response.GeneratedVideos[0].Video.URI)
}

// backendError keeps the API's own message so it can be shown verbatim.
func backendError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		msg := strings.TrimSpace(apiErr.Message)
		if msg == "" {
			msg = apiErr.Status
		}
		return &Error{Code: apiErr.Code, Message: msg}
	}
	return fmt.Errorf("call generation api: %w", err)
}

func operationError(fields map[string]any) error {
	e := &Error{Message: "video generation failed"}
	if msg, ok := fields["message"].(string); ok && msg != "" {
		e.Message = msg
	}
	if code, ok := fields["code"].(float64); ok {
		e.Code = int(code)
	}
	return e
}

func (c *Client) withKey(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil || raw == "" {
		return "", &Error{Message: fmt.Sprintf("invalid video uri %q", raw)}
	}
	q := u.Query()
	q.Set("key", c.apiKey)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

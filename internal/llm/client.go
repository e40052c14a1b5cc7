package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/noah-isme/lakgs-api/pkg/middleware/requestid"
)

const (
	defaultTimeout     = 60 * time.Second
	defaultMaxAttempts = 3
	defaultMaxTokens   = 2000
	defaultBackoff     = time.Second
	maxRetryAfter      = 10 * time.Second
)

// Config describes the chat-completion endpoint.
type Config struct {
	APIKey       string
	BaseURL      string
	Model        string
	Timeout      time.Duration
	MaxAttempts  int
	MaxTokens    int
	RateLimitRPS float64
}

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Observer receives completion outcomes for metrics.
type Observer interface {
	ObserveLLMCall(profile, outcome string, duration time.Duration)
}

// RetryObserver is notified before a retry; the error is the failed attempt's.
type RetryObserver func(attempt int, err error)

type retryObserverKey struct{}

// WithRetryObserver attaches fn to ctx so callers can surface retries as warnings.
func WithRetryObserver(ctx context.Context, fn RetryObserver) context.Context {
	return context.WithValue(ctx, retryObserverKey{}, fn)
}

func retryObserverFrom(ctx context.Context) RetryObserver {
	fn, _ := ctx.Value(retryObserverKey{}).(RetryObserver)
	return fn
}

// Completer produces one completion. Client implements it; tests fake it.
type Completer interface {
	Complete(ctx context.Context, messages []Message, profile Profile) (string, error)
}

// Client talks to an OpenAI compatible /chat/completions endpoint.
type Client struct {
	cfg      Config
	http     *http.Client
	limiter  *rate.Limiter
	backoff  time.Duration
	observer Observer
	tracer   trace.Tracer
	logger   *zap.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the transport client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithObserver records call outcomes.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// WithBackoff sets the base delay between retries.
func WithBackoff(d time.Duration) Option {
	return func(c *Client) { c.backoff = d }
}

// NewClient builds a client. Zero config values fall back to defaults.
func NewClient(cfg Config, logger *zap.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	limit := rate.Inf
	if cfg.RateLimitRPS > 0 {
		limit = rate.Limit(cfg.RateLimitRPS)
	}
	c := &Client{
		cfg:     cfg,
		http:    &http.Client{},
		limiter: rate.NewLimiter(limit, 1),
		backoff: defaultBackoff,
		tracer:  otel.Tracer("lakgs/llm"),
		logger:  logger.With(zap.String("component", "llm")),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether the client has an endpoint, a model and a key.
func (c *Client) Configured() bool {
	return c.cfg.APIKey != "" && c.cfg.BaseURL != "" && c.cfg.Model != ""
}

type completionRequest struct {
	Model            string    `json:"model"`
	Messages         []Message `json:"messages"`
	Temperature      float64   `json:"temperature"`
	TopP             float64   `json:"top_p"`
	MaxTokens        int       `json:"max_tokens"`
	FrequencyPenalty float64   `json:"frequency_penalty"`
	PresencePenalty  float64   `json:"presence_penalty"`
}

type completionResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// Complete sends messages under profile and returns choices[0].message.content.
func (c *Client) Complete(ctx context.Context, messages []Message, profile Profile) (string, error) {
	if !c.Configured() {
		return "", fmt.Errorf("%w: api key, base url and model are required", ErrMisconfigured)
	}
	if profile.Name == "" {
		profile = ProfileDefault
	}

	ctx, span := c.tracer.Start(ctx, "llm.complete", trace.WithAttributes(
		attribute.String("llm.profile", profile.Name),
		attribute.String("llm.model", c.cfg.Model),
	))
	defer span.End()

	start := time.Now()
	content, err := c.do(ctx, completionRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: profile.Temperature,
		TopP:        profile.TopP,
		MaxTokens:   c.cfg.MaxTokens,
	})
	if c.observer != nil {
		c.observer.ObserveLLMCall(profile.Name, outcome(err), time.Since(start))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	return content, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrMisconfigured):
		return "misconfigured"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}

// do applies the retry policy: network failures get MaxAttempts tries, a 5xx
// is retried once, 429 and 401 map to typed errors and other 4xx fail at once.
func (c *Client) do(ctx context.Context, body completionRequest) (string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	notify := retryObserverFrom(ctx)
	networkFailures := 0
	serverRetried := false
	backoff := c.backoff

	for attempt := 1; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
		}

		resp, raw, err := c.doOnce(ctx, payload)
		if err == nil {
			return decodeContent(raw)
		}

		var httpErr *HTTPError
		wait := jitter(backoff)
		switch {
		case errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusTooManyRequests:
			return "", fmt.Errorf("%w: %w", ErrRateLimited, err)
		case errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusUnauthorized:
			return "", fmt.Errorf("%w: %w", ErrMisconfigured, err)
		case errors.As(err, &httpErr) && httpErr.StatusCode >= 500:
			if serverRetried {
				return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
			}
			serverRetried = true
			wait = retryAfter(resp, wait)
		case errors.As(err, &httpErr):
			return "", err
		case ctx.Err() != nil:
			return "", fmt.Errorf("%w: %w", ErrUnavailable, ctx.Err())
		case isNetworkError(err):
			networkFailures++
			if networkFailures >= c.cfg.MaxAttempts {
				return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
			}
		default:
			return "", err
		}

		c.logger.Warn("llm request retrying",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", wait),
			zap.String("request_id", requestid.FromContext(ctx)),
			zap.Error(err),
		)
		if notify != nil {
			notify(attempt, err)
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", fmt.Errorf("%w: %w", ErrUnavailable, ctx.Err())
		case <-timer.C:
		}
		backoff *= 2
	}
}

func (c *Client) doOnce(ctx context.Context, payload []byte) (*http.Response, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	if id := requestid.FromContext(ctx); id != "" {
		req.Header.Set(requestid.Header, id)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp, nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, raw, &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp, raw, nil
}

func decodeContent(raw []byte) (string, error) {
	var out completionResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("llm: decode completion: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("llm: completion has no choices")
	}
	return out.Choices[0].Message.Content, nil
}

func isNetworkError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

func retryAfter(resp *http.Response, fallback time.Duration) time.Duration {
	if resp == nil {
		return fallback
	}
	v := strings.TrimSpace(resp.Header.Get("Retry-After"))
	if v == "" {
		return fallback
	}
	var secs int
	if _, err := fmt.Sscanf(v, "%d", &secs); err != nil || secs <= 0 {
		return fallback
	}
	d := time.Duration(secs) * time.Second
	if d > maxRetryAfter {
		return maxRetryAfter
	}
	return d
}

func jitter(base time.Duration) time.Duration {
	if base <= 0 {
		return 0
	}
	return base/2 + time.Duration(rand.Int63n(int64(base/2)+1))
}

// Package viewer talks to the document viewer bridge over JSON/HTTP.
// A Session binds the client to one document and serves as both the
// resolver's text accessor and the fix engine's correction target.
package viewer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/claimsiqhq/claimfix/internal/fix"
	"github.com/claimsiqhq/claimfix/internal/locate"
	"github.com/claimsiqhq/claimfix/internal/model"
)

const (
	maxAttempts     = 3
	maxResponseSize = 4 << 20
)

// ErrNoBaseURL is returned when the viewer URL is not configured
var ErrNoBaseURL = errors.New("viewer base URL is not configured")

// retrySleepFunc waits out a backoff; overridden in tests
var retrySleepFunc = sleepContext

// sleepContext waits for d or until ctx is done
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// decodeError is a 2xx answer whose body could not be read; the request was served
type decodeError struct {
	err error
}

func (e *decodeError) Error() string {
	return "decode response: " + e.err.Error()
}

func (e *decodeError) Unwrap() error {
	return e.err
}

// StatusError is a non-2xx answer from the viewer
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status: %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status: %d: %s", e.StatusCode, e.Body)
}

func (e *StatusError) retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500 && e.StatusCode != http.StatusNotImplemented
}

// Client calls the viewer bridge
type Client struct {
	baseURL    *url.URL
	apiKey     string
	httpClient *http.Client
	limiter    *Limiter
	logger     *slog.Logger
}

// NewClient creates a viewer client from configuration
func NewClient(cfg model.ViewerConfig, logger *slog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, ErrNoBaseURL
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse viewer URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("parse viewer URL: unsupported scheme %q", base.Scheme)
	}
	if logger == nil {
		logger = slog.Default()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = model.DefaultConfig().Viewer.Timeout
	}

	return &Client{
		baseURL: base,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: newProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy),
			},
		},
		limiter: NewLimiter(cfg.RequestsPerSecond, cfg.BurstSize),
		logger:  logger,
	}, nil
}

// Session binds the client to one document
func (c *Client) Session(documentID string) *Session {
	return &Session{client: c, documentID: documentID}
}

// EngineFunc opens a fix engine per document, each resolving against its own session
func (c *Client) EngineFunc(cfg model.ResolverConfig, opts ...fix.Option) fix.EngineFunc {
	return func(ctx context.Context, documentID string) (*fix.Engine, error) {
		if documentID == "" {
			return nil, errors.New("open document: empty document id")
		}
		session := c.Session(documentID)
		resolver := locate.NewResolver(session, cfg, c.logger)
		return fix.NewEngine(resolver, session, opts...), nil
	}
}

// read posts a query that does not change the document; 429, 5xx and transport errors are retried.
func (c *Client) read(ctx context.Context, documentID, endpoint string, body, out any) error {
	return c.post(ctx, documentID, endpoint, body, out, maxAttempts)
}

// write posts a document change exactly once; a repeated write could apply an edit twice.
// Anything but a status answer leaves the outcome unknown and is reported as fix.ErrIndeterminate.
func (c *Client) write(ctx context.Context, documentID, endpoint string, body, out any) error {
	err := c.post(ctx, documentID, endpoint, body, out, 1)
	if err == nil || errors.Is(err, locate.ErrUnsupported) {
		return err
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return err
	}
	return fmt.Errorf("%w: %v", fix.ErrIndeterminate, err)
}

// post sends body to /documents/{id}/{endpoint} and decodes the answer into out.
// Failures before a 2xx answer are retried up to attempts times with backoff;
// 501 means the viewer lacks the capability.
func (c *Client) post(ctx context.Context, documentID, endpoint string, body, out any, attempts int) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	endpointURL := c.baseURL.JoinPath("documents", documentID, endpoint).String()
	logCtx := c.logger.With("document_id", documentID, "endpoint", endpoint)

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<(attempt-1)) * 200 * time.Millisecond
			logCtx.Debug("Retrying viewer call", "attempt", attempt+1, "backoff", backoff, "error", lastErr)
			if err := retrySleepFunc(ctx, backoff); err != nil {
				return fmt.Errorf("%w (after: %v)", err, lastErr)
			}
		}

		if err := c.limiter.Wait(ctx, documentID); err != nil {
			return fmt.Errorf("rate limit: %w", err)
		}

		lastErr = c.do(ctx, endpointURL, payload, out)
		if lastErr == nil {
			return nil
		}

		var decodeErr *decodeError
		if errors.As(lastErr, &decodeErr) {
			return lastErr
		}
		var statusErr *StatusError
		if errors.As(lastErr, &statusErr) {
			if statusErr.StatusCode == http.StatusNotImplemented {
				return fmt.Errorf("%s: %w", endpoint, locate.ErrUnsupported)
			}
			if !statusErr.retryable() {
				return lastErr
			}
		}
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w (after: %v)", err, lastErr)
		}
	}

	logCtx.Warn("Viewer call failed", "attempts", attempts, "error", lastErr)
	return lastErr
}

func (c *Client) do(ctx context.Context, endpointURL string, payload []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpointURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call viewer: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &decodeError{err: err}
	}
	return nil
}

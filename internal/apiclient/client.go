// Package apiclient talks to the remote event-booking REST API.
// Requests are issued at most once; failures are returned, never retried.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-events/dashboard/internal/session"
)

// maxErrorBody caps how much of an error response is read.
const maxErrorBody = 64 << 10

// TokenSource supplies the bearer token for authenticated requests.
type TokenSource interface {
	Token(ctx context.Context) string
}

// StoreTokens reads the bearer token from a session store on every request.
type StoreTokens struct {
	Store session.Store
}

// Token returns the stored token or "".
func (s StoreTokens) Token(ctx context.Context) string {
	if sess := s.Store.Load(ctx); sess != nil {
		return sess.Token
	}
	return ""
}

// UnauthorizedHandler is invoked when an authenticated request is rejected with 401.
type UnauthorizedHandler func(ctx context.Context, err error)

// Client issues JSON requests against the API.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	tokens  TokenSource
	logger  *zap.Logger

	mu             sync.RWMutex
	onUnauthorized UnauthorizedHandler
}

// Options configures a Client.
type Options struct {
	BaseURL string
	Timeout time.Duration // 0 means no client-side timeout
	Tokens  TokenSource
	HTTP    *http.Client // optional; overrides Timeout
	Logger  *zap.Logger
}

// New creates an API client.
func New(opts Options) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("parse base url: %q is not absolute", opts.BaseURL)
	}
	hc := opts.HTTP
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{baseURL: u, http: hc, tokens: opts.Tokens, logger: logger}, nil
}

// SetUnauthorizedHandler sets the callback for 401 answers to authenticated requests.
func (c *Client) SetUnauthorizedHandler(fn UnauthorizedHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUnauthorized = fn
}

type request struct {
	method string
	path   string
	query  url.Values
	body   any
	authed bool
}

func (c *Client) do(ctx context.Context, r request, out any) error {
	err := c.roundTrip(ctx, r, out)
	if err != nil && r.authed && IsAuth(err) {
		c.mu.RLock()
		fn := c.onUnauthorized
		c.mu.RUnlock()
		if fn != nil {
			fn(ctx, err)
		}
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, r request, out any) error {
	u := *c.baseURL
	u.Path = c.baseURL.Path + r.path
	if len(r.query) > 0 {
		u.RawQuery = r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		raw, err := json.Marshal(r.body)
		if err != nil {
			return &Error{Kind: KindUnexpected, Message: "encode request", Err: err}
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, u.String(), body)
	if err != nil {
		return &Error{Kind: KindUnexpected, Message: "build request", Err: err}
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.authed {
		token := ""
		if c.tokens != nil {
			token = c.tokens.Token(ctx)
		}
		if token == "" {
			return &Error{Kind: KindAuth, Reason: ReasonSessionExpired, Message: "not logged in"}
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("api request failed",
			zap.String("request_id", requestID),
			zap.String("method", r.method),
			zap.String("path", r.path),
			zap.Error(err),
		)
		return &Error{Kind: KindNetwork, Err: err}
	}
	defer resp.Body.Close()
	c.logger.Debug("api request",
		zap.String("request_id", requestID),
		zap.String("method", r.method),
		zap.String("path", r.path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fromResponse(resp.StatusCode, raw)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Kind: KindUnexpected, Status: resp.StatusCode, Message: "decode response", Err: err}
	}
	return nil
}

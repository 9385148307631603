// Package api issues authenticated calls to the todo backend.
package api

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	retry "github.com/appleboy/go-httpretry"
	"golang.org/x/oauth2"

	"todo/internal/tokenstore"
)

// maxExcerpt bounds how much of a bad body is quoted in errors.
const maxExcerpt = 200

// TokenSource supplies the bearer token for each call.
type TokenSource interface {
	Get() (tokenstore.Token, bool)
}

// Config holds the collaborators of a Client.
type Config struct {
	// BaseURL is prefixed to every request path.
	BaseURL string

	// HTTP sends the requests. NewHTTPClient builds the default one.
	HTTP *retry.Client

	// Tokens supplies the bearer token.
	Tokens TokenSource

	// OnUnauthorized runs when the server answers 401, before the
	// request fails. It is expected to clear the session.
	OnUnauthorized func() error

	// Timeout bounds each request; zero leaves it to ctx.
	Timeout time.Duration

	Logger *slog.Logger
}

// Client is an authenticated JSON client for the todo backend.
type Client struct {
	baseURL        string
	http           *retry.Client
	tokens         TokenSource
	onUnauthorized func() error
	timeout        time.Duration
	logger         *slog.Logger
}

// RequestOptions describes the optional parts of a request.
type RequestOptions struct {
	// Body is JSON-encoded when non-nil.
	Body any

	// Headers are merged over the defaults. Authorization cannot be
	// overridden.
	Headers http.Header
}

// NewHTTPClient creates the transport used by Client. maxRetries is the
// number of automatic retries on transient failures; zero disables them.
func NewHTTPClient(maxRetries int) (*retry.Client, error) {
	base := &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
			MaxIdleConns:        10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
	}
	return retry.NewClient(
		retry.WithHTTPClient(base),
		retry.WithMaxRetries(maxRetries),
	)
}

// New creates a Client.
func New(cfg Config) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		http:           cfg.HTTP,
		tokens:         cfg.Tokens,
		onUnauthorized: cfg.OnUnauthorized,
		timeout:        cfg.Timeout,
		logger:         logger,
	}
}

// Request sends an authenticated request and returns the decoded body.
//
// An empty body decodes to nil. When the decoded body is an object with
// a string "body" field, that string is decoded and returned instead.
// Status codes other than 401 are not errors.
func (c *Client) Request(ctx context.Context, method, path string, opts RequestOptions) (any, error) {
	tok, ok := c.tokens.Get()
	if !ok {
		return nil, ErrUnauthenticated
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var body io.Reader
	if opts.Body != nil {
		b, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, vs := range opts.Headers {
		req.Header.Del(k)
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	(&oauth2.Token{AccessToken: tok.Value, TokenType: "Bearer"}).SetAuthHeader(req)

	c.logger.Debug("api request", "method", method, "url", req.URL.String(), "token_kind", tok.Kind)

	resp, err := c.http.DoWithContext(ctx, req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("request failed: %w", ctxErr)
		}
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.logger.Error("api rejected the token, logging out", "status", resp.StatusCode)
		if c.onUnauthorized != nil {
			if err := c.onUnauthorized(); err != nil {
				c.logger.Error("logout after 401 failed", "error", err)
			}
		}
		return nil, ErrUnauthorized
	}

	text, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		c.logger.Warn("api returned an error status", "status", resp.StatusCode, "body", excerpt(text))
	}

	return decodeBody(text, c.logger)
}

// decodeBody parses a response body, unwrapping one level of JSON
// carried as a string in a "body" field.
func decodeBody(text []byte, logger *slog.Logger) (any, error) {
	if len(text) == 0 {
		return nil, nil
	}

	var data any
	if err := json.Unmarshal(text, &data); err != nil {
		logger.Error("response is not JSON", "body", excerpt(text))
		return nil, fmt.Errorf("%w: %s", ErrInvalidResponse, excerpt(text))
	}

	wrapper, ok := data.(map[string]any)
	if !ok {
		return data, nil
	}
	inner, ok := wrapper["body"].(string)
	if !ok {
		return data, nil
	}

	var parsed any
	if err := json.Unmarshal([]byte(inner), &parsed); err != nil {
		logger.Error("response body field is not JSON", "body", excerpt([]byte(inner)))
		return nil, fmt.Errorf("%w: body field: %s", ErrInvalidResponse, excerpt([]byte(inner)))
	}
	logger.Debug("unwrapped body field", "value", parsed)
	return parsed, nil
}

func excerpt(b []byte) string {
	if len(b) > maxExcerpt {
		return string(b[:maxExcerpt]) + "..."
	}
	return string(b)
}

// Package httpapi implements the repository interfaces against the
// PensaConnect REST API.
//
// TRANSPORT STACK (outermost first):
//
//	oauth2.Transport        → adds "Authorization: Bearer <jwt>" (only with a session)
//	middleware.RequestID    → adds "X-Request-ID: <xid>"
//	middleware.Logger       → one slog line per request
//	http.DefaultTransport   → the actual network I/O
//
// The *http.Client built from it is safe for concurrent use, so one Client can
// serve every screen or command at once.
package httpapi

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

	"golang.org/x/oauth2"

	"github.com/pensaconnect/connect/internal/apperror"
	"github.com/pensaconnect/connect/internal/middleware"
)

// maxBodyBytes caps how much of a response we are willing to read.
const maxBodyBytes = 4 << 20

type Config struct {
	BaseURL string        // e.g. http://localhost:5000/api/v1
	Timeout time.Duration // whole-request timeout; 0 = none

	// TokenSource supplies the bearer token. nil = anonymous requests
	// (the wall still works, "my_prayers" and writes answer 401).
	TokenSource oauth2.TokenSource

	// Transport is the innermost RoundTripper. nil = http.DefaultTransport.
	// Tests point it at an httptest server's client transport.
	Transport http.RoundTripper
}

// Client talks JSON to the API and unwraps its response envelope.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// New creates a Client. BaseURL must be an absolute http(s) URL.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("httpapi: invalid base URL %q", cfg.BaseURL)
	}

	var rt http.RoundTripper = middleware.Chain(cfg.Transport,
		middleware.RequestID,
		middleware.Logger(logger),
	)
	if cfg.TokenSource != nil {
		rt = &oauth2.Transport{Source: cfg.TokenSource, Base: rt}
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout, Transport: rt},
		logger:  logger,
	}, nil
}

// do sends one request and returns the envelope's "data" payload.
//
// ERROR CONTRACT:
//   - The API answered with a non-2xx status → an *apperror.AppError whose kind
//     follows statusError and whose Message is the server's own message.
//   - The request never got an answer (network, timeout, cancelled context,
//     expired session) → the underlying kind, wrapped with the method and path.
//   - A 2xx answer we cannot read → apperror.ErrUpstream.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (json.RawMessage, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("httpapi: encoding %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("httpapi: building %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, transportError(method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, apperror.Upstream(fmt.Sprintf("reading %s %s response", method, path), err)
	}

	env, envErr := decodeEnvelope(raw)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := http.StatusText(resp.StatusCode)
		if envErr == nil && env.Message != "" {
			message = env.Message
		}
		c.logger.Debug("api returned an error",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", resp.StatusCode),
			slog.String("message", message),
		)
		return nil, statusError(resp.StatusCode, message)
	}

	if envErr != nil {
		return nil, apperror.Upstream(fmt.Sprintf("%s %s: unreadable response", method, path), envErr)
	}
	if env.Status == envError {
		return nil, apperror.Upstream(env.Message, nil)
	}
	return env.Data, nil
}

// transportError keeps an *apperror.AppError (e.g. the expired-session error
// from the token source) recognisable, and classifies everything else as upstream.
func transportError(method, path string, err error) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperror.Upstream(fmt.Sprintf("%s %s: cannot reach the PensaConnect API", method, path), err)
}

// Package backend is the HTTP client for the reading-tracker backend. One
// Client implements every collaborator the core needs: the catalog, the
// library, collections, reviews, stats and identity.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	domainerrors "github.com/listenupapp/readtrack/internal/errors"
	"github.com/listenupapp/readtrack/internal/id"
	"github.com/listenupapp/readtrack/internal/logger"
	"github.com/listenupapp/readtrack/internal/ratelimit"
	"github.com/listenupapp/readtrack/internal/session"
)

const (
	defaultRPS     = 10.0
	defaultBurst   = 20
	defaultTimeout = 15 * time.Second

	// Responses beyond this size are cut off.
	maxBodySize = 8 << 20

	userAgent = "readtrack/1.0"
)

// Options configures a Client.
type Options struct {
	BaseURL string
	Timeout time.Duration
	RPS     float64
	Burst   int
	// SearchFullRecords tells the client that search hits carry complete
	// records rather than summaries.
	SearchFullRecords bool
	// HTTPClient overrides the transport; mainly for tests.
	HTTPClient *http.Client
}

// Client is a rate-limited backend API client.
type Client struct {
	http        *http.Client
	base        *url.URL
	limiter     *ratelimit.KeyedRateLimiter
	fullRecords bool
	logger      *slog.Logger
}

// New creates a backend client.
func New(opts Options, log *slog.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, domainerrors.InvalidField("backend_url", fmt.Sprintf("invalid backend URL %q", opts.BaseURL))
	}

	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.RPS <= 0 {
		opts.RPS = defaultRPS
	}
	if opts.Burst <= 0 {
		opts.Burst = defaultBurst
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	return &Client{
		http:        httpClient,
		base:        base,
		limiter:     ratelimit.New(opts.RPS, opts.Burst),
		fullRecords: opts.SearchFullRecords,
		logger:      logger.OrDiscard(log),
	}, nil
}

// Close releases resources held by the client.
func (c *Client) Close() {
	c.limiter.Stop()
}

// call describes one backend request.
type call struct {
	op     string
	method string
	path   string // relative to the base URL, already escaped (see pathf)
	query  url.Values
	sess   *session.Session
	token  string // used when sess is nil
	body   any
	out    any
	// notFoundID names the resource in NotFound errors.
	notFoundID string
}

// do executes a request with rate limiting and maps the outcome to domain errors.
func (c *Client) do(ctx context.Context, cl call) error {
	if err := c.limiter.Wait(ctx, c.base.Host); err != nil {
		return wrapError(cl.op, 0, transportError(ctx, fmt.Errorf("rate limit wait: %w", err)))
	}

	u := c.base.JoinPath(cl.path)
	if cl.query != nil {
		u.RawQuery = cl.query.Encode()
	}

	var reqBody io.Reader
	if cl.body != nil {
		data, err := json.Marshal(cl.body)
		if err != nil {
			return wrapError(cl.op, 0, domainerrors.Wrap(err, domainerrors.CodeInternal, "encode request"))
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, u.String(), reqBody)
	if err != nil {
		return wrapError(cl.op, 0, domainerrors.Wrap(err, domainerrors.CodeInternal, "create request"))
	}

	requestID := logger.RequestID(ctx)
	if requestID == "" {
		requestID = id.RequestID()
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if cl.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	token := cl.token
	if cl.sess != nil {
		token = cl.sess.Token
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	c.logger.Debug("backend request",
		"op", cl.op,
		"method", cl.method,
		"path", cl.path,
		"request_id", requestID,
	)

	resp, err := c.http.Do(req)
	if err != nil {
		return wrapError(cl.op, 0, transportError(ctx, fmt.Errorf("execute request: %w", err)))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return wrapError(cl.op, resp.StatusCode, transportError(ctx, fmt.Errorf("read response: %w", err)))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Debug("backend request failed",
			"op", cl.op,
			"status", resp.StatusCode,
			"request_id", requestID,
		)
		return wrapError(cl.op, resp.StatusCode, statusError(resp.StatusCode, body, cl.notFoundID))
	}

	if cl.out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, cl.out); err != nil {
		return wrapError(cl.op, resp.StatusCode, domainerrors.Wrap(err, domainerrors.CodeInternal, "malformed response"))
	}
	return nil
}

// pathf builds an escaped path, escaping each argument as a path segment.
// Dot segments are percent-encoded so JoinPath cannot resolve them.
func pathf(format string, args ...string) string {
	escaped := make([]any, len(args))
	for i, a := range args {
		switch a {
		case ".", "..":
			escaped[i] = strings.Repeat("%2E", len(a))
		default:
			escaped[i] = url.PathEscape(a)
		}
	}
	return fmt.Sprintf(format, escaped...)
}

// Package tagger is the client of the concept-recognition service.
package tagger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ppiankov/autocoding/internal/cache"
	"github.com/ppiankov/autocoding/internal/internalerr"
	"github.com/ppiankov/autocoding/internal/logger"
	"github.com/ppiankov/autocoding/internal/model"
	"github.com/ppiankov/autocoding/internal/util"
	"github.com/ppiankov/autocoding/internal/worker"
)

// sleepFunc is swapped out by tests
var sleepFunc = func(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

const baseBackoff = 500 * time.Millisecond

// Client posts documents to the concept-recognition service.
// Calls are serialized: the service is not safe for concurrent requests.
type Client struct {
	url        string
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	maxRetries int
	limiter    *worker.Limiter
	cache      cache.Cache
	cacheTTL   time.Duration
	log        logger.Logger
	inFlight   chan struct{}
}

// Option configures a Client
type Option func(*Client)

// WithCache caches decoded responses keyed by service URL and document
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(cl *Client) {
		cl.cache = c
		cl.cacheTTL = ttl
	}
}

// WithLimiter replaces the limiter built from the configuration
func WithLimiter(l *worker.Limiter) Option {
	return func(cl *Client) { cl.limiter = l }
}

// WithLogger sets the client logger
func WithLogger(l logger.Logger) Option {
	return func(cl *Client) { cl.log = l }
}

// NewClient creates a client for the service described by cfg
func NewClient(cfg model.TaggerConfig, opts ...Option) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy)

	c := &Client{
		url: cfg.URL,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent:  cfg.UserAgent,
		maxBytes:   cfg.MaxBodyBytes,
		maxRetries: cfg.MaxRetries,
		limiter:    worker.NewLimiter(cfg.RequestsPerSecond, cfg.BurstSize),
		log:        logger.GetDefault(),
		inFlight:   make(chan struct{}, 1),
	}
	if c.maxBytes <= 0 {
		c.maxBytes = 10_000_000
	}
	if c.maxRetries < 0 {
		c.maxRetries = 0
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// URL returns the service endpoint
func (c *Client) URL() string {
	return c.url
}

// Tag sends document to the service and returns its sentences and concepts
// with offsets converted to byte offsets of document.
func (c *Client) Tag(ctx context.Context, document string) (*model.TaggerResponse, error) {
	// The service rejects blank documents; they have nothing to code anyway
	if strings.TrimSpace(document) == "" {
		return &model.TaggerResponse{}, nil
	}

	key := cache.Key(c.url, document)
	if resp, ok := c.cached(key); ok {
		c.log.Debug("tagger cache hit", "bytes", len(document))
		return resp, nil
	}

	select {
	case c.inFlight <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", internalerr.ErrServiceUnavailable, ctx.Err())
	}
	defer func() { <-c.inFlight }()

	body, err := c.postWithRetry(ctx, document)
	if err != nil {
		return nil, err
	}

	resp, err := decodeResponse(body, document)
	if err != nil {
		return nil, err
	}
	c.store(key, resp)

	c.log.Debug("tagged document", "sentences", len(resp.Sentences), "concepts", len(resp.Concepts))
	return resp, nil
}

// Ping checks that the service answers at all
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return internalerr.Configf("tagger url %q: %v", c.url, err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", internalerr.ErrServiceUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))

	if resp.StatusCode >= 500 {
		return classifyStatus(resp.StatusCode, resp.Status)
	}
	return nil
}

func (c *Client) postWithRetry(ctx context.Context, document string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := baseBackoff * time.Duration(1<<(attempt-1))
			c.log.Warn("retrying tagger request", "attempt", attempt+1, "backoff", backoff, "error", lastErr)
			if err := sleepFunc(ctx, backoff); err != nil {
				return nil, fmt.Errorf("%w: %w", internalerr.ErrServiceUnavailable, err)
			}
		}

		if err := c.limiter.Wait(ctx, c.url); err != nil {
			return nil, fmt.Errorf("%w: rate limit: %w", internalerr.ErrServiceUnavailable, err)
		}

		body, err := c.post(ctx, document)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !isRetryable(err) || ctx.Err() != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

func (c *Client) post(ctx context.Context, document string) ([]byte, error) {
	form := url.Values{"document": {document}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, internalerr.Configf("tagger url %q: %v", c.url, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &transportError{err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
		return nil, classifyStatus(resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return nil, &transportError{err: fmt.Errorf("read body: %w", err)}
	}
	if int64(len(body)) > c.maxBytes {
		return nil, internalerr.Servicef("response exceeds %d bytes", c.maxBytes)
	}
	return body, nil
}

func (c *Client) cached(key string) (*model.TaggerResponse, bool) {
	if c.cache == nil {
		return nil, false
	}
	data, ok := c.cache.Get(key)
	if !ok {
		return nil, false
	}
	var resp model.TaggerResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		_ = c.cache.Delete(key)
		return nil, false
	}
	return &resp, true
}

func (c *Client) store(key string, resp *model.TaggerResponse) {
	if c.cache == nil {
		return
	}
	data, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := c.cache.Set(key, data, c.cacheTTL); err != nil {
		c.log.Warn("failed to cache tagger response", "error", err)
	}
}

// statusError is a non-200 answer from the service
type statusError struct {
	code   int
	status string
	base   error
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%v: unexpected status: %s", e.base, e.status)
}

func (e *statusError) Unwrap() error { return e.base }

func classifyStatus(code int, status string) error {
	base := internalerr.ErrService
	if code == http.StatusServiceUnavailable || code == http.StatusGatewayTimeout {
		base = internalerr.ErrServiceUnavailable
	}
	return &statusError{code: code, status: status, base: base}
}

// transportError is a failure to reach the service or read its answer
type transportError struct {
	err error
}

func (e *transportError) Error() string {
	return fmt.Sprintf("%v: %v", internalerr.ErrServiceUnavailable, e.err)
}

func (e *transportError) Unwrap() []error {
	return []error{internalerr.ErrServiceUnavailable, e.err}
}

// isRetryable reports whether another attempt could succeed
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	var se *statusError
	if errors.As(err, &se) {
		return se.code == http.StatusTooManyRequests || se.code >= 500
	}

	var te *transportError
	return errors.As(err, &te)
}

// Package client provides the FileFlow REST client: bearer-token injection,
// typed error classification and exponential-backoff retry around every call.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fileflow/fileflow/internal/logging"
	"github.com/fileflow/fileflow/internal/metrics"
	"github.com/fileflow/fileflow/pkg/retry"
)

// TokenSource yields the current bearer credential. An empty token means
// "no credential"; the request then goes out unauthenticated.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenSourceFunc adapts a function to TokenSource.
type TokenSourceFunc func(ctx context.Context) (string, error)

func (f TokenSourceFunc) Token(ctx context.Context) (string, error) { return f(ctx) }

// Request describes one logical operation.
type Request struct {
	Op     string // label for logs and metrics, e.g. "folder.children"
	Method string
	Path   string // relative to the base URL
	Header http.Header

	// Body is JSON-encoded. RawBody, if set, is sent as is with ContentType.
	Body        any
	RawBody     []byte
	ContentType string
}

// Client provides HTTP access to the FileFlow API with retry and auth.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	retryConfig retry.Config
	log         *zap.Logger

	mu     sync.RWMutex
	tokens TokenSource
	online bool
}

// Config holds client configuration.
type Config struct {
	BaseURL     string
	Timeout     time.Duration
	RetryConfig retry.Config
	TokenSource TokenSource
	HTTPClient  *http.Client
	Logger      *zap.Logger
}

// New creates a new client.
func New(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RetryConfig.MaxAttempts == 0 {
		cfg.RetryConfig = retry.DefaultConfig()
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Named("client")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        100,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		}
	}

	return &Client{
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient:  httpClient,
		retryConfig: cfg.RetryConfig,
		log:         cfg.Logger,
		tokens:      cfg.TokenSource,
		online:      true,
	}
}

// BaseURL returns the API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetTokenSource replaces the token source. The next attempt of any
// in-flight or future request uses the new source. nil disables auth.
func (c *Client) SetTokenSource(ts TokenSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens = ts
}

func (c *Client) tokenSource() TokenSource {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tokens
}

// applyAuth adds the bearer header when the source yields a token. Source
// errors are logged and the request proceeds without credentials.
func (c *Client) applyAuth(ctx context.Context, req *http.Request, log *zap.Logger) {
	ts := c.tokenSource()
	if ts == nil {
		log.Debug("no token source registered, sending unauthenticated request")
		metrics.RecordTokenLookup("none")
		return
	}
	token, err := ts.Token(ctx)
	if err != nil {
		log.Warn("token source failed", logging.Err(err))
		metrics.RecordTokenLookup("error")
		return
	}
	if token == "" {
		metrics.RecordTokenLookup("empty")
		return
	}
	metrics.RecordTokenLookup("ok")
	req.Header.Set("Authorization", "Bearer "+token)
}

// IsOnline returns true if the server answered the last request.
func (c *Client) IsOnline() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.online
}

func (c *Client) setOnline(online bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.online != online {
		if online {
			c.log.Info("server is back online")
		} else {
			c.log.Warn("server is offline")
		}
	}
	c.online = online
}

// Ping checks if the server is reachable. It is not retried.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.setOnline(false)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.setOnline(false)
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}

	c.setOnline(true)
	return nil
}

// Do runs req with the client's configured retry policy and decodes the
// result into out.
func (c *Client) Do(ctx context.Context, req *Request, out any) error {
	return c.run(ctx, req, out, c.retryConfig)
}

// Execute runs req with an explicit retry budget: up to maxRetries extra
// attempts, waiting initialDelay before the first retry and doubling after.
//
// A 2xx JSON response is decoded into out (if non-nil). If out is an
// io.Writer the raw body is copied into it instead. Non-2xx responses become
// *APIError; 4xx ones are returned at once, everything else is retried.
func (c *Client) Execute(ctx context.Context, req *Request, out any, maxRetries int, initialDelay time.Duration) error {
	cfg := retry.WithRetries(maxRetries, initialDelay)
	cfg.Sleep = c.retryConfig.Sleep
	return c.run(ctx, req, out, cfg)
}

func (c *Client) run(ctx context.Context, req *Request, out any, cfg retry.Config) error {
	op := req.Op
	if op == "" {
		op = req.Method + " " + req.Path
	}

	body, contentType, err := encodeBody(req)
	if err != nil {
		return fmt.Errorf("%s: encode body: %w", op, err)
	}

	requestID := uuid.NewString()
	ctx = logging.WithRequestID(ctx, c.log, requestID)
	log := logging.WithContext(ctx, c.log).With(zap.String("op", op))

	attempt := 0
	cfg.OnRetry = func(n int, wait time.Duration, err error) {
		metrics.RecordClientRetry(op)
		log.Warn("request attempt failed, retrying",
			logging.Int("attempt", n),
			logging.Int("max_attempts", cfg.MaxAttempts),
			logging.Duration("wait", wait),
			logging.Err(err),
		)
	}

	err = retry.Do(ctx, cfg, func() error {
		attempt++
		start := time.Now()
		err := c.attempt(ctx, req, body, contentType, requestID, out, log)
		elapsed := time.Since(start)
		metrics.RecordClientRequest(op, outcome(err), elapsed)
		log.Debug("request attempt",
			logging.Int("attempt", attempt),
			logging.String("outcome", outcome(err)),
			logging.Duration("elapsed", elapsed),
		)
		return err
	})
	if err != nil {
		if _, typed := AsAPIError(err); !typed {
			log.Error("request failed", logging.Int("attempts", attempt), logging.Err(err))
			return fmt.Errorf("%s: %w", op, err)
		}
		log.Debug("request rejected", logging.Int("attempts", attempt), logging.Err(err))
		return err
	}
	return nil
}

func (c *Client) attempt(ctx context.Context, r *Request, body []byte, contentType, requestID string, out any, log *zap.Logger) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, r.Method, c.baseURL+r.Path, reader)
	if err != nil {
		return err
	}
	for k, vs := range r.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if contentType != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if req.Header.Get("Authorization") == "" {
		c.applyAuth(ctx, req, log)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.setOnline(false)
		return retry.Retryable(err)
	}
	defer resp.Body.Close()

	c.setOnline(resp.StatusCode < 500)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		apiErr := newAPIError(resp.StatusCode, statusText(resp), data)
		if apiErr.ClientError() {
			return apiErr
		}
		return retry.Retryable(apiErr)
	}

	return decodeResponse(resp, out)
}

func encodeBody(r *Request) ([]byte, string, error) {
	if r.RawBody != nil {
		return r.RawBody, r.ContentType, nil
	}
	if r.Body == nil {
		return nil, "", nil
	}
	data, err := json.Marshal(r.Body)
	if err != nil {
		return nil, "", err
	}
	return data, "application/json", nil
}

// decodeResponse fills out from a 2xx response. A partial copy into a writer
// is not retried, since the writer already holds some of the body. JSON is
// decoded into a fresh value and stored in out only on success.
func decodeResponse(resp *http.Response, out any) error {
	if w, ok := out.(io.Writer); ok {
		n, err := io.Copy(w, resp.Body)
		metrics.RecordTransfer("down", n)
		if err != nil {
			return fmt.Errorf("copy response body: %w", err)
		}
		return nil
	}

	if out == nil || !isJSON(resp.Header.Get("Content-Type")) {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	dst := out
	rv := reflect.ValueOf(out)
	var fresh reflect.Value
	if rv.Kind() == reflect.Pointer && !rv.IsNil() {
		fresh = reflect.New(rv.Elem().Type())
		dst = fresh.Interface()
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return retry.Retryable(fmt.Errorf("decode response: %w", err))
	}
	if fresh.IsValid() {
		rv.Elem().Set(fresh.Elem())
	}
	return nil
}

func isJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}

func statusText(resp *http.Response) string {
	if t := http.StatusText(resp.StatusCode); t != "" {
		return t
	}
	return resp.Status
}

func outcome(err error) string {
	if err == nil {
		return "success"
	}
	if ae, ok := AsAPIError(err); ok {
		return ae.Kind.String()
	}
	return "transport"
}

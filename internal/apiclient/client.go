// Package apiclient is the single HTTP client the portal uses to reach the
// backend REST API. It injects credentials, maps failures to domain errors and
// publishes them as notifications.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"time"

	"campus-portal/internal/config"
	"campus-portal/internal/domain"
	"campus-portal/internal/logger"
	"campus-portal/internal/validation"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const (
	maxRetryDelay   = 30 * time.Second
	maxErrorBody    = 64 * 1024
	HeaderRequestID = "X-Request-ID"
)

// Client talks to the backend. It is safe for concurrent use.
type Client struct {
	baseURL     string
	base        http.RoundTripper
	timeout     time.Duration
	notifier    domain.Notifier
	validator   *validation.Validator
	readRetries int
	retryBase   time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
}

// Option configures a Client.
type Option func(*Client)

// WithTransport replaces the underlying round tripper.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.base = rt }
}

// WithValidator replaces the response validator.
func WithValidator(v *validation.Validator) Option {
	return func(c *Client) { c.validator = v }
}

// WithSleep replaces the wait between read retries.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) { c.sleep = sleep }
}

func New(cfg config.BackendConfig, notifier domain.Notifier, opts ...Option) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		base:        http.DefaultTransport,
		timeout:     cfg.Timeout,
		notifier:    notifier,
		validator:   validation.Default(),
		readRetries: cfg.ReadRetries,
		retryBase:   cfg.RetryBaseDelay,
		sleep:       sleepContext,
	}
	if c.readRetries < 0 {
		c.readRetries = 0
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type requestOptions struct {
	silent       bool
	token        string
	query        url.Values
	skipValidate bool
}

// RequestOption adjusts a single call.
type RequestOption func(*requestOptions)

// Silent suppresses the global notification for this request. The error is
// still returned to the caller.
func Silent() RequestOption {
	return func(o *requestOptions) { o.silent = true }
}

// WithToken sets the bearer token explicitly instead of taking it from the
// session in the context.
func WithToken(token string) RequestOption {
	return func(o *requestOptions) { o.token = token }
}

// WithQuery appends query parameters to the request URL.
func WithQuery(q url.Values) RequestOption {
	return func(o *requestOptions) { o.query = q }
}

// SkipValidation decodes the response without running struct validation.
func SkipValidation() RequestOption {
	return func(o *requestOptions) { o.skipValidate = true }
}

func (c *Client) Get(ctx context.Context, path string, out interface{}, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodGet, path, nil, out, opts...)
}

func (c *Client) Post(ctx context.Context, path string, body, out interface{}, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodPost, path, body, out, opts...)
}

func (c *Client) Put(ctx context.Context, path string, body, out interface{}, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodPut, path, body, out, opts...)
}

func (c *Client) Delete(ctx context.Context, path string, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil, opts...)
}

// Do sends a JSON request and decodes a JSON response into out (when non-nil).
// GET requests are retried on network errors and 5xx responses.
func (c *Client) Do(ctx context.Context, method, path string, body, out interface{}, opts ...RequestOption) error {
	o := c.options(ctx, opts)

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return domain.NewInternalError("failed to encode request body", err)
		}
	}

	attempts := 1
	if method == http.MethodGet {
		attempts += c.readRetries
	}

	var lastErr *domain.DomainError
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if err := c.sleep(ctx, c.backoff(attempt-1)); err != nil {
				break
			}
			logger.Get().Debug("Retrying backend read",
				zap.String("path", path),
				zap.Int("attempt", attempt+1),
				zap.Error(lastErr))
		}

		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := c.newRequest(ctx, method, path, o, reader)
		if err != nil {
			return err
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		respBody, derr := c.send(req, o)
		if derr == nil {
			return c.decode(path, respBody, out, o)
		}
		lastErr = derr
		if !retryable(derr) || ctx.Err() != nil {
			break
		}
	}
	return c.fail(ctx, method, path, lastErr, o)
}

// Part is one file in a multipart request.
type Part struct {
	Field    string
	FileName string
	Content  io.Reader
}

// PostMultipart sends fields and file as multipart/form-data. It is never retried.
func (c *Client) PostMultipart(ctx context.Context, path string, fields map[string]string, file Part, out interface{}, opts ...RequestOption) error {
	o := c.options(ctx, opts)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if file.Content != nil {
		fw, err := w.CreateFormFile(file.Field, file.FileName)
		if err != nil {
			return domain.NewInternalError("failed to create multipart file", err)
		}
		if _, err := io.Copy(fw, file.Content); err != nil {
			return domain.NewInternalError("failed to write multipart file", err)
		}
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return domain.NewInternalError("failed to write multipart field", err)
		}
	}
	if err := w.Close(); err != nil {
		return domain.NewInternalError("failed to finish multipart body", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, path, o, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	respBody, derr := c.send(req, o)
	if derr != nil {
		return c.fail(ctx, http.MethodPost, path, derr, o)
	}
	return c.decode(path, respBody, out, o)
}

func (c *Client) options(ctx context.Context, opts []RequestOption) *requestOptions {
	o := &requestOptions{}
	if s, ok := domain.SessionFromContext(ctx); ok {
		o.token = s.Token
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (c *Client) newRequest(ctx context.Context, method, path string, o *requestOptions, body io.Reader) (*http.Request, error) {
	target := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(o.query) > 0 {
		target += "?" + o.query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, domain.NewInternalError("failed to build backend request", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(HeaderRequestID, requestID(ctx))
	return req, nil
}

type requestIDKey struct{}

// WithRequestID makes backend calls made with ctx carry id instead of a fresh one.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}

// httpClient attaches the bearer token through an oauth2 transport.
func (c *Client) httpClient(token string) *http.Client {
	rt := c.base
	if token != "" {
		rt = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
			Base:   c.base,
		}
	}
	return &http.Client{Transport: rt, Timeout: c.timeout}
}

func (c *Client) send(req *http.Request, o *requestOptions) ([]byte, *domain.DomainError) {
	start := time.Now()
	resp, err := c.httpClient(o.token).Do(req)
	if err != nil {
		return nil, networkError(err)
	}
	defer resp.Body.Close()

	logger.Get().Debug("Backend call",
		zap.String("method", req.Method),
		zap.String("url", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
		zap.String("request_id", req.Header.Get(HeaderRequestID)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, mapStatus(resp.StatusCode, body)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, networkError(err)
	}
	return body, nil
}

func (c *Client) decode(path string, body []byte, out interface{}, o *requestOptions) error {
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return domain.NewInvalidResponseError(path, err)
	}
	if o.skipValidate {
		return nil
	}
	if err := c.validateResponse(out); err != nil {
		logger.Get().Warn("Backend response failed validation", zap.String("path", path), zap.Error(err))
		return domain.NewInvalidResponseError(path, err)
	}
	return nil
}

// validateResponse validates a decoded struct, or each struct of a decoded slice.
func (c *Client) validateResponse(out interface{}) error {
	v := reflect.ValueOf(out)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Struct:
		return c.validator.Struct(v.Interface())
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			item := v.Index(i)
			for item.Kind() == reflect.Ptr && !item.IsNil() {
				item = item.Elem()
			}
			if item.Kind() != reflect.Struct {
				continue
			}
			if err := c.validator.Struct(item.Interface()); err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
		}
	}
	return nil
}

func (c *Client) fail(ctx context.Context, method, path string, derr *domain.DomainError, o *requestOptions) error {
	if derr == nil {
		derr = networkError(ctx.Err())
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		// Canceled by the caller: nothing to tell the user.
		return derr
	}
	logger.Get().Warn("Backend request failed",
		zap.String("method", method),
		zap.String("path", path),
		zap.String("code", string(derr.Code)),
		zap.Error(derr))
	if !o.silent && c.notifier != nil {
		c.notifier.Notify(ctx, domain.Notification{
			Level:   domain.LevelError,
			Code:    derr.Code,
			Message: derr.Message,
			At:      time.Now(),
		})
	}
	return derr
}

func (c *Client) backoff(n int) time.Duration {
	if c.retryBase <= 0 {
		return 0
	}
	d := time.Duration(float64(c.retryBase) * math.Pow(2, float64(n)))
	if d > maxRetryDelay || d <= 0 {
		return maxRetryDelay
	}
	return d
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

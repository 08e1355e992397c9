// Package apiclient is the authenticated HTTP client for the storefront API.
// It injects the lang query parameter, refreshes the access credential once
// per wave of 401s and normalizes failures into APIError.
package apiclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aidarkhanov/nanoid"
	"go.uber.org/zap"

	"github.com/waabox/shopdeck/internal/metrics"
	"github.com/waabox/shopdeck/internal/session"
)

const (
	defaultTimeout     = 30 * time.Second
	defaultRefreshPath = "/auth/refresh-token"
	requestIDAlphabet  = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// LanguageSource returns the language to send with each request.
type LanguageSource interface {
	Get() string
}

// Publisher receives session signals.
type Publisher interface {
	Publish(session.Signal)
}

type fixedLanguage string

func (l fixedLanguage) Get() string { return string(l) }

type discardPublisher struct{}

func (discardPublisher) Publish(session.Signal) {}

// Options configures a Client.
type Options struct {
	BaseURL     string
	Timeout     time.Duration
	RefreshPath string
	HTTP2       bool
	// Exclusions defaults to DefaultExclusions when nil.
	Exclusions *ExclusionSet
}

// Option customizes a Client after Options are applied.
type Option func(*Client)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithLanguage sets where the lang parameter is read from.
func WithLanguage(src LanguageSource) Option {
	return func(c *Client) { c.lang = src }
}

// WithPublisher sets the receiver of auth:refresh-failed signals.
func WithPublisher(p Publisher) Option {
	return func(c *Client) { c.publisher = p }
}

// WithCookieJar sets the jar that carries the session cookies.
func WithCookieJar(jar http.CookieJar) Option {
	return func(c *Client) { c.jar = jar }
}

// WithHTTPClient replaces the underlying HTTP client. Its Jar is used as is.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithOnRefreshed registers a hook that runs once after each successful refresh.
func WithOnRefreshed(fn func()) Option {
	return func(c *Client) { c.onRefreshed = fn }
}

// Client dispatches requests to the storefront API.
type Client struct {
	base        *url.URL
	http        *http.Client
	jar         http.CookieJar
	exclusions  ExclusionSet
	refreshPath string
	lang        LanguageSource
	publisher   Publisher
	onRefreshed func()
	log         *zap.Logger
	refresh     *refresher
}

// New creates a Client for opts.BaseURL.
func New(opts Options, options ...Option) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("api base URL is not set")
	}
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing api base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("api base URL must be absolute: %s", opts.BaseURL)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	c := &Client{
		base:        base,
		exclusions:  DefaultExclusions(),
		refreshPath: opts.RefreshPath,
		lang:        fixedLanguage("en"),
		publisher:   discardPublisher{},
		log:         zap.NewNop(),
	}
	if c.refreshPath == "" {
		c.refreshPath = defaultRefreshPath
	}
	if opts.Exclusions != nil {
		c.exclusions = *opts.Exclusions
	}
	for _, o := range options {
		o(c)
	}

	if c.http == nil {
		if c.jar == nil {
			if c.jar, err = NewCookieJar(); err != nil {
				return nil, err
			}
		}
		if c.http, err = newHTTPClient(timeout, opts.HTTP2, c.jar); err != nil {
			return nil, err
		}
	}

	c.refresh = newRefresher(c.refreshPath, timeout, c.callRefresh, c.refreshSettled)
	return c, nil
}

// Exclusions returns the exclusion set in use.
func (c *Client) Exclusions() ExclusionSet {
	return c.exclusions
}

// WithExclusions returns a client that uses set but shares transport,
// cookies and refresh state with c.
func (c *Client) WithExclusions(set ExclusionSet) *Client {
	clone := *c
	clone.exclusions = set
	return &clone
}

// Get dispatches a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Dispatch(ctx, Request{Method: http.MethodGet, Path: path, Query: query})
}

// Post dispatches a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.Dispatch(ctx, Request{Method: http.MethodPost, Path: path, Body: body})
}

// Put dispatches a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body any) (*Response, error) {
	return c.Dispatch(ctx, Request{Method: http.MethodPut, Path: path, Body: body})
}

// Patch dispatches a PATCH request with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body any) (*Response, error) {
	return c.Dispatch(ctx, Request{Method: http.MethodPatch, Path: path, Body: body})
}

// Delete dispatches a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Dispatch(ctx, Request{Method: http.MethodDelete, Path: path})
}

// Dispatch sends req and returns the 2xx response, or an error.
//
// A 401 on a request that is not the refresh endpoint and has not been
// replayed yet joins the shared refresh and, if it succeeds, replays req once.
// A 401 from the refresh endpoint publishes auth:refresh-failed and is never
// refreshed. Failed refreshes return *AuthExpiredError; everything else
// returns *APIError.
func (c *Client) Dispatch(ctx context.Context, req Request) (*Response, error) {
	resp, err := c.send(ctx, req)
	if err == nil {
		return resp, nil
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
		return nil, err
	}

	if c.isRefreshPath(req.Path) {
		c.log.Warn("refresh endpoint rejected the session", zap.String("path", req.Path))
		c.publisher.Publish(session.SignalRefreshFailed)
		return nil, &AuthExpiredError{Err: err}
	}
	if req.IsRetry {
		return nil, err
	}

	req.IsRetry = true
	if refreshErr := c.refresh.acquire(ctx); refreshErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(refreshErr, ctxErr) {
			return nil, refreshErr
		}
		return nil, &AuthExpiredError{Err: refreshErr}
	}
	c.log.Debug("replaying request after refresh",
		zap.String("method", req.Method), zap.String("path", req.Path))
	return c.Dispatch(ctx, req)
}

func (c *Client) isRefreshPath(path string) bool {
	return strings.Contains(path, c.refreshPath)
}

func (c *Client) callRefresh(ctx context.Context) error {
	_, err := c.send(ctx, Request{Method: http.MethodPost, Path: c.refreshPath})
	return err
}

// refreshSettled runs once per refresh call, before any waiter resumes.
func (c *Client) refreshSettled(err error) {
	if err != nil {
		metrics.RefreshCount.WithLabelValues("failure").Inc()
		c.log.Warn("access credential refresh failed", zap.Error(err))
		c.publisher.Publish(session.SignalRefreshFailed)
		return
	}
	metrics.RefreshCount.WithLabelValues("success").Inc()
	c.log.Info("access credential refreshed")
	if c.onRefreshed != nil {
		c.onRefreshed()
	}
}

// resolve builds the absolute URL of req, adding lang unless the path is excluded.
func (c *Client) resolve(req Request) (string, error) {
	ref, err := url.Parse(req.Path)
	if err != nil {
		return "", fmt.Errorf("parsing request path %q: %w", req.Path, err)
	}

	query := cloneQuery(ref.Query())
	for k, v := range req.Query {
		query[k] = append(query[k], v...)
	}
	if !c.exclusions.Excludes(ref.Path) {
		query.Set("lang", c.lang.Get())
	}

	u := c.base.JoinPath(ref.Path)
	u.RawQuery = query.Encode()
	return u.String(), nil
}

// send performs one HTTP round trip without any refresh handling.
func (c *Client) send(ctx context.Context, req Request) (*Response, error) {
	target, err := c.resolve(req)
	if err != nil {
		return nil, err
	}
	payload, err := encodeBody(req.Body)
	if err != nil {
		return nil, err
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	reqID, _ := nanoid.Generate(requestIDAlphabet, 12)
	httpReq.Header.Set("X-Request-ID", reqID)

	log := c.log.With(
		zap.String("request_id", reqID),
		zap.String("method", method),
		zap.String("path", req.Path),
		zap.Bool("retry", req.IsRetry),
	)

	start := time.Now()
	httpResp, err := c.http.Do(httpReq)
	metrics.RequestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.RequestCount.WithLabelValues(method, "error").Inc()
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) && !errors.Is(ctxErr, context.DeadlineExceeded) {
			return nil, ctxErr
		}
		classified := classifyTransport(err)
		log.Warn("request failed", zap.String("code", classified.Code), zap.Error(err))
		return nil, classified
	}
	defer httpResp.Body.Close()

	metrics.RequestCount.WithLabelValues(method, strconv.Itoa(httpResp.StatusCode)).Inc()
	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, classifyTransport(fmt.Errorf("reading response body: %w", err))
	}

	if httpResp.StatusCode >= 400 {
		log.Debug("request rejected", zap.Int("status", httpResp.StatusCode))
		return nil, newStatusError(httpResp, respBody)
	}
	log.Debug("request completed", zap.Int("status", httpResp.StatusCode))
	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       respBody,
	}, nil
}

package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/kbukum/voicepulse/resilience"
)

// Client sends requests to one collaborator endpoint. Each attempt passes
// the circuit breaker, and the whole breaker-guarded attempt is retried.
type Client struct {
	cfg     Config
	http    *http.Client
	breaker *resilience.CircuitBreaker
}

// New returns a client for cfg. A malformed BaseURL is rejected up front.
func New(cfg Config) (*Client, error) {
	cfg.applyDefaults()
	if cfg.BaseURL != "" {
		if _, err := url.Parse(cfg.BaseURL); err != nil {
			return nil, NewValidationError(fmt.Sprintf("base url: %v", err))
		}
	}
	c := &Client{
		cfg: cfg,
		http: &http.Client{
			Transport: http.DefaultTransport.(*http.Transport).Clone(),
			Timeout:   cfg.Timeout,
		},
	}
	if cfg.CircuitBreaker != nil {
		c.breaker = resilience.NewCircuitBreaker(*cfg.CircuitBreaker)
	}
	return c, nil
}

func (c *Client) Name() string { return c.cfg.Name }

// IsAvailable is false while the breaker is open.
func (c *Client) IsAvailable(context.Context) bool {
	return c.breaker == nil || c.breaker.State() != resilience.StateOpen
}

// Do sends req. For a non-2xx status the response is returned together
// with the classified *Error.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	attempt := func() (*Response, error) { return c.guarded(ctx, req) }
	if c.cfg.Retry == nil {
		return attempt()
	}
	return resilience.Retry(ctx, *c.cfg.Retry, attempt)
}

// PostJSON posts body and decodes a JSON response into T.
func PostJSON[T any](c *Client, ctx context.Context, path string, body any) (*JSONResponse[T], error) {
	resp, err := c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body})
	if err != nil {
		return nil, err
	}
	out := &JSONResponse[T]{StatusCode: resp.StatusCode}
	if len(resp.Body) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(resp.Body, &out.Data); err != nil {
		return nil, fmt.Errorf("httpclient: decode %s response: %w", c.cfg.Name, err)
	}
	return out, nil
}

func (c *Client) guarded(ctx context.Context, req Request) (*Response, error) {
	if c.breaker == nil {
		return c.roundTrip(ctx, req)
	}
	var resp *Response
	err := c.breaker.Execute(func() error {
		var err error
		resp, err = c.roundTrip(ctx, req)
		return err
	})
	return resp, err
}

func (c *Client) roundTrip(ctx context.Context, req Request) (*Response, error) {
	httpReq, err := c.newRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, NewTimeoutError(err)
		}
		return nil, NewConnectionError(err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, NewConnectionError(fmt.Errorf("read body: %w", err))
	}
	resp := &Response{StatusCode: httpResp.StatusCode, Headers: make(map[string]string, len(httpResp.Header)), Body: body}
	for k := range httpResp.Header {
		resp.Headers[k] = httpResp.Header.Get(k)
	}
	if statusErr := ClassifyStatusCode(httpResp.StatusCode, body); statusErr != nil {
		return resp, statusErr
	}
	return resp, nil
}

func (c *Client) newRequest(ctx context.Context, req Request) (*http.Request, error) {
	target := req.Path
	if c.cfg.BaseURL != "" && !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		target = strings.TrimRight(c.cfg.BaseURL, "/") + "/" + strings.TrimLeft(target, "/")
	}
	body, contentType, err := encodeBody(req.Body)
	if err != nil {
		return nil, NewValidationError(fmt.Sprintf("encode body: %v", err))
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, NewValidationError(fmt.Sprintf("build request: %v", err))
	}

	for k, v := range c.cfg.Headers {
		httpReq.Header.Set(k, v)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	// Multipart boundaries are generated per body, so they always win.
	if _, multipart := req.Body.(*MultipartBody); multipart || (contentType != "" && httpReq.Header.Get("Content-Type") == "") {
		httpReq.Header.Set("Content-Type", contentType)
	}
	c.cfg.Auth.apply(httpReq.Header)
	return httpReq, nil
}

func encodeBody(body any) (io.Reader, string, error) {
	switch v := body.(type) {
	case nil:
		return nil, "", nil
	case *MultipartBody:
		return v.encode()
	case io.Reader:
		return v, "", nil
	case []byte:
		return bytes.NewReader(v), "", nil
	case string:
		return strings.NewReader(v), "text/plain", nil
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, "", err
	}
	return bytes.NewReader(data), "application/json", nil
}

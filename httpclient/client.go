// Package httpclient wraps net/http with JSON helpers, request
// logging and shared headers for the chain and wallet collaborators.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/house-of-voi/hov-engine/errors"
)

// Client is a JSON-oriented HTTP client bound to one base URL.
type Client struct {
	httpClient *http.Client
	logger     zerolog.Logger
	baseURL    string
	headers    map[string]string
}

// Config holds HTTP client configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Logger  zerolog.Logger
	Headers map[string]string
}

// New creates a client. A zero timeout defaults to 30 seconds.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger:  cfg.Logger.With().Str("component", "http-client").Logger(),
		baseURL: cfg.BaseURL,
		headers: cfg.Headers,
	}
}

// Response represents an HTTP response.
type Response struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
}

// IsSuccess checks if the response indicates success.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Unmarshal unmarshals the response body into dest.
func (r *Response) Unmarshal(dest interface{}) error {
	return json.Unmarshal(r.Body, dest)
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, headers map[string]string) (*Response, error) {
	return c.do(ctx, http.MethodGet, path, nil, headers)
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body interface{}, headers map[string]string) (*Response, error) {
	return c.do(ctx, http.MethodPost, path, body, headers)
}

// GetJSON performs a GET request and unmarshals the response into dest.
func (c *Client) GetJSON(ctx context.Context, path string, dest interface{}) error {
	resp, err := c.Get(ctx, path, nil)
	if err != nil {
		return err
	}
	if !resp.IsSuccess() {
		return errors.Newf(errors.ErrChain, "HTTP error %d: %s", resp.StatusCode, string(resp.Body))
	}
	if err := resp.Unmarshal(dest); err != nil {
		return errors.Wrap(err, errors.ErrChain, "failed to unmarshal response")
	}
	return nil
}

// PostJSON performs a POST request and unmarshals the response into
// dest when it is non-nil.
func (c *Client) PostJSON(ctx context.Context, path string, body, dest interface{}) error {
	resp, err := c.Post(ctx, path, body, nil)
	if err != nil {
		return err
	}
	if !resp.IsSuccess() {
		return errors.Newf(errors.ErrChain, "HTTP error %d: %s", resp.StatusCode, string(resp.Body))
	}
	if dest != nil {
		if err := resp.Unmarshal(dest); err != nil {
			return errors.Wrap(err, errors.ErrChain, "failed to unmarshal response")
		}
	}
	return nil
}

// SetHeader sets a default header for all requests.
func (c *Client) SetHeader(key, value string) {
	if c.headers == nil {
		c.headers = make(map[string]string)
	}
	c.headers[key] = value
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, headers map[string]string) (*Response, error) {
	url := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrChain, "failed to marshal request body")
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrChain, "failed to create request")
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	startTime := time.Now()
	c.logger.Debug().
		Str("method", method).
		Str("url", url).
		Msg("HTTP request started")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().
			Err(err).
			Str("method", method).
			Str("url", url).
			Dur("duration", time.Since(startTime)).
			Msg("HTTP request failed")
		return nil, errors.Wrap(err, errors.ErrChain, "request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrChain, "failed to read response body")
	}

	c.logger.Debug().
		Str("method", method).
		Str("url", url).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(startTime)).
		Msg("HTTP request completed")

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       respBody,
		Headers:    resp.Header,
	}, nil
}

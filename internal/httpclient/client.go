package httpclient

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	ierr "github.com/keygate/keygate/internal/errors"
)

const (
	defaultTimeout = 30 * time.Second
	userAgent      = "keygate/1.0"
)

// Request represents an outbound HTTP request
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
}

// Response represents an HTTP response
type Response struct {
	StatusCode int
	Body       []byte
	Headers    map[string]string
}

// Client interface for making HTTP requests
type Client interface {
	Send(ctx context.Context, req *Request) (*Response, error)
}

// DefaultClient implements the Client interface
type DefaultClient struct {
	client *http.Client
}

// NewDefaultClient creates a new DefaultClient with the default timeout
func NewDefaultClient() Client {
	return NewDefaultClientWithTimeout(defaultTimeout)
}

// NewDefaultClientWithTimeout creates a new DefaultClient with a custom timeout
func NewDefaultClientWithTimeout(timeout time.Duration) Client {
	return &DefaultClient{
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Send makes an HTTP request and returns the response. Responses with a
// status of 400 or above are returned as an *Error so callers can branch
// on the upstream status code.
func (c *DefaultClient) Send(ctx context.Context, req *Request) (*Response, error) {
	httpReq, err := c.buildRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHintf("request to %s failed", req.URL).
			Mark(ierr.ErrHTTPClient)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("failed to read response body").
			Mark(ierr.ErrHTTPClient)
	}

	if resp.StatusCode >= 400 {
		return nil, NewError(resp.StatusCode, respBody)
	}

	headers := make(map[string]string, len(resp.Header))
	for k, v := range resp.Header {
		if len(v) > 0 {
			headers[k] = v[0]
		}
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       respBody,
		Headers:    headers,
	}, nil
}

func (c *DefaultClient) buildRequest(ctx context.Context, req *Request) (*http.Request, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("invalid request").
			Mark(ierr.ErrHTTPClient)
	}

	httpReq.Header.Set("User-Agent", userAgent)
	if req.Body != nil {
		httpReq.ContentLength = int64(len(req.Body))
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	return httpReq, nil
}

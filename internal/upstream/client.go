// Package upstream talks to the marketplace REST API.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	gwerrors "marketplace-gateway/internal/common/errors"
	gwhttp "marketplace-gateway/internal/common/http"
	"marketplace-gateway/internal/common/logger"
	"marketplace-gateway/internal/common/validation"
)

const maxResponseBytes = 4 << 20

// Request describes one call to the marketplace API.
type Request struct {
	Method      string
	Path        string
	Identity    Identity
	Body        io.Reader
	ContentType string
	// Timeout replaces the client default for this call when > 0.
	Timeout time.Duration
}

// Response is a fully read upstream response.
type Response struct {
	Status   int
	Envelope Envelope
	// Malformed is set when the body does not match the envelope schema.
	Malformed  error
	SetCookies []string
	Body       []byte
}

// Client is the marketplace API client.
type Client struct {
	baseURL string
	http    *gwhttp.Client
	logger  logger.Logger
}

func NewClient(baseURL string, timeout time.Duration, log logger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    gwhttp.NewClient(timeout),
		logger:  log.WithFields(map[string]interface{}{"component": "upstream"}),
	}
}

// Do issues req. A transport failure (no response at all, including a timeout)
// is returned as a NETWORK_ERROR; any HTTP response, whatever its status, is
// returned as a Response for the caller to classify.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.baseURL+req.Path, req.Body)
	if err != nil {
		return nil, gwerrors.NewInternalError(fmt.Errorf("build request: %w", err))
	}
	if req.ContentType != "" {
		httpReq.Header.Set("Content-Type", req.ContentType)
	}
	httpReq.Header.Set("Accept", "application/json")
	req.Identity.apply(httpReq)

	start := time.Now()
	resp, cancel, err := c.http.DoWithContext(ctx, httpReq, req.Timeout)
	if err != nil {
		c.logger.Warn("upstream request failed", map[string]interface{}{
			"method": req.Method,
			"path":   req.Path,
			"error":  err.Error(),
		})
		return nil, gwerrors.NewNetworkError("marketplace-api", err)
	}
	defer cancel()
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, gwerrors.NewNetworkError("marketplace-api", fmt.Errorf("read body: %w", err))
	}

	out := &Response{
		Status:     resp.StatusCode,
		SetCookies: resp.Header.Values("Set-Cookie"),
		Body:       body,
	}
	out.decode()

	c.logger.Debug("upstream response", map[string]interface{}{
		"method":   req.Method,
		"path":     req.Path,
		"status":   resp.StatusCode,
		"duration": time.Since(start).Milliseconds(),
	})
	return out, nil
}

func (r *Response) decode() {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		// 204 and friends carry no envelope
		if r.Status >= 300 {
			r.Malformed = fmt.Errorf("empty body with status %d", r.Status)
		}
		return
	}
	if err := validation.ValidateEnvelope(r.Body); err != nil {
		r.Malformed = err
		return
	}
	if err := json.Unmarshal(r.Body, &r.Envelope); err != nil {
		r.Malformed = err
	}
}

// OK reports a 2xx response whose envelope signals success.
func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300 && r.Malformed == nil && r.Envelope.Succeeded()
}

// Get fetches path and decodes data into dst.
func (c *Client) Get(ctx context.Context, path string, ident Identity, dst interface{}) (*Response, error) {
	resp, err := c.Do(ctx, Request{Method: http.MethodGet, Path: path, Identity: ident})
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return resp, err
	}
	if dst != nil {
		if err := resp.Envelope.DecodeData(dst); err != nil {
			return resp, gwerrors.NewUpstreamMalformedError(resp.Status, err)
		}
	}
	return resp, nil
}

// SendJSON issues a JSON-bodied request and decodes data into dst when non-nil.
func (c *Client) SendJSON(ctx context.Context, method, path string, ident Identity, payload, dst interface{}) (*Response, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, gwerrors.NewInternalError(err)
	}
	resp, err := c.Do(ctx, Request{
		Method:      method,
		Path:        path,
		Identity:    ident,
		Body:        bytes.NewReader(raw),
		ContentType: "application/json",
	})
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return resp, err
	}
	if dst != nil && len(resp.Envelope.Data) > 0 {
		if err := resp.Envelope.DecodeData(dst); err != nil {
			return resp, gwerrors.NewUpstreamMalformedError(resp.Status, err)
		}
	}
	return resp, nil
}

// Err converts a non-successful response into the matching StandardError.
func (r *Response) Err() error {
	switch {
	case r.Status == http.StatusUnauthorized:
		return gwerrors.NewAuthenticationError("upstream rejected credentials")
	case r.Status == http.StatusForbidden:
		return gwerrors.NewForbiddenError("upstream denied access")
	case r.Status == http.StatusNotFound:
		return gwerrors.NewNotFoundError("Resource", string(r.Body))
	case r.Status >= 500:
		return gwerrors.NewUpstreamError(r.Status, truncate(r.Body, 512))
	case r.Malformed != nil:
		return gwerrors.NewUpstreamMalformedError(r.Status, r.Malformed)
	case r.Status >= 400 || !r.Envelope.Succeeded():
		return gwerrors.NewServerValidationError(r.Status).WithMetadata("errors", r.Envelope.ErrorSet())
	}
	return nil
}

// EchoCookies copies upstream Set-Cookie headers onto the gateway response.
func EchoCookies(w http.ResponseWriter, resp *Response) {
	if resp == nil {
		return
	}
	for _, c := range resp.SetCookies {
		w.Header().Add("Set-Cookie", c)
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

// internal/common/http/client.go
package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"marketplace-gateway/internal/common/metrics"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Client is an outbound HTTP client where every request is bounded by a
// deadline: the per-call timeout when given, else the client default.
type Client struct {
	httpClient *http.Client
	timeout    time.Duration
	tracer     trace.Tracer
}

func NewClient(timeout time.Duration) *Client {
	return &Client{
		// deadlines come from the context since Client.Timeout would cap them
		httpClient: &http.Client{
			// upstream redirects are answered to the browser, not followed here
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		timeout: timeout,
		tracer:  otel.Tracer("marketplace-gateway/http"),
	}
}

// DoWithContext sends req bound to ctx. A timeout > 0 replaces the client
// default for this call, longer or shorter. The returned cancel releases the
// deadline once the body has been read.
func (c *Client) DoWithContext(ctx context.Context, req *http.Request, timeout time.Duration) (*http.Response, context.CancelFunc, error) {
	if timeout <= 0 {
		timeout = c.timeout
	}
	cancel := context.CancelFunc(func() {})
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, timeout)
	}

	ctx, span := c.tracer.Start(ctx, req.Method+" "+req.URL.Path,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", req.Method),
			attribute.String("http.url", req.URL.String()),
		),
	)
	defer span.End()

	resp, err := c.httpClient.Do(req.WithContext(ctx))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.UpstreamRequests.WithLabelValues(req.Method, "error").Inc()
		cancel()
		return nil, func() {}, err
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	metrics.UpstreamRequests.WithLabelValues(req.Method, strconv.Itoa(resp.StatusCode)).Inc()
	return resp, cancel, nil
}

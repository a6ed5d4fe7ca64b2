// internal/common/http/client.go
package http

import (
	"net/http"
	"time"

	"optical-franchise/internal/common/logger"
)

// Client is the outbound HTTP client handed to third-party SDKs.
type Client struct {
	httpClient *http.Client
}

func NewClient(timeout time.Duration, log logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &loggingTransport{
				next:   http.DefaultTransport,
				logger: log.WithFields(map[string]interface{}{"component": "http-client"}),
			},
		},
	}
}

// HTTPClient exposes the configured *http.Client.
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.httpClient.Do(req)
}

// loggingTransport logs host, status and latency of every outbound call.
// Query strings are not logged since API keys travel there.
type loggingTransport struct {
	next   http.RoundTripper
	logger logger.Logger
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.next.RoundTrip(req)

	fields := map[string]interface{}{
		"method":     req.Method,
		"host":       req.URL.Host,
		"path":       req.URL.Path,
		"latency_ms": time.Since(start).Milliseconds(),
	}
	if err != nil {
		fields["error"] = err.Error()
		t.logger.Warn("outbound request failed", fields)
		return nil, err
	}

	fields["status"] = resp.StatusCode
	t.logger.Debug("outbound request", fields)
	return resp, nil
}

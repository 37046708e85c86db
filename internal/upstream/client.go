// Package upstream performs outbound HTTP calls to AI providers under a
// bounded timeout and converts every possible failure into the gateway's
// closed error taxonomy. No transport error escapes this package.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gridworkflow/gateway/backend/internal/apierr"
)

// Client issues JSON and multipart requests against one upstream base URL.
// Upstream bodies are deliberately loosely typed: each provider returns its
// own JSON shape and normalization happens in the caller.
type Client struct {
	httpClient *http.Client
	timeout    time.Duration
}

// New builds a client with the given per-call timeout. The timeout is
// enforced through the request context so a dropped inbound connection also
// cancels the in-flight upstream call.
func New(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{},
		timeout:    timeout,
	}
}

// BearerHeader formats an Authorization header value for the given key.
func BearerHeader(key string) string {
	return "Bearer " + key
}

// DoJSON sends an optional JSON payload and decodes the JSON response body.
// Failure classes map onto the taxonomy:
//
//	context deadline / transport timeout -> TIMEOUT (504)
//	any other transport failure          -> UPSTREAM_ERROR (502)
//	HTTP status >= 400                   -> apierr.FromStatus
//	malformed success body               -> UPSTREAM_ERROR (502)
func (c *Client) DoJSON(ctx context.Context, method, url string, headers map[string]string, payload any) (map[string]any, error) {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, apierr.Internal()
		}
		body = bytes.NewReader(encoded)
	}

	req, err := c.newRequest(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	defer req.cancel()
	if payload != nil {
		req.http.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.http.Header.Set(k, v)
	}
	return c.do(req)
}

// DoMultipart sends a multipart/form-data request with the prepared body.
func (c *Client) DoMultipart(ctx context.Context, url string, headers map[string]string, contentType string, form io.Reader) (map[string]any, error) {
	req, err := c.newRequest(ctx, http.MethodPost, url, form)
	if err != nil {
		return nil, err
	}
	defer req.cancel()
	req.http.Header.Set("Content-Type", contentType)
	for k, v := range headers {
		req.http.Header.Set(k, v)
	}
	return c.do(req)
}

type boundRequest struct {
	http   *http.Request
	cancel context.CancelFunc
}

func (c *Client) newRequest(ctx context.Context, method, url string, body io.Reader) (*boundRequest, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	req, err := http.NewRequestWithContext(callCtx, method, url, body)
	if err != nil {
		cancel()
		return nil, apierr.Upstream()
	}
	return &boundRequest{http: req, cancel: cancel}, nil
}

func (c *Client) do(req *boundRequest) (map[string]any, error) {
	resp, err := c.httpClient.Do(req.http)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, apierr.FromStatus(resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, apierr.Upstream()
	}
	return decoded, nil
}

func classifyTransportError(err error) *apierr.Error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return apierr.Timeout()
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return apierr.Timeout()
	}
	// url.Error wraps the context error without always matching errors.Is.
	if strings.Contains(err.Error(), "context deadline exceeded") {
		return apierr.Timeout()
	}
	return apierr.Upstream()
}

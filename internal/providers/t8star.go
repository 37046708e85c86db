package providers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gridworkflow/gateway/backend/internal/upstream"
)

// T8Star proxies the t8star video generation API. Providers are immutable
// once constructed.
type T8Star struct {
	baseURL string
	apiKey  string
	client  *upstream.Client
}

// NewT8Star builds a t8star provider. The timeout bounds each generate and
// status call; video generation runs on the order of minutes.
func NewT8Star(baseURL, apiKey string, timeout time.Duration) *T8Star {
	return &T8Star{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  upstream.New(timeout),
	}
}

func (p *T8Star) headers(callerKey string) map[string]string {
	key := strings.TrimSpace(callerKey)
	if key == "" {
		key = p.apiKey
	}
	headers := map[string]string{}
	if key != "" {
		headers["Authorization"] = upstream.BearerHeader(key)
	}
	return headers
}

// Generate submits a video generation job and returns the raw upstream body.
func (p *T8Star) Generate(ctx context.Context, payload map[string]any, callerKey string) (map[string]any, error) {
	url := p.baseURL + "/v2/videos/generations"
	return p.client.DoJSON(ctx, http.MethodPost, url, p.headers(callerKey), payload)
}

// Status polls a previously submitted job. The task id is validated by the
// caller before it reaches this URL.
func (p *T8Star) Status(ctx context.Context, taskID string, callerKey string) (map[string]any, error) {
	url := p.baseURL + "/v2/videos/generations/" + taskID
	return p.client.DoJSON(ctx, http.MethodGet, url, p.headers(callerKey), nil)
}

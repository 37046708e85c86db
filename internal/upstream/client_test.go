package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gridworkflow/gateway/backend/internal/apierr"
)

func TestDoJSONSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Write([]byte(`{"task_id":"abc12345"}`))
	}))
	defer server.Close()

	client := New(2 * time.Second)
	result, err := client.DoJSON(context.Background(), http.MethodPost, server.URL,
		map[string]string{"Authorization": BearerHeader("secret")},
		map[string]any{"prompt": "a cat"})
	require.NoError(t, err)
	require.Equal(t, "abc12345", result["task_id"])
}

func TestDoJSONMapsUpstreamStatuses(t *testing.T) {
	status := 500
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
	defer server.Close()

	client := New(2 * time.Second)
	tests := []struct {
		upstream int
		wantCode string
	}{
		{400, apierr.CodeBadRequest},
		{401, apierr.CodeUnauthorized},
		{403, apierr.CodeForbidden},
		{404, apierr.CodeNotFound},
		{408, apierr.CodeTimeout},
		{429, apierr.CodeRateLimited},
		{500, apierr.CodeUpstreamError},
		{504, apierr.CodeTimeout},
	}
	for _, tt := range tests {
		status = tt.upstream
		_, err := client.DoJSON(context.Background(), http.MethodGet, server.URL, nil, nil)
		apiErr, ok := apierr.As(err)
		require.True(t, ok, "status %d must map to an api error", tt.upstream)
		require.Equal(t, tt.wantCode, apiErr.Code, "status %d", tt.upstream)
	}
}

func TestDoJSONTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer server.Close()

	client := New(50 * time.Millisecond)
	_, err := client.DoJSON(context.Background(), http.MethodGet, server.URL, nil, nil)
	apiErr, ok := apierr.As(err)
	require.True(t, ok)
	require.Equal(t, apierr.CodeTimeout, apiErr.Code)
	require.Equal(t, 504, apiErr.Status)
}

func TestDoJSONConnectionRefused(t *testing.T) {
	client := New(time.Second)
	_, err := client.DoJSON(context.Background(), http.MethodGet, "http://127.0.0.1:1", nil, nil)
	apiErr, ok := apierr.As(err)
	require.True(t, ok)
	require.Equal(t, apierr.CodeUpstreamError, apiErr.Code)
	require.Equal(t, 502, apiErr.Status)
}

func TestDoJSONMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := New(time.Second)
	_, err := client.DoJSON(context.Background(), http.MethodGet, server.URL, nil, nil)
	apiErr, ok := apierr.As(err)
	require.True(t, ok)
	require.Equal(t, apierr.CodeUpstreamError, apiErr.Code)
}

func TestDoJSONCancelledInboundContext(t *testing.T) {
	started := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	client := New(5 * time.Second)
	_, err := client.DoJSON(ctx, http.MethodGet, server.URL, nil, nil)
	_, ok := apierr.As(err)
	require.True(t, ok, "cancelled call must still resolve to a taxonomy error")
}

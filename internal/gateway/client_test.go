package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gridworkflow/gateway/backend/internal/apierr"
	"github.com/gridworkflow/gateway/backend/internal/config"
)

func testClient(baseURL string) *Client {
	return NewClient(config.UpstreamConfig{
		BaseURL:             baseURL,
		APIKey:              "server-key",
		DefaultTextModel:    "gemini-3-pro-preview",
		DefaultImageModel:   "nano-banana-2",
		TextTimeout:         2 * time.Second,
		ImageTimeout:        2 * time.Second,
		MaxImageBase64Bytes: 1024,
	})
}

func TestAnalyzeBuildsChatRequest(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer server-key", r.Header.Get("Authorization"))
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"choices":[{"message":{"content":"analysis"}}]}`))
	}))
	defer server.Close()

	client := testClient(server.URL)
	result, err := client.Analyze(context.Background(), AnalyzeRequest{
		Prompt:            "describe",
		SystemInstruction: "be brief",
		ResponseFormat:    "json",
	}, "")
	require.NoError(t, err)
	require.Equal(t, "analysis", result)

	require.Equal(t, "gemini-3-pro-preview", gotBody["model"], "default model applied")
	messages := gotBody["messages"].([]any)
	require.Len(t, messages, 2)
	require.Equal(t, "system", messages[0].(map[string]any)["role"])
	require.NotNil(t, gotBody["response_format"])
}

func TestAnalyzeRequiresPrompt(t *testing.T) {
	client := testClient("http://127.0.0.1:1")
	_, err := client.Analyze(context.Background(), AnalyzeRequest{Prompt: "   "}, "")
	apiErr, ok := apierr.As(err)
	require.True(t, ok)
	require.Equal(t, apierr.CodeBadRequest, apiErr.Code)
}

func TestAnalyzeRequiresSomeKey(t *testing.T) {
	client := NewClient(config.UpstreamConfig{
		BaseURL:      "http://127.0.0.1:1",
		TextTimeout:  time.Second,
		ImageTimeout: time.Second,
	})
	_, err := client.Analyze(context.Background(), AnalyzeRequest{Prompt: "x"}, "")
	apiErr, ok := apierr.As(err)
	require.True(t, ok)
	require.Equal(t, apierr.CodeUnauthorized, apiErr.Code)
}

func TestGenerateImageMultipart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/images/edits", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		require.Equal(t, "nano-banana-2", r.FormValue("model"))
		require.Equal(t, "a city", r.FormValue("prompt"))
		require.Equal(t, "url", r.FormValue("response_format"))
		require.Equal(t, "16:9", r.FormValue("aspect_ratio"))
		_, header, err := r.FormFile("image")
		require.NoError(t, err)
		require.Equal(t, "reference.png", header.Filename)
		w.Write([]byte(`{"data":[{"url":"https://img.example/1.png"}]}`))
	}))
	defer server.Close()

	client := testClient(server.URL)
	result, err := client.GenerateImage(context.Background(), GenerateImageRequest{
		Prompt:      "a city",
		AspectRatio: "16:9",
	}, "")
	require.NoError(t, err)
	require.Equal(t, "https://img.example/1.png", ExtractFirstImageURL(result))
}

func TestGenerateImageRejectsBadResponseFormat(t *testing.T) {
	client := testClient("http://127.0.0.1:1")
	_, err := client.GenerateImage(context.Background(), GenerateImageRequest{
		Prompt:         "a city",
		ResponseFormat: "binary",
	}, "")
	apiErr, ok := apierr.As(err)
	require.True(t, ok)
	require.Equal(t, apierr.CodeBadRequest, apiErr.Code)
}

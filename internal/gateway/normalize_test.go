package gateway

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gridworkflow/gateway/backend/internal/apierr"
)

func TestExtractChatContent(t *testing.T) {
	chat := map[string]any{
		"choices": []any{
			map[string]any{"message": map[string]any{"content": "hello"}},
			map[string]any{"message": map[string]any{"content": "ignored"}},
		},
	}
	require.Equal(t, "hello", ExtractChatContent(chat))

	// Non chat-shaped payloads pass through untouched.
	raw := map[string]any{"text": "alt format"}
	require.Equal(t, raw, ExtractChatContent(raw))

	empty := map[string]any{"choices": []any{}}
	require.Equal(t, empty, ExtractChatContent(empty))
}

func TestExtractFirstImageURL(t *testing.T) {
	require.Equal(t, "", ExtractFirstImageURL(map[string]any{}))
	require.Equal(t, "", ExtractFirstImageURL([]any{}))
	require.Equal(t, "", ExtractFirstImageURL(map[string]any{"data": []any{}}))
	require.Equal(t, "", ExtractFirstImageURL(nil))

	require.Equal(t, "https://x", ExtractFirstImageURL(map[string]any{
		"data": []any{map[string]any{"output_url": "https://x"}},
	}))
	require.Equal(t, "https://direct", ExtractFirstImageURL(map[string]any{"url": "https://direct"}))
	require.Equal(t, "https://second", ExtractFirstImageURL([]any{
		map[string]any{"url": "   "},
		map[string]any{"imageUrl": "https://second"},
	}))
}

func TestDecodeImageBase64(t *testing.T) {
	payload := []byte("reference image bytes")
	encoded := base64.StdEncoding.EncodeToString(payload)

	decoded, err := DecodeImageBase64(encoded, 1024)
	require.NoError(t, err)
	require.Equal(t, payload, decoded)

	decoded, err = DecodeImageBase64("data:image/png;base64,"+encoded, 1024)
	require.NoError(t, err)
	require.Equal(t, payload, decoded)

	decoded, err = DecodeImageBase64("", 1024)
	require.NoError(t, err)
	require.Equal(t, emptyPNG, decoded)

	_, err = DecodeImageBase64("!!!not-base64!!!", 1024)
	apiErr, ok := apierr.As(err)
	require.True(t, ok)
	require.Equal(t, apierr.CodeBadRequest, apiErr.Code)

	big := base64.StdEncoding.EncodeToString([]byte(strings.Repeat("x", 2048)))
	_, err = DecodeImageBase64(big, 1024)
	apiErr, ok = apierr.As(err)
	require.True(t, ok)
	require.Equal(t, apierr.CodeBadRequest, apiErr.Code)
}

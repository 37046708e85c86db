package gateway

import (
	"encoding/base64"
	"strings"

	"github.com/gridworkflow/gateway/backend/internal/apierr"
)

// emptyPNG is a 1x1 transparent PNG used as the reference image when the
// caller supplies none; the upstream edits endpoint requires a file part.
var emptyPNG = []byte{
	137, 80, 78, 71, 13, 10, 26, 10, 0, 0, 0, 13, 73, 72, 68, 82,
	0, 0, 0, 1, 0, 0, 0, 1, 8, 6, 0, 0, 0, 31, 21, 196,
	137, 0, 0, 0, 10, 73, 68, 65, 84, 120, 156, 99, 96, 0, 0, 0,
	2, 0, 1, 244, 113, 100, 251, 0, 0, 0, 0, 73, 69, 78, 68,
	174, 66, 96, 130,
}

// ExtractChatContent pulls the first choice's message content out of a
// chat-completions response. Anything that does not match that shape is
// returned unchanged so alternate upstream formats pass through.
func ExtractChatContent(payload map[string]any) any {
	choices, ok := payload["choices"].([]any)
	if !ok || len(choices) == 0 {
		return payload
	}
	first, ok := choices[0].(map[string]any)
	if !ok {
		return payload
	}
	message, ok := first["message"].(map[string]any)
	if !ok {
		return payload
	}
	if content, ok := message["content"]; ok {
		return content
	}
	return payload
}

// ExtractFirstImageURL scans an upstream image result depth-first for the
// first non-blank URL-carrying field. It returns "" when no candidate
// exists; callers must treat that as an upstream contract violation.
func ExtractFirstImageURL(result any) string {
	switch v := result.(type) {
	case map[string]any:
		if direct := urlFromItem(v); direct != "" {
			return direct
		}
		return ExtractFirstImageURL(v["data"])
	case []any:
		for _, item := range v {
			if direct := urlFromItem(item); direct != "" {
				return direct
			}
		}
	}
	return ""
}

func urlFromItem(item any) string {
	m, ok := item.(map[string]any)
	if !ok {
		return ""
	}
	for _, key := range []string{"url", "image_url", "imageUrl", "output_url"} {
		if value, ok := m[key].(string); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

// DecodeImageBase64 decodes a caller-supplied reference image, stripping a
// data-URI prefix and enforcing the configured size bound both before and
// after decoding. A blank input yields the embedded placeholder PNG.
func DecodeImageBase64(raw string, maxBytes int) ([]byte, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return emptyPNG, nil
	}
	stripped := stripBase64Prefix(trimmed)
	if stripped == "" {
		return emptyPNG, nil
	}
	if approx := len(stripped) * 3 / 4; approx > maxBytes {
		return nil, apierr.BadRequest("image exceeds the size limit")
	}
	decoded, err := base64.StdEncoding.DecodeString(stripped)
	if err != nil {
		return nil, apierr.BadRequest("image encoding is invalid")
	}
	if len(decoded) > maxBytes {
		return nil, apierr.BadRequest("image exceeds the size limit")
	}
	return decoded, nil
}

func stripBase64Prefix(raw string) string {
	if strings.HasPrefix(raw, "data:") {
		if idx := strings.Index(raw, ","); idx >= 0 {
			return raw[idx+1:]
		}
	}
	return raw
}

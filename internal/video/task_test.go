package video

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsValidTaskID(t *testing.T) {
	valid := []string{
		"abc12345",
		"task:video_01-a",
		"A" + strings.Repeat("b", 127),
	}
	for _, id := range valid {
		require.True(t, IsValidTaskID(id), "expected %q valid", id)
	}

	invalid := []string{
		"",
		"short7c",                        // below minimum length
		"A" + strings.Repeat("b", 128),   // above maximum length
		"abc 1234",                       // whitespace
		"abc/1234",                       // disallowed character
		":leadingcolon",                  // must start alphanumeric
		"task_id\n12345678",              // control character
	}
	for _, id := range invalid {
		require.False(t, IsValidTaskID(id), "expected %q invalid", id)
	}
}

func TestMaskTaskID(t *testing.T) {
	require.Equal(t, "", MaskTaskID(""))
	require.Equal(t, "abc***", MaskTaskID("abc12345"))
	require.Equal(t, "ab***", MaskTaskID("ab"))
	require.Equal(t, "abcdef***6789", MaskTaskID("abcdefghij123456789"))
}

func TestNormalizeStatusIsTotal(t *testing.T) {
	tests := map[string]string{
		"NOT_START":   StatusQueued,
		"IN_PROGRESS": StatusRunning,
		"SUCCESS":     StatusSucceeded,
		"FAILURE":     StatusFailed,
		"failure":     StatusFailed,
		"":            StatusQueued,
		"   ":         StatusQueued,
		"weird-value": StatusRunning,
	}
	for input, want := range tests {
		require.Equal(t, want, NormalizeStatus(input), "input %q", input)
	}
}

func TestSanitizeErrorMessage(t *testing.T) {
	require.Equal(t, "quota exceeded", SanitizeErrorMessage("  quota   exceeded  "))
	require.Equal(t, "", SanitizeErrorMessage("   "))

	long := strings.Repeat("x ", 300)
	sanitized := SanitizeErrorMessage(long)
	require.LessOrEqual(t, len(sanitized), 200)
}

func TestExtractVideoURL(t *testing.T) {
	require.Equal(t, "https://cdn/video.mp4", ExtractVideoURL(map[string]any{"output": "https://cdn/video.mp4"}))
	require.Equal(t, "https://cdn/v.mp4", ExtractVideoURL(map[string]any{"video_url": "https://cdn/v.mp4"}))
	require.Equal(t, "", ExtractVideoURL(map[string]any{"output": "   "}))
	require.Equal(t, "", ExtractVideoURL(nil))
	require.Equal(t, "", ExtractVideoURL("not a map"))
}

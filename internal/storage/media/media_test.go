package media

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gridworkflow/gateway/backend/internal/apierr"
)

var pngHead = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 24)...)
var mp4Head = append([]byte{0, 0, 0, 32}, append([]byte("ftypisom"), make([]byte, 24)...)...)

func TestValidateAcceptsMatchingDeclaration(t *testing.T) {
	ct, err := Validate(KindImage, "image/png", pngHead)
	require.NoError(t, err)
	require.Equal(t, "image/png", ct)

	ct, err = Validate(KindVideo, "video/mp4", mp4Head)
	require.NoError(t, err)
	require.Equal(t, "video/mp4", ct)
}

func TestValidateAliasesAndSniffFallback(t *testing.T) {
	jpegHead := append([]byte{0xFF, 0xD8, 0xFF}, make([]byte, 24)...)

	ct, err := Validate(KindImage, "image/jpg", jpegHead)
	require.NoError(t, err)
	require.Equal(t, "image/jpeg", ct)

	// QuickTime declarations compare against the mp4 sniff.
	ct, err = Validate(KindVideo, "video/quicktime", mp4Head)
	require.NoError(t, err)
	require.Equal(t, "video/quicktime", ct)

	// Generic declaration falls back to the sniffed type.
	ct, err = Validate(KindImage, "application/octet-stream", pngHead)
	require.NoError(t, err)
	require.Equal(t, "image/png", ct)
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name      string
		mediaType string
		declared  string
		head      []byte
	}{
		{"bad kind", "audio", "audio/mp3", nil},
		{"disallowed type", KindImage, "image/tiff", pngHead},
		{"signature mismatch", KindImage, "image/png", []byte{0xFF, 0xD8, 0xFF, 0, 0, 0, 0, 0, 0, 0, 0, 0}},
		{"unsniffable octet-stream", KindVideo, "application/octet-stream", []byte("plain text here")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Validate(tc.mediaType, tc.declared, tc.head)
			apiErr, ok := apierr.As(err)
			require.True(t, ok)
			require.Equal(t, apierr.CodeBadRequest, apiErr.Code)
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	require.Equal(t, "my_file.png", SanitizeFilename("my file.png"))
	require.Equal(t, "upload", SanitizeFilename(""))
	require.Equal(t, "_.._etc_passwd", SanitizeFilename("/../etc/passwd"))
}

func TestBuildObjectKey(t *testing.T) {
	key := BuildObjectKey(" media/ ", KindImage, "photo.PNG", "image/png")
	parts := strings.Split(key, "/")
	require.Len(t, parts, 6) // media/image/yyyy/mm/dd/name.png
	require.Equal(t, "media", parts[0])
	require.Equal(t, "image", parts[1])
	require.True(t, strings.HasSuffix(key, ".png"))

	// Extension derived from content type when the filename has none.
	key = BuildObjectKey("media", KindVideo, "clip", "video/mp4")
	require.True(t, strings.HasSuffix(key, ".mp4"))

	// No prefix segment when blank.
	key = BuildObjectKey("", KindImage, "a.png", "image/png")
	require.Equal(t, "image", strings.Split(key, "/")[0])
}

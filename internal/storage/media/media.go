// Package media validates uploaded files before they reach object storage:
// the declared kind, the negotiated content type, and a magic-byte sniff of
// the first bytes must all agree.
package media

import (
	"bytes"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gridworkflow/gateway/backend/internal/apierr"
)

const (
	KindImage = "image"
	KindVideo = "video"
)

// SniffLen is how many leading bytes the validator needs.
const SniffLen = 512

var imageContentTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

var videoContentTypes = map[string]string{
	"video/mp4":       ".mp4",
	"video/quicktime": ".mov",
	"video/webm":      ".webm",
	"video/x-msvideo": ".avi",
}

var contentTypeAliases = map[string]string{
	"image/jpg":   "image/jpeg",
	"image/pjpeg": "image/jpeg",
}

// QuickTime containers sniff as mp4; they share the ftyp box.
var compareTypeAliases = map[string]string{
	"video/quicktime": "video/mp4",
}

// Validate negotiates the effective content type for an upload. The declared
// type must be allowed for the media kind and must not contradict the
// sniffed type; a missing or generic declaration falls back to sniffing.
func Validate(mediaType, declaredType string, head []byte) (string, error) {
	if mediaType != KindImage && mediaType != KindVideo {
		return "", apierr.BadRequest("media_type must be image or video")
	}

	normalized := normalizeContentType(declaredType)
	inferred := DetectContentType(mediaType, head)
	allowed := imageContentTypes
	if mediaType == KindVideo {
		allowed = videoContentTypes
	}

	if normalized == "" || normalized == "application/octet-stream" {
		if inferred == "" {
			return "", apierr.BadRequest("unsupported media type")
		}
		return inferred, nil
	}

	if _, ok := allowed[normalized]; !ok {
		return "", apierr.BadRequest("unsupported media type")
	}

	compare := normalized
	if alias, ok := compareTypeAliases[normalized]; ok {
		compare = alias
	}
	if inferred != "" && compare != inferred {
		return "", apierr.BadRequest("media signature mismatch")
	}
	return normalized, nil
}

// DetectContentType sniffs the magic bytes of the supported formats.
func DetectContentType(mediaType string, head []byte) string {
	switch mediaType {
	case KindImage:
		return detectImage(head)
	case KindVideo:
		return detectVideo(head)
	}
	return ""
}

func detectImage(head []byte) string {
	switch {
	case bytes.HasPrefix(head, []byte{0xFF, 0xD8, 0xFF}):
		return "image/jpeg"
	case bytes.HasPrefix(head, []byte("\x89PNG\r\n\x1a\n")):
		return "image/png"
	case bytes.HasPrefix(head, []byte("GIF87a")) || bytes.HasPrefix(head, []byte("GIF89a")):
		return "image/gif"
	case bytes.HasPrefix(head, []byte("RIFF")) && len(head) >= 12 && bytes.Equal(head[8:12], []byte("WEBP")):
		return "image/webp"
	}
	return ""
}

func detectVideo(head []byte) string {
	switch {
	case len(head) >= 12 && bytes.Equal(head[4:8], []byte("ftyp")):
		return "video/mp4"
	case bytes.HasPrefix(head, []byte{0x1A, 0x45, 0xDF, 0xA3}):
		return "video/webm"
	case bytes.HasPrefix(head, []byte("RIFF")) && len(head) >= 12 && bytes.Equal(head[8:12], []byte("AVI ")):
		return "video/x-msvideo"
	}
	return ""
}

func normalizeContentType(value string) string {
	trimmed, _, _ := strings.Cut(value, ";")
	trimmed = strings.TrimSpace(trimmed)
	if alias, ok := contentTypeAliases[trimmed]; ok {
		return alias
	}
	return trimmed
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// SanitizeFilename strips anything that could escape the object key.
func SanitizeFilename(filename string) string {
	safe := unsafeFilenameChars.ReplaceAllString(filename, "_")
	if safe == "" {
		return "upload"
	}
	return safe
}

// BuildObjectKey derives the storage key: prefix/type/date/random-name+ext.
// The extension comes from the original filename when it matches the media
// kind, else from the negotiated content type.
func BuildObjectKey(prefix, mediaType, filename, contentType string) string {
	safeName := SanitizeFilename(filename)
	ext := strings.ToLower(path.Ext(safeName))

	allowed := imageContentTypes
	if mediaType == KindVideo {
		allowed = videoContentTypes
	}
	if !extAllowed(allowed, ext) {
		ext = allowed[contentType]
	}

	datePath := time.Now().UTC().Format("2006/01/02")
	name := fmt.Sprintf("%s%s", strings.ReplaceAll(uuid.NewString(), "-", ""), ext)

	parts := []string{}
	if cleaned := strings.Trim(strings.TrimSpace(prefix), "/"); cleaned != "" {
		parts = append(parts, cleaned)
	}
	parts = append(parts, mediaType, datePath, name)
	return strings.Join(parts, "/")
}

func extAllowed(allowed map[string]string, ext string) bool {
	for _, candidate := range allowed {
		if candidate == ext {
			return true
		}
	}
	return false
}

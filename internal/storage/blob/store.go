// Package blob uploads media objects to an S3-compatible bucket (Tencent
// COS exposes the S3 API) and derives their access URLs.
package blob

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/gridworkflow/gateway/backend/internal/config"
)

// ErrNotConfigured signals missing credentials or bucket settings; callers
// decide whether a source-URL fallback applies.
var ErrNotConfigured = errors.New("blob: storage not configured")

// ErrUploadFailed wraps any storage-side failure during upload.
var ErrUploadFailed = errors.New("blob: upload failed")

// UploadResult describes how a stored object can be reached.
type UploadResult struct {
	URL       string
	Key       string
	Signed    bool
	ExpiresIn int
}

// Store uploads objects and resolves access URLs.
type Store interface {
	Put(ctx context.Context, key string, body io.Reader, contentType string) error
	AccessURL(ctx context.Context, key string) (UploadResult, error)
}

// New builds the S3-backed store, or ErrNotConfigured when settings are
// incomplete.
func New(cfg config.BlobConfig) (Store, error) {
	if !cfg.Configured() {
		return nil, ErrNotConfigured
	}
	return newS3Store(cfg)
}

// ClampSignedTTL bounds the presigned URL lifetime to one minute..one hour,
// with a five minute default for non-positive input.
func ClampSignedTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 5 * time.Minute
	}
	if ttl < time.Minute {
		return time.Minute
	}
	if ttl > time.Hour {
		return time.Hour
	}
	return ttl
}

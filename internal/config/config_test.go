package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(Options{EnvFile: "does-not-exist.env"})
	require.NoError(t, err)

	require.Equal(t, "development", cfg.App.Env)
	require.False(t, cfg.IsProduction())
	require.Equal(t, "https://ai.t8star.cn/v1", cfg.Upstream.BaseURL)
	require.Equal(t, 10*time.Second, cfg.Upstream.TextTimeout)
	require.Equal(t, 180*time.Second, cfg.Video.Timeout)
	require.Equal(t, 3000, cfg.Video.PollIntervalMS)

	// The allowlist has no built-in address and must be set explicitly.
	require.Empty(t, cfg.Auth.IPAllowlist)
	require.False(t, cfg.Auth.IPAllowlistConfigured)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("GATEWAY_APP_ENV", "Production")
	t.Setenv("GATEWAY_UPSTREAM_BASE_URL", "https://upstream.example.com/v1/")
	t.Setenv("GATEWAY_UPSTREAM_TEXT_TIMEOUT", "2s")
	t.Setenv("GATEWAY_AUTH_IP_ALLOWLIST", "10.0.0.0/8")
	t.Setenv("GATEWAY_VIDEO_POLL_INTERVAL_MS", "100")

	cfg, err := Load(Options{EnvFile: "does-not-exist.env"})
	require.NoError(t, err)

	require.True(t, cfg.IsProduction())
	require.Equal(t, "https://upstream.example.com/v1", cfg.Upstream.BaseURL, "trailing slash trimmed")
	require.Equal(t, 2*time.Second, cfg.Upstream.TextTimeout)
	require.True(t, cfg.Auth.IPAllowlistConfigured)
	require.Equal(t, 3000, cfg.Video.PollIntervalMS, "poll interval clamped to floor")
}

func TestBlobConfigured(t *testing.T) {
	b := BlobConfig{SecretID: "id", SecretKey: "key", Bucket: "bucket", Region: "ap-shanghai"}
	require.True(t, b.Configured())
	b.Bucket = ""
	require.False(t, b.Configured())
}

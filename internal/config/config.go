package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Config captures the runtime configuration for the gateway service.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Upstream UpstreamConfig `mapstructure:"upstream"`
	Video    VideoConfig    `mapstructure:"video"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Blob     BlobConfig     `mapstructure:"blob"`
}

type AppConfig struct {
	Name     string `mapstructure:"name"`
	Env      string `mapstructure:"env"`
	LogLevel string `mapstructure:"log_level"`
}

type ServerConfig struct {
	ListenAddr            string        `mapstructure:"listen_addr"`
	BodyLimitMB           int           `mapstructure:"body_limit_mb"`
	CORSOrigins           string        `mapstructure:"cors_origins"`
	GracefulShutdownDelay time.Duration `mapstructure:"graceful_shutdown_delay"`
}

// UpstreamConfig points at the text/image AI gateway.
type UpstreamConfig struct {
	BaseURL             string        `mapstructure:"base_url"`
	APIKey              string        `mapstructure:"api_key"`
	DefaultTextModel    string        `mapstructure:"default_text_model"`
	DefaultImageModel   string        `mapstructure:"default_image_model"`
	TextTimeout         time.Duration `mapstructure:"text_timeout"`
	ImageTimeout        time.Duration `mapstructure:"image_timeout"`
	MaxImageBase64Bytes int           `mapstructure:"max_image_base64_bytes"`
}

type VideoConfig struct {
	Timeout        time.Duration `mapstructure:"timeout"`
	PollIntervalMS int           `mapstructure:"poll_interval_ms"`
}

type AuthConfig struct {
	JWTSecret   string `mapstructure:"jwt_secret"`
	JWTAudience string `mapstructure:"jwt_audience"`
	JWTIssuer   string `mapstructure:"jwt_issuer"`

	IPAllowlistEnabled bool   `mapstructure:"ip_allowlist_enabled"`
	IPAllowlist        string `mapstructure:"ip_allowlist"`
	TrustedProxyCIDRs  string `mapstructure:"trusted_proxy_cidrs"`

	// IPAllowlistConfigured records whether the allowlist came from the
	// environment rather than a default. In production an unconfigured
	// allowlist disables the allowlist path entirely.
	IPAllowlistConfigured bool `mapstructure:"-"`
}

type BlobConfig struct {
	SecretID      string        `mapstructure:"secret_id"`
	SecretKey     string        `mapstructure:"secret_key"`
	Bucket        string        `mapstructure:"bucket"`
	Region        string        `mapstructure:"region"`
	Endpoint      string        `mapstructure:"endpoint"`
	SignedURL     bool          `mapstructure:"signed_url"`
	SignedURLTTL  time.Duration `mapstructure:"signed_url_ttl"`
	MediaPrefix   string        `mapstructure:"media_prefix"`
	ImageMaxBytes int64         `mapstructure:"image_max_bytes"`
	VideoMaxBytes int64         `mapstructure:"video_max_bytes"`
	PublicURLBase string        `mapstructure:"public_url_base"`
}

// Configured reports whether enough settings are present to build a store.
func (b BlobConfig) Configured() bool {
	return b.SecretID != "" && b.SecretKey != "" && b.Bucket != "" && b.Region != ""
}

// Options controls the config loader behavior.
type Options struct {
	EnvFile string
}

// Load returns the merged configuration sourced from environment variables.
func Load(opts Options) (*Config, error) {
	if opts.EnvFile != "" {
		_ = godotenv.Load(opts.EnvFile)
	} else {
		_ = godotenv.Load()
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("GATEWAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(timeStringToDurationHook())); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	_, cfg.Auth.IPAllowlistConfigured = os.LookupEnv("GATEWAY_AUTH_IP_ALLOWLIST")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate ensures required values are set and normalizes the rest.
func (c *Config) Validate() error {
	if c.Upstream.BaseURL == "" {
		return fmt.Errorf("missing required configuration: GATEWAY_UPSTREAM_BASE_URL")
	}
	c.Upstream.BaseURL = strings.TrimRight(c.Upstream.BaseURL, "/")
	if c.Upstream.TextTimeout <= 0 {
		return fmt.Errorf("upstream.text_timeout must be > 0")
	}
	if c.Upstream.ImageTimeout <= 0 {
		return fmt.Errorf("upstream.image_timeout must be > 0")
	}
	if c.Video.Timeout <= 0 {
		return fmt.Errorf("video.timeout must be > 0")
	}
	if c.Video.PollIntervalMS < minPollIntervalMS {
		c.Video.PollIntervalMS = minPollIntervalMS
	}
	c.App.Env = strings.ToLower(strings.TrimSpace(c.App.Env))
	return nil
}

// IsProduction reports whether the service runs with production defaults.
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

const minPollIntervalMS = 3000

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "gridworkflow-gateway")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("server.listen_addr", ":8000")
	v.SetDefault("server.body_limit_mb", 120)
	v.SetDefault("server.cors_origins", "")
	v.SetDefault("server.graceful_shutdown_delay", "5s")

	v.SetDefault("upstream.base_url", "https://ai.t8star.cn/v1")
	v.SetDefault("upstream.api_key", "")
	v.SetDefault("upstream.default_text_model", "gemini-3-pro-preview")
	v.SetDefault("upstream.default_image_model", "nano-banana-2")
	v.SetDefault("upstream.text_timeout", "10s")
	v.SetDefault("upstream.image_timeout", "30s")
	v.SetDefault("upstream.max_image_base64_bytes", 2*1024*1024)

	v.SetDefault("video.timeout", "180s")
	v.SetDefault("video.poll_interval_ms", minPollIntervalMS)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.jwt_audience", "")
	v.SetDefault("auth.jwt_issuer", "")
	v.SetDefault("auth.ip_allowlist_enabled", false)
	// Deliberately empty: the allowlist must be configured explicitly.
	// There is no built-in address, in any environment.
	v.SetDefault("auth.ip_allowlist", "")
	v.SetDefault("auth.trusted_proxy_cidrs", "")

	v.SetDefault("blob.signed_url", false)
	v.SetDefault("blob.signed_url_ttl", "300s")
	v.SetDefault("blob.media_prefix", "media")
	v.SetDefault("blob.image_max_bytes", 10*1024*1024)
	v.SetDefault("blob.video_max_bytes", 100*1024*1024)
}

func timeStringToDurationHook() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
		if t != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		if f.Kind() == reflect.String {
			return time.ParseDuration(data.(string))
		}
		return data, nil
	}
}

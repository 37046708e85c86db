// Package app wires the process-wide dependencies: configuration, logging,
// the upstream clients, the provider registry, auth, and object storage.
// Everything here is constructed once at startup and read-only afterwards.
package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/gridworkflow/gateway/backend/internal/auth"
	"github.com/gridworkflow/gateway/backend/internal/config"
	"github.com/gridworkflow/gateway/backend/internal/gateway"
	"github.com/gridworkflow/gateway/backend/internal/observability"
	"github.com/gridworkflow/gateway/backend/internal/providers"
	"github.com/gridworkflow/gateway/backend/internal/storage/blob"
)

// Container holds the immutable dependency graph shared by all requests.
type Container struct {
	Config        *config.Config
	Logger        *slog.Logger
	Gateway       *gateway.Client
	Providers     *providers.Registry
	Auth          *auth.Resolver
	Blob          blob.Store
	Observability *observability.Provider
}

// NewContainer builds the dependency graph from configuration.
func NewContainer(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	logger := newLogger(cfg.App.LogLevel)

	store, err := blob.New(cfg.Blob)
	if err != nil {
		if !errors.Is(err, blob.ErrNotConfigured) {
			return nil, err
		}
		logger.Info("object storage not configured, uploads disabled")
		store = nil
	}

	return &Container{
		Config:        cfg,
		Logger:        logger,
		Gateway:       gateway.NewClient(cfg.Upstream),
		Providers:     providers.NewRegistry(cfg),
		Auth:          auth.NewResolver(cfg),
		Blob:          store,
		Observability: observability.Setup(),
	}, nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

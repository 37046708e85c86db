// Package providers maps provider names to concrete video-generation
// backends. The registry is built once at startup and is read-only
// afterwards, so concurrent request handlers share it without locking.
package providers

import (
	"context"
	"strings"

	"github.com/gridworkflow/gateway/backend/internal/config"
)

// VideoProvider is the capability surface every video backend exposes: a
// single generation call and a single status poll, both bounded by the
// provider's timeout. callerKey, when non-blank, overrides the provider's
// default credential for that call only.
type VideoProvider interface {
	Generate(ctx context.Context, payload map[string]any, callerKey string) (map[string]any, error)
	Status(ctx context.Context, taskID string, callerKey string) (map[string]any, error)
}

// Registry resolves provider names to implementations. Lookup is
// case-insensitive on the key.
type Registry struct {
	providers map[string]VideoProvider
}

// NewRegistry builds the closed provider set from configuration.
func NewRegistry(cfg *config.Config) *Registry {
	return &Registry{
		providers: map[string]VideoProvider{
			"t8star": NewT8Star(cfg.Upstream.BaseURL, cfg.Upstream.APIKey, cfg.Video.Timeout),
		},
	}
}

// NewRegistryWith builds a registry from an explicit provider map (tests).
func NewRegistryWith(providers map[string]VideoProvider) *Registry {
	normalized := make(map[string]VideoProvider, len(providers))
	for name, p := range providers {
		normalized[strings.ToLower(name)] = p
	}
	return &Registry{providers: normalized}
}

// Resolve returns the provider registered under name, or false when unknown.
func (r *Registry) Resolve(name string) (VideoProvider, bool) {
	p, ok := r.providers[strings.ToLower(strings.TrimSpace(name))]
	return p, ok
}

package ai

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"

	"attractor/pkg/config"
)

// ProviderType represents a supported LLM provider.
type ProviderType string

const (
	ProviderXAI        ProviderType = "xai"
	ProviderOpenAI     ProviderType = "openai"
	ProviderOpenRouter ProviderType = "openrouter"
	ProviderDryRun     ProviderType = "dryrun"
)

// ProviderConfig holds configuration for creating a provider.
type ProviderConfig struct {
	Type   ProviderType
	APIKey string
	Config config.Config

	// HTTPClient overrides the client built from the configured timeout.
	HTTPClient *http.Client
}

// ProviderFactory is a function that creates a Provider from config.
type ProviderFactory func(cfg ProviderConfig) (Provider, error)

// ProviderInfo describes a registered provider.
type ProviderInfo struct {
	Type ProviderType
	Name string
	// DefaultURL is used when the config leaves api_url empty.
	DefaultURL  string
	RequiresKey bool
}

// Registry manages provider factories and instantiation.
type Registry struct {
	mu        sync.RWMutex
	factories map[ProviderType]ProviderFactory
	info      map[ProviderType]ProviderInfo
}

// NewRegistry creates a new provider registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[ProviderType]ProviderFactory),
		info:      make(map[ProviderType]ProviderInfo),
	}
}

// Register adds a provider factory to the registry.
func (r *Registry) Register(info ProviderInfo, factory ProviderFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[info.Type] = factory
	r.info[info.Type] = info
}

// GetProvider creates a provider instance by type.
func (r *Registry) GetProvider(cfg ProviderConfig) (Provider, error) {
	r.mu.RLock()
	factory, ok := r.factories[cfg.Type]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown provider type: %s", cfg.Type)
	}

	return factory(cfg)
}

// ListProviders returns information about all registered providers, sorted by type.
func (r *Registry) ListProviders() []ProviderInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	providers := make([]ProviderInfo, 0, len(r.info))
	for _, info := range r.info {
		providers = append(providers, info)
	}
	sort.Slice(providers, func(i, j int) bool { return providers[i].Type < providers[j].Type })
	return providers
}

// GetProviderInfo returns information about a specific provider.
func (r *Registry) GetProviderInfo(providerType ProviderType) (ProviderInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.info[providerType]
	return info, ok
}

// ResolveInfo returns the provider selected by cfg: the dry-run provider when
// DryRun is set, otherwise the one named by LLMProvider.
func (r *Registry) ResolveInfo(cfg config.Config) (ProviderInfo, error) {
	providerType := ProviderType(strings.ToLower(strings.TrimSpace(cfg.LLMProvider)))
	if cfg.DryRun {
		providerType = ProviderDryRun
	}

	if info, ok := r.GetProviderInfo(providerType); ok {
		return info, nil
	}

	providers := r.ListProviders()
	names := make([]string, 0, len(providers))
	for _, info := range providers {
		names = append(names, string(info.Type))
	}
	return ProviderInfo{}, fmt.Errorf("unsupported LLM provider: %q (supported: %s)", cfg.LLMProvider, strings.Join(names, ", "))
}

// DefaultRegistry is the global provider registry.
var DefaultRegistry = NewRegistry()

// RegisterProvider registers a provider with the default registry.
func RegisterProvider(info ProviderInfo, factory ProviderFactory) {
	DefaultRegistry.Register(info, factory)
}

// ResolveInfo selects a provider from the default registry.
func ResolveInfo(cfg config.Config) (ProviderInfo, error) {
	return DefaultRegistry.ResolveInfo(cfg)
}

// GetProviderFromConfig creates the provider selected by cfg from the
// default registry.
func GetProviderFromConfig(cfg config.Config, apiKey string) (Provider, error) {
	info, err := ResolveInfo(cfg)
	if err != nil {
		return nil, err
	}

	return DefaultRegistry.GetProvider(ProviderConfig{
		Type:   info.Type,
		APIKey: apiKey,
		Config: cfg,
	})
}

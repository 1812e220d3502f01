package ai

import (
	"strings"
	"testing"

	"attractor/pkg/config"
)

func nilFactory(cfg ProviderConfig) (Provider, error) {
	return nil, nil
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("expected registry, got nil")
	}
	if r.factories == nil {
		t.Fatal("expected factories map, got nil")
	}
	if r.info == nil {
		t.Fatal("expected info map, got nil")
	}
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()

	r.Register(ProviderInfo{
		Type:        "test-provider",
		Name:        "Test Provider",
		DefaultURL:  "https://example.test/v1",
		RequiresKey: true,
	}, nilFactory)

	gotInfo, ok := r.GetProviderInfo("test-provider")
	if !ok {
		t.Fatal("expected to find provider info")
	}
	if gotInfo.Name != "Test Provider" {
		t.Fatalf("expected name 'Test Provider', got %q", gotInfo.Name)
	}
	if !gotInfo.RequiresKey {
		t.Fatal("expected RequiresKey to be kept")
	}
}

func TestRegistry_GetProvider_UnknownType(t *testing.T) {
	r := NewRegistry()

	if _, err := r.GetProvider(ProviderConfig{Type: "unknown"}); err == nil {
		t.Fatal("expected error for unknown provider type")
	}
}

func TestRegistry_GetProvider_PassesConfig(t *testing.T) {
	r := NewRegistry()

	var gotKey string
	r.Register(ProviderInfo{Type: "p"}, func(cfg ProviderConfig) (Provider, error) {
		gotKey = cfg.APIKey
		return nil, nil
	})

	if _, err := r.GetProvider(ProviderConfig{Type: "p", APIKey: "secret"}); err != nil {
		t.Fatalf("GetProvider() error: %v", err)
	}
	if gotKey != "secret" {
		t.Fatalf("expected factory to receive key, got %q", gotKey)
	}
}

func TestRegistry_ListProvidersSorted(t *testing.T) {
	r := NewRegistry()

	r.Register(ProviderInfo{Type: "zeta", Name: "Z"}, nilFactory)
	r.Register(ProviderInfo{Type: "alpha", Name: "A"}, nilFactory)

	providers := r.ListProviders()
	if len(providers) != 2 {
		t.Fatalf("expected 2 providers, got %d", len(providers))
	}
	if providers[0].Type != "alpha" {
		t.Fatalf("expected sorted providers, got %v", providers)
	}
}

func TestRegistry_ResolveInfo(t *testing.T) {
	r := NewRegistry()
	r.Register(ProviderInfo{Type: ProviderXAI, RequiresKey: true}, nilFactory)
	r.Register(ProviderInfo{Type: ProviderDryRun}, nilFactory)

	cfg := config.Default()
	cfg.LLMProvider = " XAI "
	info, err := r.ResolveInfo(cfg)
	if err != nil {
		t.Fatalf("ResolveInfo() error: %v", err)
	}
	if info.Type != ProviderXAI || !info.RequiresKey {
		t.Fatalf("expected xai requiring a key, got %+v", info)
	}

	cfg.LLMProvider = "dryrun"
	info, err = r.ResolveInfo(cfg)
	if err != nil {
		t.Fatalf("ResolveInfo() error: %v", err)
	}
	if info.RequiresKey {
		t.Fatal("expected dryrun provider to need no key")
	}

	cfg.LLMProvider = "xai"
	cfg.DryRun = true
	if info, _ := r.ResolveInfo(cfg); info.Type != ProviderDryRun {
		t.Fatalf("expected dry_run to select dryrun provider, got %q", info.Type)
	}
}

func TestRegistry_ResolveInfo_UnknownListsSupported(t *testing.T) {
	r := NewRegistry()
	r.Register(ProviderInfo{Type: "openai"}, nilFactory)
	r.Register(ProviderInfo{Type: "xai"}, nilFactory)

	cfg := config.Default()
	cfg.LLMProvider = "copilot"
	_, err := r.ResolveInfo(cfg)
	if err == nil {
		t.Fatal("expected error for unregistered provider")
	}
	if !strings.Contains(err.Error(), `"copilot"`) || !strings.Contains(err.Error(), "supported: openai, xai") {
		t.Fatalf("expected error naming supported providers, got %q", err.Error())
	}
}

func TestFloat(t *testing.T) {
	p := Float(1.0)
	if p == nil || *p != 1.0 {
		t.Fatalf("expected pointer to 1.0, got %v", p)
	}
}

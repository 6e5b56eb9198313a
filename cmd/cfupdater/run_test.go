package main

import (
	"context"
	"testing"
	"time"

	"github.com/opsforge/cfupdater/pkg/config"
	"github.com/opsforge/cfupdater/pkg/dnsprovider"
	"github.com/opsforge/cfupdater/pkg/secrets"
)

// resetRegistry gives each test a clean global registry, since providers
// register under a fixed name per invocation
func resetRegistry() {
	dnsRegistry = dnsprovider.NewRegistry()
}

func TestBuildProviderCloudflare(t *testing.T) {
	ctx := context.Background()
	resetRegistry()

	cfg := &config.Config{DNSProvider: "cloudflare"}
	material := secrets.Material{APIToken: "test-token"}

	provider, err := buildProvider(ctx, cfg, material)
	if err != nil {
		t.Fatalf("buildProvider() failed: %v", err)
	}
	if provider.Name() != "cloudflare" {
		t.Errorf("provider.Name() = %q, want %q", provider.Name(), "cloudflare")
	}

	// The provider lands in the registry under its configured name
	registered, err := dnsRegistry.Get(ctx, "cloudflare")
	if err != nil {
		t.Fatalf("registry.Get() failed: %v", err)
	}
	if registered != provider {
		t.Error("registry returned a different provider instance")
	}
}

func TestBuildProviderUnsupported(t *testing.T) {
	ctx := context.Background()

	cfg := &config.Config{DNSProvider: "dyndns"}
	if _, err := buildProvider(ctx, cfg, secrets.Material{}); err == nil {
		t.Fatal("buildProvider() should fail for an unsupported provider")
	}
}

func TestBuildProviderCloudflareRequiresToken(t *testing.T) {
	ctx := context.Background()

	cfg := &config.Config{DNSProvider: "cloudflare"}
	if _, err := buildProvider(ctx, cfg, secrets.Material{}); err == nil {
		t.Fatal("buildProvider() should fail without an API token")
	}
}

func TestBuildUpdater(t *testing.T) {
	ctx := context.Background()
	resetRegistry()

	cfg := &config.Config{
		DNSProvider: "cloudflare",
		ZoneName:    "example.com",
		RecordName:  "home.example.com",
		RecordType:  "A",
		IPLookup:    config.IPLookupConfig{Timeout: time.Second},
	}

	provider, err := buildProvider(ctx, cfg, secrets.Material{APIToken: "test-token"})
	if err != nil {
		t.Fatalf("buildProvider() failed: %v", err)
	}

	u, err := buildUpdater(cfg, provider)
	if err != nil {
		t.Fatalf("buildUpdater() failed: %v", err)
	}
	if u == nil {
		t.Fatal("buildUpdater() = nil")
	}
}

func TestBuildUpdaterUnknownSource(t *testing.T) {
	cfg := &config.Config{
		DNSProvider: "cloudflare",
		IPLookup:    config.IPLookupConfig{Sources: []string{"not-a-source"}},
	}

	if _, err := buildUpdater(cfg, nil); err == nil {
		t.Fatal("buildUpdater() should fail for an unknown IP source")
	}
}

package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfupdater.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestParseConfigValid(t *testing.T) {
	ctx := context.Background()
	path := writeConfigFile(t, `
dns_provider: cloudflare
zone_name: example.com
record_name: home.example.com
ttl: 1
proxied: false
secrets:
  source: onepassword
  api_token_ref: op://Services/CF DNS API/credential
schedule:
  mode: hourly
  runs: 0
verify:
  enabled: true
  resolver: 1.1.1.1:53
`)

	cfg, err := ParseConfig(ctx, path)
	if err != nil {
		t.Fatalf("ParseConfig() failed: %v", err)
	}

	if cfg.DNSProvider != "cloudflare" {
		t.Errorf("DNSProvider = %q, want %q", cfg.DNSProvider, "cloudflare")
	}
	if cfg.RecordName != "home.example.com" {
		t.Errorf("RecordName = %q, want %q", cfg.RecordName, "home.example.com")
	}
	if cfg.RecordType != "A" {
		t.Errorf("RecordType = %q, want default %q", cfg.RecordType, "A")
	}
	if cfg.Schedule.Mode != "hourly" {
		t.Errorf("Schedule.Mode = %q, want %q", cfg.Schedule.Mode, "hourly")
	}
	if cfg.Secrets.Source != "onepassword" {
		t.Errorf("Secrets.Source = %q, want %q", cfg.Secrets.Source, "onepassword")
	}
	if !cfg.Verify.Enabled {
		t.Error("Verify.Enabled = false, want true")
	}
	if cfg.Verify.Attempts != DefaultVerifyAttempts {
		t.Errorf("Verify.Attempts = %d, want default %d", cfg.Verify.Attempts, DefaultVerifyAttempts)
	}
}

func TestParseConfigDefaults(t *testing.T) {
	ctx := context.Background()
	path := writeConfigFile(t, `
dns_provider: cloudflare
zone_name: example.com
record_name: home.example.com
`)

	cfg, err := ParseConfig(ctx, path)
	if err != nil {
		t.Fatalf("ParseConfig() failed: %v", err)
	}

	if cfg.TTL != DefaultTTL {
		t.Errorf("TTL = %d, want default %d", cfg.TTL, DefaultTTL)
	}
	if cfg.Schedule.Mode != "once" {
		t.Errorf("Schedule.Mode = %q, want default %q", cfg.Schedule.Mode, "once")
	}
	if cfg.Secrets.Source != "env" {
		t.Errorf("Secrets.Source = %q, want default %q", cfg.Secrets.Source, "env")
	}
	if cfg.IPLookup.Timeout != 10*time.Second {
		t.Errorf("IPLookup.Timeout = %v, want default %v", cfg.IPLookup.Timeout, 10*time.Second)
	}
}

func TestParseConfigTimeout(t *testing.T) {
	ctx := context.Background()
	path := writeConfigFile(t, `
dns_provider: cloudflare
zone_name: example.com
record_name: home.example.com
timeout: 30s
`)

	cfg, err := ParseConfig(ctx, path)
	if err != nil {
		t.Fatalf("ParseConfig() failed: %v", err)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want %v", cfg.Timeout, 30*time.Second)
	}
}

func TestParseConfigLenientUnknownFields(t *testing.T) {
	ctx := context.Background()
	path := writeConfigFile(t, `
dns_provider: cloudflare
zone_name: example.com
record_name: home.example.com
some_future_field: hello
`)

	cfg, err := ParseConfig(ctx, path)
	if err != nil {
		t.Fatalf("ParseConfig() should tolerate unknown fields: %v", err)
	}
	if cfg.AdditionalFields["some_future_field"] != "hello" {
		t.Errorf("AdditionalFields missing captured field, got %v", cfg.AdditionalFields)
	}
}

func TestParseConfigErrors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		content     string
		errContains string
	}{
		{
			name:        "missing provider",
			content:     "zone_name: example.com\nrecord_name: home.example.com\n",
			errContains: "dns_provider",
		},
		{
			name:        "unknown provider",
			content:     "dns_provider: gandi\nzone_name: example.com\nrecord_name: home.example.com\n",
			errContains: "invalid dns_provider",
		},
		{
			name:        "missing zone",
			content:     "dns_provider: cloudflare\nrecord_name: home.example.com\n",
			errContains: "zone_name",
		},
		{
			name:        "missing record",
			content:     "dns_provider: cloudflare\nzone_name: example.com\n",
			errContains: "record_name",
		},
		{
			name:        "bad record type",
			content:     "dns_provider: cloudflare\nzone_name: example.com\nrecord_name: home.example.com\nrecord_type: MX\n",
			errContains: "record_type",
		},
		{
			name:        "bad schedule mode",
			content:     "dns_provider: cloudflare\nzone_name: example.com\nrecord_name: home.example.com\nschedule:\n  mode: weekly\n",
			errContains: "schedule mode",
		},
		{
			name:        "negative runs",
			content:     "dns_provider: cloudflare\nzone_name: example.com\nrecord_name: home.example.com\nschedule:\n  mode: hourly\n  runs: -1\n",
			errContains: "runs",
		},
		{
			name:        "negative timeout",
			content:     "dns_provider: cloudflare\nzone_name: example.com\nrecord_name: home.example.com\ntimeout: -5s\n",
			errContains: "timeout",
		},
		{
			name:        "bad secrets source",
			content:     "dns_provider: cloudflare\nzone_name: example.com\nrecord_name: home.example.com\nsecrets:\n  source: vault\n",
			errContains: "secrets source",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfigFile(t, tt.content)
			_, err := ParseConfig(ctx, path)
			if err == nil {
				t.Fatal("ParseConfig() should have failed")
			}
			if !strings.Contains(err.Error(), tt.errContains) {
				t.Fatalf("ParseConfig() error = %v, want error containing %q", err, tt.errContains)
			}
		})
	}
}

func TestParseConfigMissingFile(t *testing.T) {
	ctx := context.Background()
	_, err := ParseConfig(ctx, filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("ParseConfig() should fail for missing file")
	}
}

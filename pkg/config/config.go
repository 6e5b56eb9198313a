package config

import (
	"time"
)

// Config represents the parsed cfupdater.yaml structure
type Config struct {
	// DNSProvider selects the backend that owns the record (cloudflare, route53)
	DNSProvider string `yaml:"dns_provider"`

	// ZoneName is the DNS zone the record lives in (e.g. example.com).
	// May be a secret reference (op://... or env://...).
	ZoneName string `yaml:"zone_name"`

	// RecordName is the fully qualified record to keep updated
	// (e.g. home.example.com). May be a secret reference.
	RecordName string `yaml:"record_name"`

	// RecordType is A or AAAA. Defaults to A.
	RecordType string `yaml:"record_type,omitempty"`

	// TTL in seconds. 1 means provider-automatic (Cloudflare convention).
	TTL int `yaml:"ttl,omitempty"`

	// Proxied enables the provider's proxy on the record (Cloudflare only)
	Proxied bool `yaml:"proxied,omitempty"`

	Secrets  SecretsConfig  `yaml:"secrets,omitempty"`
	IPLookup IPLookupConfig `yaml:"ip_lookup,omitempty"`
	Schedule ScheduleConfig `yaml:"schedule,omitempty"`
	Verify   VerifyConfig   `yaml:"verify,omitempty"`

	// StateFile caches the last applied IP between cycles. Empty disables caching.
	StateFile string `yaml:"state_file,omitempty"`

	// Timeout bounds each update cycle. Zero means no per-cycle timeout.
	// The --timeout flag overrides it.
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// DryRun is set from the CLI flag, not from YAML
	DryRun bool `yaml:"-"`

	// Additional fields are captured for lenient parsing
	AdditionalFields map[string]any `yaml:",inline"`
}

// SecretsConfig selects where credentials come from
type SecretsConfig struct {
	// Source is "onepassword" or "env". Defaults to "env".
	Source string `yaml:"source,omitempty"`

	// APITokenRef resolves to the DNS provider API token
	// (e.g. op://Services/CF DNS API/credential)
	APITokenRef string `yaml:"api_token_ref,omitempty"`

	AdditionalFields map[string]any `yaml:",inline"`
}

// IPLookupConfig controls public IP detection
type IPLookupConfig struct {
	// Sources are tried in order. Known names: cloudflare-meta,
	// cloudflare-trace, ipify. Empty means all of them, in that order.
	Sources []string `yaml:"sources,omitempty"`

	// Timeout applies to each individual source attempt
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// ScheduleConfig controls the repeat behavior of the update loop
type ScheduleConfig struct {
	// Mode is once, min, hourly or daily. Defaults to once.
	Mode string `yaml:"mode,omitempty"`

	// Runs is the total number of cycles; 0 means run forever
	Runs int `yaml:"runs,omitempty"`
}

// VerifyConfig controls post-update DNS verification
type VerifyConfig struct {
	Enabled bool `yaml:"enabled,omitempty"`

	// Resolver is the DNS server to query (host:port). Empty uses the
	// system resolver.
	Resolver string `yaml:"resolver,omitempty"`

	// Wait is the propagation delay before the first resolution attempt
	Wait time.Duration `yaml:"wait,omitempty"`

	// Attempts bounds how many resolution attempts are made
	Attempts int `yaml:"attempts,omitempty"`
}

// ValidProviders lists the DNS providers that can be configured
var ValidProviders = []string{"cloudflare", "route53"}

// ValidScheduleModes lists the accepted schedule modes
var ValidScheduleModes = []string{"once", "min", "hourly", "daily"}

// IsValidProvider checks if the given provider name is supported
func IsValidProvider(name string) bool {
	for _, p := range ValidProviders {
		if p == name {
			return true
		}
	}
	return false
}

// IsValidScheduleMode checks if the given schedule mode is supported
func IsValidScheduleMode(mode string) bool {
	for _, m := range ValidScheduleModes {
		if m == mode {
			return true
		}
	}
	return false
}

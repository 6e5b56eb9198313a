package config

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// Defaults applied when the config file leaves a field unset
const (
	DefaultRecordType      = "A"
	DefaultTTL             = 1 // provider-automatic
	DefaultScheduleMode    = "once"
	DefaultLookupTimeout   = 10 * time.Second
	DefaultVerifyWait      = 5 * time.Second
	DefaultVerifyAttempts  = 3
	DefaultSecretsSource   = "env"
)

// ParseConfig parses a cfupdater.yaml file and returns the configuration.
// Parsing is lenient - unknown fields are captured rather than rejected, and
// only the fields the updater cannot run without are validated here.
func ParseConfig(ctx context.Context, filePath string) (*Config, error) {
	tracer := otel.Tracer("cfupdater")
	_, span := tracer.Start(ctx, "config.ParseConfig")
	defer span.End()

	span.SetAttributes(attribute.String("config.file", filePath))

	data, err := os.ReadFile(filePath)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to read config file %s: %w", filePath, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to parse config file %s: %w", filePath, err)
	}

	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(
		attribute.String("config.dns_provider", cfg.DNSProvider),
		attribute.String("config.record_type", cfg.RecordType),
		attribute.String("config.schedule_mode", cfg.Schedule.Mode),
	)

	return &cfg, nil
}

// Validate checks the fields the updater cannot run without. Secret
// references are accepted as-is here; they are resolved later.
func Validate(cfg *Config) error {
	if cfg.DNSProvider == "" {
		return fmt.Errorf("dns_provider field is required in config")
	}
	if !IsValidProvider(cfg.DNSProvider) {
		return fmt.Errorf("invalid dns_provider %q, must be one of: %v", cfg.DNSProvider, ValidProviders)
	}
	if cfg.ZoneName == "" {
		return fmt.Errorf("zone_name field is required in config")
	}
	if cfg.RecordName == "" {
		return fmt.Errorf("record_name field is required in config")
	}
	if cfg.RecordType != "A" && cfg.RecordType != "AAAA" {
		return fmt.Errorf("invalid record_type %q, must be A or AAAA", cfg.RecordType)
	}
	if !IsValidScheduleMode(cfg.Schedule.Mode) {
		return fmt.Errorf("invalid schedule mode %q, must be one of: %v", cfg.Schedule.Mode, ValidScheduleModes)
	}
	if cfg.Schedule.Runs < 0 {
		return fmt.Errorf("schedule runs must be >= 0 (0 means run forever), got %d", cfg.Schedule.Runs)
	}
	if cfg.TTL < 0 {
		return fmt.Errorf("ttl must be >= 0, got %d", cfg.TTL)
	}
	if cfg.Timeout < 0 {
		return fmt.Errorf("timeout must be >= 0, got %s", cfg.Timeout)
	}
	if cfg.Secrets.Source != "env" && cfg.Secrets.Source != "onepassword" {
		return fmt.Errorf("invalid secrets source %q, must be env or onepassword", cfg.Secrets.Source)
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.RecordType == "" {
		cfg.RecordType = DefaultRecordType
	}
	if cfg.TTL == 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Schedule.Mode == "" {
		cfg.Schedule.Mode = DefaultScheduleMode
	}
	if cfg.IPLookup.Timeout == 0 {
		cfg.IPLookup.Timeout = DefaultLookupTimeout
	}
	if cfg.Verify.Wait == 0 {
		cfg.Verify.Wait = DefaultVerifyWait
	}
	if cfg.Verify.Attempts == 0 {
		cfg.Verify.Attempts = DefaultVerifyAttempts
	}
	if cfg.Secrets.Source == "" {
		cfg.Secrets.Source = DefaultSecretsSource
	}
}

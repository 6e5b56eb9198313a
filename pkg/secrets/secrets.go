// Package secrets resolves credential references from the configuration.
// A reference is any value shaped like op://vault/item/field (1Password) or
// env://VAR (process environment); anything else is treated as a literal.
package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/opsforge/cfupdater/pkg/config"
)

const (
	opPrefix  = "op://"
	envPrefix = "env://"
)

// EnvAPIToken is the fallback environment variable for the provider API
// token when no api_token_ref is configured.
const EnvAPIToken = "CLOUDFLARE_API_TOKEN"

// Resolver resolves a secret reference to its value
type Resolver interface {
	// Resolve returns the secret value for the given reference.
	// The reference format depends on the implementation.
	Resolve(ctx context.Context, ref string) (string, error)
}

// Material is the resolved credential set handed to the DNS provider
type Material struct {
	// APIToken authenticates to the DNS provider API. Empty is allowed for
	// providers that use ambient credentials (route53 via the AWS chain).
	APIToken string
}

// IsRef reports whether the value is a secret reference rather than a literal
func IsRef(value string) bool {
	return strings.HasPrefix(value, opPrefix) || strings.HasPrefix(value, envPrefix)
}

// NewResolver creates the resolver selected by the secrets source config
func NewResolver(ctx context.Context, source string) (Resolver, error) {
	switch source {
	case "env":
		return &EnvResolver{}, nil
	case "onepassword":
		return NewOnePasswordResolver(ctx)
	default:
		return nil, fmt.Errorf("unknown secrets source %q", source)
	}
}

// Expand resolves the secret-bearing config fields in place and returns the
// resolved credential material. The zone and record names may themselves be
// references (the original deployment keeps the hostname in the vault).
func Expand(ctx context.Context, resolver Resolver, cfg *config.Config) (Material, error) {
	tracer := otel.Tracer("cfupdater")
	ctx, span := tracer.Start(ctx, "secrets.Expand")
	defer span.End()

	span.SetAttributes(attribute.String("secrets.source", cfg.Secrets.Source))

	var mat Material

	if IsRef(cfg.ZoneName) {
		value, err := resolver.Resolve(ctx, cfg.ZoneName)
		if err != nil {
			span.RecordError(err)
			return mat, fmt.Errorf("failed to resolve zone_name reference: %w", err)
		}
		cfg.ZoneName = value
	}

	if IsRef(cfg.RecordName) {
		value, err := resolver.Resolve(ctx, cfg.RecordName)
		if err != nil {
			span.RecordError(err)
			return mat, fmt.Errorf("failed to resolve record_name reference: %w", err)
		}
		cfg.RecordName = value
	}

	if cfg.Secrets.APITokenRef != "" {
		value, err := resolver.Resolve(ctx, cfg.Secrets.APITokenRef)
		if err != nil {
			span.RecordError(err)
			return mat, fmt.Errorf("failed to resolve api_token_ref: %w", err)
		}
		mat.APIToken = value
	} else {
		mat.APIToken = os.Getenv(EnvAPIToken)
	}

	return mat, nil
}

// EnvResolver resolves env://VAR references from the process environment.
// Literal values pass through unchanged so it can back dev setups where
// the config holds plain values.
type EnvResolver struct{}

// Resolve implements Resolver
func (r *EnvResolver) Resolve(ctx context.Context, ref string) (string, error) {
	if strings.HasPrefix(ref, opPrefix) {
		return "", fmt.Errorf("reference %q requires the onepassword secrets source", ref)
	}
	if !strings.HasPrefix(ref, envPrefix) {
		return ref, nil
	}

	name := strings.TrimPrefix(ref, envPrefix)
	value, ok := os.LookupEnv(name)
	if !ok {
		return "", fmt.Errorf("environment variable %s referenced by %q is not set", name, ref)
	}
	return value, nil
}

package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/1password/onepassword-sdk-go"
	"go.opentelemetry.io/otel"
)

// EnvServiceAccountToken holds the 1Password service account token
const EnvServiceAccountToken = "OP_SERVICE_ACCOUNT_TOKEN"

const (
	integrationName    = "cfupdater"
	integrationVersion = "1.0.0"
)

// OnePasswordResolver resolves op://vault/item/field references through the
// 1Password SDK, authenticated with a service account token.
type OnePasswordResolver struct {
	client *onepassword.Client
}

// NewOnePasswordResolver authenticates to 1Password using the
// OP_SERVICE_ACCOUNT_TOKEN environment variable.
func NewOnePasswordResolver(ctx context.Context) (*OnePasswordResolver, error) {
	tracer := otel.Tracer("cfupdater")
	ctx, span := tracer.Start(ctx, "secrets.NewOnePasswordResolver")
	defer span.End()

	token := os.Getenv(EnvServiceAccountToken)
	if token == "" {
		err := fmt.Errorf("%s is not set: a service account token is required for the onepassword secrets source", EnvServiceAccountToken)
		span.RecordError(err)
		return nil, err
	}

	client, err := onepassword.NewClient(ctx,
		onepassword.WithServiceAccountToken(token),
		onepassword.WithIntegrationInfo(integrationName, integrationVersion),
	)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to authenticate to 1Password: %w", err)
	}

	return &OnePasswordResolver{client: client}, nil
}

// Resolve implements Resolver. env:// references are still honored so a
// config can mix vault and environment material.
func (r *OnePasswordResolver) Resolve(ctx context.Context, ref string) (string, error) {
	tracer := otel.Tracer("cfupdater")
	ctx, span := tracer.Start(ctx, "secrets.OnePasswordResolver.Resolve")
	defer span.End()

	if strings.HasPrefix(ref, envPrefix) {
		return (&EnvResolver{}).Resolve(ctx, ref)
	}
	if !strings.HasPrefix(ref, opPrefix) {
		return ref, nil
	}

	value, err := r.client.Secrets().Resolve(ctx, ref)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to resolve %q from 1Password: %w", ref, err)
	}
	return value, nil
}

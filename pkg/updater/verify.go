package updater

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/opsforge/cfupdater/pkg/config"
	"github.com/opsforge/cfupdater/pkg/status"
)

// Verifier confirms that the record name resolves to the expected address
// after an update. DNS answers lag behind the provider API, so it waits a
// propagation delay before the first attempt and retries a bounded number
// of times.
type Verifier struct {
	wait     time.Duration
	attempts int

	// lookup is swapped by tests; the default resolves through resolverAddr
	// or the system resolver
	lookup func(ctx context.Context, host string) ([]netip.Addr, error)
}

// NewVerifier builds a verifier from the verify config section
func NewVerifier(cfg config.VerifyConfig) *Verifier {
	resolver := net.DefaultResolver
	if cfg.Resolver != "" {
		// Query the configured server directly instead of the system
		// resolver, so a local split-horizon setup cannot mask a stale
		// public record.
		addr := cfg.Resolver
		resolver = &net.Resolver{
			PreferGo: true,
			Dial: func(ctx context.Context, network, _ string) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, network, addr)
			},
		}
	}

	attempts := cfg.Attempts
	if attempts <= 0 {
		attempts = 1
	}

	return &Verifier{
		wait:     cfg.Wait,
		attempts: attempts,
		lookup: func(ctx context.Context, host string) ([]netip.Addr, error) {
			return resolver.LookupNetIP(ctx, "ip", host)
		},
	}
}

// Verify resolves name until it answers with expected or attempts run out
func (v *Verifier) Verify(ctx context.Context, name string, expected netip.Addr) error {
	tracer := otel.Tracer("cfupdater")
	ctx, span := tracer.Start(ctx, "updater.Verifier.Verify")
	defer span.End()

	span.SetAttributes(
		attribute.String("record_name", name),
		attribute.String("expected_ip", expected.String()),
		attribute.Int("attempts", v.attempts),
	)

	status.Send(ctx, status.NewUpdate(status.LevelProgress, "Verifying DNS propagation").
		WithResource("record").
		WithAction("verifying").
		WithMetadata("record_name", name))

	var lastErr error
	for attempt := 1; attempt <= v.attempts; attempt++ {
		// Propagation delay before every attempt, including the first
		select {
		case <-ctx.Done():
			span.RecordError(ctx.Err())
			return fmt.Errorf("verification cancelled: %w", ctx.Err())
		case <-time.After(v.wait):
		}

		addrs, err := v.lookup(ctx, name)
		if err != nil {
			lastErr = fmt.Errorf("failed to resolve %s: %w", name, err)
			continue
		}

		for _, addr := range addrs {
			if addr.Unmap() == expected.Unmap() {
				span.SetAttributes(attribute.Int("attempt", attempt))
				status.Send(ctx, status.NewUpdate(status.LevelSuccess, "DNS verification succeeded").
					WithResource("record").
					WithAction("verified").
					WithMetadata("record_name", name).
					WithMetadata("ip", expected.String()))
				return nil
			}
		}
		lastErr = fmt.Errorf("%s resolves to %v, expected %s", name, addrs, expected)
	}

	err := fmt.Errorf("verification failed after %d attempts: %w", v.attempts, lastErr)
	span.RecordError(err)
	return err
}

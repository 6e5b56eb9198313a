package ipsource

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// DefaultAttemptTimeout bounds each individual source attempt
const DefaultAttemptTimeout = 10 * time.Second

// Chain tries sources in order and returns the first answer of the wanted
// address family. A source that errors or answers with the wrong family is
// skipped, not fatal.
type Chain struct {
	sources        []Source
	attemptTimeout time.Duration
}

// NewChain builds a chain over the given sources. attemptTimeout <= 0 uses
// DefaultAttemptTimeout.
func NewChain(sources []Source, attemptTimeout time.Duration) *Chain {
	if attemptTimeout <= 0 {
		attemptTimeout = DefaultAttemptTimeout
	}
	return &Chain{sources: sources, attemptTimeout: attemptTimeout}
}

// Result pairs a source's name with its answer or failure
type Result struct {
	Source string
	Addr   netip.Addr
	Err    error
}

// Lookup returns the current public IP of the wanted family, plus the name
// of the source that answered.
func (c *Chain) Lookup(ctx context.Context, family Family) (netip.Addr, string, error) {
	tracer := otel.Tracer("cfupdater")
	ctx, span := tracer.Start(ctx, "ipsource.Chain.Lookup")
	defer span.End()

	span.SetAttributes(
		attribute.String("family", string(family)),
		attribute.Int("source_count", len(c.sources)),
	)

	if len(c.sources) == 0 {
		err := errors.New("no IP sources configured")
		span.RecordError(err)
		return netip.Addr{}, "", err
	}

	var errs []error
	for _, src := range c.sources {
		if ctx.Err() != nil {
			span.RecordError(ctx.Err())
			return netip.Addr{}, "", ctx.Err()
		}

		attemptCtx, cancel := context.WithTimeout(ctx, c.attemptTimeout)
		addr, err := src.Lookup(attemptCtx)
		cancel()

		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", src.Name(), err))
			continue
		}
		if !family.Matches(addr) {
			errs = append(errs, fmt.Errorf("%s: answered %s, which is not %s", src.Name(), addr, family))
			continue
		}

		span.SetAttributes(
			attribute.String("ip", addr.String()),
			attribute.String("source", src.Name()),
		)
		return addr, src.Name(), nil
	}

	err := fmt.Errorf("all IP sources failed: %w", errors.Join(errs...))
	span.RecordError(err)
	return netip.Addr{}, "", err
}

// ProbeAll queries every source concurrently and reports each answer.
// Used by the validate command to show which sources are reachable and
// whether they agree.
func (c *Chain) ProbeAll(ctx context.Context) []Result {
	tracer := otel.Tracer("cfupdater")
	ctx, span := tracer.Start(ctx, "ipsource.Chain.ProbeAll")
	defer span.End()

	results := make([]Result, len(c.sources))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range c.sources {
		g.Go(func() error {
			attemptCtx, cancel := context.WithTimeout(gctx, c.attemptTimeout)
			defer cancel()

			addr, err := src.Lookup(attemptCtx)

			mu.Lock()
			results[i] = Result{Source: src.Name(), Addr: addr, Err: err}
			mu.Unlock()

			// Probing collects failures rather than aborting on them
			return nil
		})
	}
	_ = g.Wait()

	span.SetAttributes(attribute.Int("source_count", len(results)))
	return results
}

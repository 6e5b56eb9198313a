// Package updater runs the reconcile cycle: detect the public IP, bring the
// provider's record in line with it, remember what was applied, and check
// that the world agrees.
package updater

import (
	"context"
	"fmt"
	"log/slog"
	"net/netip"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/opsforge/cfupdater/pkg/config"
	"github.com/opsforge/cfupdater/pkg/dnsprovider"
	"github.com/opsforge/cfupdater/pkg/ipsource"
	"github.com/opsforge/cfupdater/pkg/status"
)

// IPLookup is the part of ipsource.Chain the updater depends on
type IPLookup interface {
	Lookup(ctx context.Context, family ipsource.Family) (netip.Addr, string, error)
}

// Result describes what a cycle did
type Result struct {
	// IP is the detected public address
	IP netip.Addr

	// Source names the IP source that answered
	Source string

	// Outcome reports the record write (created, updated, unchanged)
	Outcome dnsprovider.Outcome

	// VerifyErr holds the verification failure, if verification ran and
	// did not confirm the update. A cycle with a VerifyErr still counts
	// as successful: the provider accepted the write.
	VerifyErr error
}

// Updater drives one DNS record towards the current public IP
type Updater struct {
	cfg      *config.Config
	provider dnsprovider.Provider
	lookup   IPLookup
	store    *StateStore // nil disables the state cache
	verifier *Verifier   // nil disables verification
}

// New assembles an updater. store and verifier may be nil.
func New(cfg *config.Config, provider dnsprovider.Provider, lookup IPLookup, store *StateStore, verifier *Verifier) *Updater {
	return &Updater{
		cfg:      cfg,
		provider: provider,
		lookup:   lookup,
		store:    store,
		verifier: verifier,
	}
}

// RunCycle performs one full update cycle
func (u *Updater) RunCycle(ctx context.Context) (*Result, error) {
	tracer := otel.Tracer("cfupdater")
	ctx, span := tracer.Start(ctx, "updater.RunCycle")
	defer span.End()

	span.SetAttributes(
		attribute.String("record_name", u.cfg.RecordName),
		attribute.String("record_type", u.cfg.RecordType),
		attribute.String("dns_provider", u.provider.Name()),
		attribute.Bool("dry_run", u.cfg.DryRun),
	)

	family, err := ipsource.FamilyForRecordType(u.cfg.RecordType)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	status.Send(ctx, status.NewUpdate(status.LevelProgress, "Detecting public IP").
		WithResource("ip").
		WithAction("detecting"))

	addr, source, err := u.lookup.Lookup(ctx, family)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to detect public IP: %w", err)
	}

	span.SetAttributes(
		attribute.String("ip", addr.String()),
		attribute.String("ip_source", source),
	)
	status.Send(ctx, status.NewUpdate(status.LevelInfo, "Public IP detected").
		WithResource("ip").
		WithAction("detected").
		WithMetadata("ip", addr.String()).
		WithMetadata("source", source))

	desired := dnsprovider.Desired(u.cfg.RecordName, u.cfg.RecordType, addr.Unmap().String(), u.cfg.TTL, u.cfg.Proxied)
	// Compare TTLs in the backend's convention: a provider without TTLAuto
	// stores its own substitute, and the live record reports that value
	desired.TTL = u.provider.NormalizeTTL(desired.TTL)
	result := &Result{IP: addr, Source: source}

	if u.cfg.DryRun {
		outcome, err := u.planOnly(ctx, desired)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		result.Outcome = outcome
		return result, nil
	}

	// A cache hit still confirms against the live record, so a record
	// edited behind our back gets repaired rather than skipped.
	if u.cachedApplies(ctx, desired) {
		live, err := u.provider.CurrentRecord(ctx, u.cfg.ZoneName, desired.Name, desired.Type)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		if live != nil && live.Matches(desired) {
			span.SetAttributes(attribute.String("outcome", string(dnsprovider.OutcomeUnchanged)))
			status.Send(ctx, status.NewUpdate(status.LevelInfo, "Record already up to date").
				WithResource("record").
				WithAction("skipped").
				WithMetadata("ip", desired.Content))
			result.Outcome = dnsprovider.OutcomeUnchanged
			return result, nil
		}
		slog.Warn("State cache says record is current but the live record disagrees, repairing",
			"record_name", desired.Name,
		)
	}

	status.Send(ctx, status.NewUpdate(status.LevelProgress, "Reconciling DNS record").
		WithResource("record").
		WithAction("updating").
		WithMetadata("record_name", desired.Name).
		WithMetadata("ip", desired.Content))

	outcome, err := u.provider.UpsertRecord(ctx, u.cfg.ZoneName, desired)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to reconcile record %s: %w", desired.Name, err)
	}
	result.Outcome = outcome
	span.SetAttributes(attribute.String("outcome", string(outcome)))

	status.Send(ctx, status.NewUpdate(status.LevelSuccess, "Record reconciled").
		WithResource("record").
		WithAction(string(outcome)).
		WithMetadata("record_name", desired.Name).
		WithMetadata("ip", desired.Content))

	u.saveState(ctx, desired)

	if u.verifier != nil && u.cfg.Verify.Enabled && outcome != dnsprovider.OutcomeUnchanged {
		if err := u.verifier.Verify(ctx, desired.Name, addr); err != nil {
			// Resolvers lag; the write itself succeeded
			span.RecordError(err)
			slog.Warn("DNS verification failed", "error", err, "record_name", desired.Name)
			status.Send(ctx, status.NewUpdate(status.LevelWarning, "DNS verification failed").
				WithResource("record").
				WithAction("verifying").
				WithMetadata("error", err.Error()))
			result.VerifyErr = err
		}
	}

	return result, nil
}

// planOnly reports what a real cycle would do without writing anything
func (u *Updater) planOnly(ctx context.Context, desired dnsprovider.Record) (dnsprovider.Outcome, error) {
	live, err := u.provider.CurrentRecord(ctx, u.cfg.ZoneName, desired.Name, desired.Type)
	if err != nil {
		return "", fmt.Errorf("failed to read record %s: %w", desired.Name, err)
	}

	outcome := dnsprovider.OutcomeCreated
	switch {
	case live == nil:
		outcome = dnsprovider.OutcomeCreated
	case live.Matches(desired):
		outcome = dnsprovider.OutcomeUnchanged
	default:
		outcome = dnsprovider.OutcomeUpdated
	}

	status.Send(ctx, status.NewUpdate(status.LevelInfo, "Dry run: no changes applied").
		WithResource("record").
		WithAction(string(outcome)).
		WithMetadata("record_name", desired.Name).
		WithMetadata("ip", desired.Content))
	return outcome, nil
}

// cachedApplies reports whether the state cache covers the desired record
func (u *Updater) cachedApplies(ctx context.Context, desired dnsprovider.Record) bool {
	if u.store == nil {
		return false
	}

	state, err := u.store.Load(ctx)
	if err != nil {
		// A broken cache is a cache miss, not a failed cycle
		slog.Warn("Failed to load state cache", "error", err)
		return false
	}
	return state.Matches(desired.Content, desired.Name, desired.Type, u.provider.Name())
}

func (u *Updater) saveState(ctx context.Context, desired dnsprovider.Record) {
	if u.store == nil {
		return
	}

	state := State{
		IP:         desired.Content,
		RecordName: desired.Name,
		RecordType: desired.Type,
		Provider:   u.provider.Name(),
		UpdatedAt:  time.Now().UTC(),
	}
	if err := u.store.Save(ctx, state); err != nil {
		slog.Warn("Failed to save state cache", "error", err)
	}
}

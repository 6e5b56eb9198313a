package cloudflare

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/opsforge/cfupdater/pkg/dnsprovider"
)

// Provider implements the Cloudflare DNS provider. The zone lookup is cached
// per zone name; record state is re-read on every call so out-of-band edits
// are seen.
type Provider struct {
	client CloudflareClient

	mu      sync.Mutex
	zoneIDs map[string]string
}

// NewProvider creates a Cloudflare DNS provider authenticated with the
// given API token.
func NewProvider(apiToken string) (*Provider, error) {
	client, err := NewSDKClient(apiToken)
	if err != nil {
		return nil, err
	}
	return NewProviderWithClient(client), nil
}

// NewProviderWithClient creates a provider with an injected client.
// Used by tests to substitute a mock.
func NewProviderWithClient(client CloudflareClient) *Provider {
	return &Provider{
		client:  client,
		zoneIDs: make(map[string]string),
	}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "cloudflare"
}

// NormalizeTTL returns the TTL Cloudflare stores. TTLAuto (1) is a real
// Cloudflare value and passes through unchanged.
func (p *Provider) NormalizeTTL(ttl int) int {
	if ttl <= 0 {
		return dnsprovider.TTLAuto
	}
	return ttl
}

// CurrentRecord returns the live record for name/type in the zone, or nil
// when it does not exist.
func (p *Provider) CurrentRecord(ctx context.Context, zone, name, recordType string) (*dnsprovider.Record, error) {
	tracer := otel.Tracer("cfupdater")
	ctx, span := tracer.Start(ctx, "cloudflare.CurrentRecord")
	defer span.End()

	span.SetAttributes(
		attribute.String("zone_name", zone),
		attribute.String("record_name", name),
		attribute.String("record_type", recordType),
	)

	zoneID, err := p.zoneID(ctx, zone)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	found, err := p.findRecord(ctx, zoneID, name, recordType)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if found == nil {
		return nil, nil
	}

	return &dnsprovider.Record{
		ID:      found.ID,
		Name:    found.Name,
		Type:    found.Type,
		Content: found.Content,
		TTL:     found.TTL,
		Proxied: found.Proxied,
	}, nil
}

// UpsertRecord creates or rewrites the record so it matches the desired
// state, reporting what it did.
func (p *Provider) UpsertRecord(ctx context.Context, zone string, record dnsprovider.Record) (dnsprovider.Outcome, error) {
	tracer := otel.Tracer("cfupdater")
	ctx, span := tracer.Start(ctx, "cloudflare.UpsertRecord")
	defer span.End()

	span.SetAttributes(
		attribute.String("zone_name", zone),
		attribute.String("record_name", record.Name),
		attribute.String("record_type", record.Type),
		attribute.String("record_content", record.Content),
	)

	zoneID, err := p.zoneID(ctx, zone)
	if err != nil {
		span.RecordError(err)
		return "", err
	}

	desired := DNSRecordResult{
		Name:    record.Name,
		Type:    record.Type,
		Content: record.Content,
		TTL:     record.TTL,
		Proxied: record.Proxied,
	}

	existing, err := p.findRecord(ctx, zoneID, record.Name, record.Type)
	if err != nil {
		span.RecordError(err)
		return "", err
	}

	if existing == nil {
		if _, err := p.client.CreateDNSRecord(ctx, zoneID, desired); err != nil {
			span.RecordError(err)
			return "", err
		}
		span.SetAttributes(attribute.String("outcome", string(dnsprovider.OutcomeCreated)))
		return dnsprovider.OutcomeCreated, nil
	}

	if existing.Content == desired.Content && existing.TTL == desired.TTL && existing.Proxied == desired.Proxied {
		span.SetAttributes(attribute.String("outcome", string(dnsprovider.OutcomeUnchanged)))
		return dnsprovider.OutcomeUnchanged, nil
	}

	if err := p.client.UpdateDNSRecord(ctx, zoneID, existing.ID, desired); err != nil {
		span.RecordError(err)
		return "", err
	}
	span.SetAttributes(attribute.String("outcome", string(dnsprovider.OutcomeUpdated)))
	return dnsprovider.OutcomeUpdated, nil
}

// DeleteRecord removes the record if it exists. Deleting an absent record
// is not an error.
func (p *Provider) DeleteRecord(ctx context.Context, zone, name, recordType string) error {
	tracer := otel.Tracer("cfupdater")
	ctx, span := tracer.Start(ctx, "cloudflare.DeleteRecord")
	defer span.End()

	span.SetAttributes(
		attribute.String("zone_name", zone),
		attribute.String("record_name", name),
		attribute.String("record_type", recordType),
	)

	zoneID, err := p.zoneID(ctx, zone)
	if err != nil {
		span.RecordError(err)
		return err
	}

	existing, err := p.findRecord(ctx, zoneID, name, recordType)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if existing == nil {
		return nil
	}

	if err := p.client.DeleteDNSRecord(ctx, zoneID, existing.ID); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// zoneID resolves and caches the zone ID for a zone name
func (p *Provider) zoneID(ctx context.Context, zone string) (string, error) {
	p.mu.Lock()
	if id, ok := p.zoneIDs[zone]; ok {
		p.mu.Unlock()
		return id, nil
	}
	p.mu.Unlock()

	id, err := p.client.ResolveZoneID(ctx, zone)
	if err != nil {
		return "", fmt.Errorf("failed to resolve zone %q: %w", zone, err)
	}

	p.mu.Lock()
	p.zoneIDs[zone] = id
	p.mu.Unlock()
	return id, nil
}

// findRecord lists records by exact name and picks the one matching the
// type. The name filter alone is not enough: a name can carry both an A
// and an AAAA record.
func (p *Provider) findRecord(ctx context.Context, zoneID, name, recordType string) (*DNSRecordResult, error) {
	records, err := p.client.ListDNSRecords(ctx, zoneID, name, recordType)
	if err != nil {
		return nil, err
	}

	for _, rec := range records {
		if rec.Name == name && rec.Type == recordType {
			return &rec, nil
		}
	}
	return nil, nil
}

package cloudflare

import (
	"context"
	"fmt"

	cfapi "github.com/cloudflare/cloudflare-go/v4"
	"github.com/cloudflare/cloudflare-go/v4/dns"
	"github.com/cloudflare/cloudflare-go/v4/option"
	"github.com/cloudflare/cloudflare-go/v4/zones"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// sdkClient wraps the cloudflare-go v4 SDK to implement CloudflareClient.
// This is a thin adapter -- no business logic, only type translation.
type sdkClient struct {
	api *cfapi.Client
}

// NewSDKClient creates a real Cloudflare API client using the provided API token.
func NewSDKClient(apiToken string) (CloudflareClient, error) {
	if apiToken == "" {
		return nil, fmt.Errorf("cloudflare API token is empty: set api_token_ref in the config or the CLOUDFLARE_API_TOKEN environment variable")
	}
	client := cfapi.NewClient(option.WithAPIToken(apiToken))
	return &sdkClient{api: client}, nil
}

// ResolveZoneID looks up the zone ID for a given zone name.
func (c *sdkClient) ResolveZoneID(ctx context.Context, zoneName string) (string, error) {
	tracer := otel.Tracer("cfupdater")
	ctx, span := tracer.Start(ctx, "cloudflare.sdk.ResolveZoneID")
	defer span.End()

	span.SetAttributes(attribute.String("zone_name", zoneName))

	pager := c.api.Zones.ListAutoPaging(ctx, zones.ZoneListParams{
		Name: cfapi.F(zoneName),
	})

	for pager.Next() {
		zone := pager.Current()
		if zone.Name == zoneName {
			span.SetAttributes(attribute.String("zone_id", zone.ID))
			return zone.ID, nil
		}
	}
	if err := pager.Err(); err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to list zones: %w (check that your API token has Zone:Read permission)", err)
	}

	err := fmt.Errorf("no zone found for %q: check that the zone exists and your API token has Zone:Read permission", zoneName)
	span.RecordError(err)
	return "", err
}

// ListDNSRecords returns DNS records matching the given name and type.
func (c *sdkClient) ListDNSRecords(ctx context.Context, zoneID string, name string, recordType string) ([]DNSRecordResult, error) {
	tracer := otel.Tracer("cfupdater")
	ctx, span := tracer.Start(ctx, "cloudflare.sdk.ListDNSRecords")
	defer span.End()

	span.SetAttributes(
		attribute.String("zone_id", zoneID),
		attribute.String("record_name", name),
		attribute.String("record_type", recordType),
	)

	params := dns.RecordListParams{
		ZoneID: cfapi.F(zoneID),
	}
	if name != "" {
		params.Name = cfapi.F(dns.RecordListParamsName{
			Exact: cfapi.F(name),
		})
	}
	if recordType != "" {
		params.Type = cfapi.F(dns.RecordListParamsType(recordType))
	}

	var results []DNSRecordResult
	pager := c.api.DNS.Records.ListAutoPaging(ctx, params)

	for pager.Next() {
		rec := pager.Current()
		results = append(results, DNSRecordResult{
			ID:      rec.ID,
			Name:    rec.Name,
			Type:    string(rec.Type),
			Content: rec.Content,
			TTL:     int(rec.TTL),
			Proxied: rec.Proxied,
		})
	}
	if err := pager.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list DNS records: %w", err)
	}

	span.SetAttributes(attribute.Int("record_count", len(results)))
	return results, nil
}

// CreateDNSRecord creates a new DNS record in the given zone.
// Only A and AAAA record types are supported.
func (c *sdkClient) CreateDNSRecord(ctx context.Context, zoneID string, record DNSRecordResult) (string, error) {
	tracer := otel.Tracer("cfupdater")
	ctx, span := tracer.Start(ctx, "cloudflare.sdk.CreateDNSRecord")
	defer span.End()

	span.SetAttributes(
		attribute.String("zone_id", zoneID),
		attribute.String("record_name", record.Name),
		attribute.String("record_type", record.Type),
		attribute.String("record_content", record.Content),
		attribute.Int("record_ttl", record.TTL),
	)

	body, err := buildRecordBody(record)
	if err != nil {
		span.RecordError(err)
		return "", err
	}

	created, err := c.api.DNS.Records.New(ctx, dns.RecordNewParams{
		ZoneID: cfapi.F(zoneID),
		Body:   body,
	})
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to create DNS record %s (%s): %w", record.Name, record.Type, err)
	}

	span.SetAttributes(attribute.String("record_id", created.ID))
	return created.ID, nil
}

// UpdateDNSRecord overwrites an existing DNS record by ID.
// Only A and AAAA record types are supported.
func (c *sdkClient) UpdateDNSRecord(ctx context.Context, zoneID string, recordID string, record DNSRecordResult) error {
	tracer := otel.Tracer("cfupdater")
	ctx, span := tracer.Start(ctx, "cloudflare.sdk.UpdateDNSRecord")
	defer span.End()

	span.SetAttributes(
		attribute.String("zone_id", zoneID),
		attribute.String("record_id", recordID),
		attribute.String("record_name", record.Name),
		attribute.String("record_type", record.Type),
		attribute.String("record_content", record.Content),
		attribute.Int("record_ttl", record.TTL),
	)

	body, err := buildUpdateRecordBody(record)
	if err != nil {
		span.RecordError(err)
		return err
	}

	_, err = c.api.DNS.Records.Update(ctx, recordID, dns.RecordUpdateParams{
		ZoneID: cfapi.F(zoneID),
		Body:   body,
	})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update DNS record %s (%s, id=%s): %w", record.Name, record.Type, recordID, err)
	}

	return nil
}

// DeleteDNSRecord deletes a DNS record by ID.
func (c *sdkClient) DeleteDNSRecord(ctx context.Context, zoneID string, recordID string) error {
	tracer := otel.Tracer("cfupdater")
	ctx, span := tracer.Start(ctx, "cloudflare.sdk.DeleteDNSRecord")
	defer span.End()

	span.SetAttributes(
		attribute.String("zone_id", zoneID),
		attribute.String("record_id", recordID),
	)

	_, err := c.api.DNS.Records.Delete(ctx, recordID, dns.RecordDeleteParams{
		ZoneID: cfapi.F(zoneID),
	})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete DNS record (id=%s): %w", recordID, err)
	}

	return nil
}

// buildRecordBody constructs the appropriate RecordNewParamsBodyUnion for the
// given record type. Only A and AAAA are supported.
func buildRecordBody(record DNSRecordResult) (dns.RecordNewParamsBodyUnion, error) {
	switch record.Type {
	case recordTypeA:
		return dns.ARecordParam{
			Name:    cfapi.F(record.Name),
			Type:    cfapi.F(dns.ARecordTypeA),
			Content: cfapi.F(record.Content),
			TTL:     cfapi.F(dns.TTL(record.TTL)),
			Proxied: cfapi.F(record.Proxied),
		}, nil
	case recordTypeAAAA:
		return dns.AAAARecordParam{
			Name:    cfapi.F(record.Name),
			Type:    cfapi.F(dns.AAAARecordTypeAAAA),
			Content: cfapi.F(record.Content),
			TTL:     cfapi.F(dns.TTL(record.TTL)),
			Proxied: cfapi.F(record.Proxied),
		}, nil
	default:
		return nil, fmt.Errorf("unsupported record type %q: only A and AAAA are supported", record.Type)
	}
}

// buildUpdateRecordBody constructs the appropriate RecordUpdateParamsBodyUnion
// for the given record type. Only A and AAAA are supported.
func buildUpdateRecordBody(record DNSRecordResult) (dns.RecordUpdateParamsBodyUnion, error) {
	switch record.Type {
	case recordTypeA:
		return dns.ARecordParam{
			Name:    cfapi.F(record.Name),
			Type:    cfapi.F(dns.ARecordTypeA),
			Content: cfapi.F(record.Content),
			TTL:     cfapi.F(dns.TTL(record.TTL)),
			Proxied: cfapi.F(record.Proxied),
		}, nil
	case recordTypeAAAA:
		return dns.AAAARecordParam{
			Name:    cfapi.F(record.Name),
			Type:    cfapi.F(dns.AAAARecordTypeAAAA),
			Content: cfapi.F(record.Content),
			TTL:     cfapi.F(dns.TTL(record.TTL)),
			Proxied: cfapi.F(record.Proxied),
		}, nil
	default:
		return nil, fmt.Errorf("unsupported record type %q: only A and AAAA are supported", record.Type)
	}
}

package route53

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	"github.com/aws/aws-sdk-go-v2/service/route53/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/opsforge/cfupdater/pkg/dnsprovider"
)

// MinTTL is the smallest TTL this provider writes. Route 53 has no
// "automatic" TTL, so dnsprovider.TTLAuto is mapped to DefaultTTL.
const (
	MinTTL     = 60
	DefaultTTL = 300
)

// Provider implements the Route 53 DNS provider. Credentials come from the
// ambient AWS chain (env, shared config, instance role).
type Provider struct {
	client Route53API

	mu      sync.Mutex
	zoneIDs map[string]string
}

// NewProvider creates a Route 53 provider using the default AWS configuration.
func NewProvider(ctx context.Context) (*Provider, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}
	return NewProviderWithClient(route53.NewFromConfig(cfg)), nil
}

// NewProviderWithClient creates a provider with an injected client.
// Used by tests to substitute a mock.
func NewProviderWithClient(client Route53API) *Provider {
	return &Provider{
		client:  client,
		zoneIDs: make(map[string]string),
	}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "route53"
}

// NormalizeTTL returns the TTL Route 53 stores for a configured value.
// TTLAuto maps to DefaultTTL; anything below MinTTL is raised to it.
func (p *Provider) NormalizeTTL(ttl int) int {
	return effectiveTTL(ttl)
}

// CurrentRecord returns the live record for name/type in the zone, or nil
// when it does not exist.
func (p *Provider) CurrentRecord(ctx context.Context, zone, name, recordType string) (*dnsprovider.Record, error) {
	tracer := otel.Tracer("cfupdater")
	ctx, span := tracer.Start(ctx, "route53.CurrentRecord")
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

	rrset, err := p.findRecordSet(ctx, zoneID, name, recordType)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if rrset == nil {
		return nil, nil
	}

	content := ""
	if len(rrset.ResourceRecords) > 0 {
		content = aws.ToString(rrset.ResourceRecords[0].Value)
	}

	return &dnsprovider.Record{
		// Route 53 has no per-record ID; the (name, type) pair is the key
		Name:    trimDot(aws.ToString(rrset.Name)),
		Type:    string(rrset.Type),
		Content: content,
		TTL:     int(aws.ToInt64(rrset.TTL)),
	}, nil
}

// UpsertRecord writes the record through a ChangeResourceRecordSets UPSERT
// when the live state differs.
func (p *Provider) UpsertRecord(ctx context.Context, zone string, record dnsprovider.Record) (dnsprovider.Outcome, error) {
	tracer := otel.Tracer("cfupdater")
	ctx, span := tracer.Start(ctx, "route53.UpsertRecord")
	defer span.End()

	span.SetAttributes(
		attribute.String("zone_name", zone),
		attribute.String("record_name", record.Name),
		attribute.String("record_type", record.Type),
		attribute.String("record_content", record.Content),
	)

	if record.Proxied {
		err := fmt.Errorf("route53 does not support proxied records: set proxied: false or use the cloudflare provider")
		span.RecordError(err)
		return "", err
	}

	zoneID, err := p.zoneID(ctx, zone)
	if err != nil {
		span.RecordError(err)
		return "", err
	}

	ttl := effectiveTTL(record.TTL)
	existing, err := p.CurrentRecord(ctx, zone, record.Name, record.Type)
	if err != nil {
		span.RecordError(err)
		return "", err
	}

	outcome := dnsprovider.OutcomeCreated
	if existing != nil {
		if existing.Content == record.Content && existing.TTL == ttl {
			span.SetAttributes(attribute.String("outcome", string(dnsprovider.OutcomeUnchanged)))
			return dnsprovider.OutcomeUnchanged, nil
		}
		outcome = dnsprovider.OutcomeUpdated
	}

	if err := p.change(ctx, zoneID, types.ChangeActionUpsert, record.Name, record.Type, record.Content, ttl); err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to upsert record %s (%s): %w", record.Name, record.Type, err)
	}

	span.SetAttributes(attribute.String("outcome", string(outcome)))
	return outcome, nil
}

// DeleteRecord removes the record if it exists. Deleting an absent record
// is not an error.
func (p *Provider) DeleteRecord(ctx context.Context, zone, name, recordType string) error {
	tracer := otel.Tracer("cfupdater")
	ctx, span := tracer.Start(ctx, "route53.DeleteRecord")
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

	// A DELETE change must match the live record set exactly
	existing, err := p.CurrentRecord(ctx, zone, name, recordType)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if existing == nil {
		return nil
	}

	if err := p.change(ctx, zoneID, types.ChangeActionDelete, existing.Name, existing.Type, existing.Content, existing.TTL); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete record %s (%s): %w", name, recordType, err)
	}
	return nil
}

// zoneID resolves and caches the hosted zone ID for a zone name
func (p *Provider) zoneID(ctx context.Context, zone string) (string, error) {
	p.mu.Lock()
	if id, ok := p.zoneIDs[zone]; ok {
		p.mu.Unlock()
		return id, nil
	}
	p.mu.Unlock()

	out, err := p.client.ListHostedZonesByName(ctx, &route53.ListHostedZonesByNameInput{
		DNSName:  aws.String(zone),
		MaxItems: aws.Int32(1),
	})
	if err != nil {
		return "", fmt.Errorf("failed to list hosted zones: %w", err)
	}

	for _, hz := range out.HostedZones {
		if trimDot(aws.ToString(hz.Name)) == zone {
			// The API returns IDs as /hostedzone/Z123...
			id := strings.TrimPrefix(aws.ToString(hz.Id), "/hostedzone/")

			p.mu.Lock()
			p.zoneIDs[zone] = id
			p.mu.Unlock()
			return id, nil
		}
	}

	return "", fmt.Errorf("no hosted zone found for %q: check the zone exists and your AWS credentials can read it", zone)
}

// findRecordSet returns the record set matching name and type, or nil
func (p *Provider) findRecordSet(ctx context.Context, zoneID, name, recordType string) (*types.ResourceRecordSet, error) {
	out, err := p.client.ListResourceRecordSets(ctx, &route53.ListResourceRecordSetsInput{
		HostedZoneId:    aws.String(zoneID),
		StartRecordName: aws.String(name),
		StartRecordType: types.RRType(recordType),
		MaxItems:        aws.Int32(1),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list record sets: %w", err)
	}

	// Listing starts at the requested name but continues past it when the
	// record does not exist, so the answer still needs an exact check.
	for _, rrset := range out.ResourceRecordSets {
		if trimDot(aws.ToString(rrset.Name)) == name && string(rrset.Type) == recordType {
			return &rrset, nil
		}
	}
	return nil, nil
}

func (p *Provider) change(ctx context.Context, zoneID string, action types.ChangeAction, name, recordType, content string, ttl int) error {
	_, err := p.client.ChangeResourceRecordSets(ctx, &route53.ChangeResourceRecordSetsInput{
		HostedZoneId: aws.String(zoneID),
		ChangeBatch: &types.ChangeBatch{
			Changes: []types.Change{
				{
					Action: action,
					ResourceRecordSet: &types.ResourceRecordSet{
						Name: aws.String(name),
						Type: types.RRType(recordType),
						TTL:  aws.Int64(int64(ttl)),
						ResourceRecords: []types.ResourceRecord{
							{Value: aws.String(content)},
						},
					},
				},
			},
		},
	})
	return err
}

// effectiveTTL maps the cross-provider TTL convention onto Route 53 limits
func effectiveTTL(ttl int) int {
	if ttl <= dnsprovider.TTLAuto {
		return DefaultTTL
	}
	if ttl < MinTTL {
		return MinTTL
	}
	return ttl
}

// trimDot strips the trailing dot Route 53 puts on fully qualified names
func trimDot(name string) string {
	return strings.TrimSuffix(name, ".")
}

package cloudflare

import (
	"context"
	"fmt"
	"testing"

	"github.com/opsforge/cfupdater/pkg/dnsprovider"
)

// mockClient is a mock implementation of CloudflareClient for testing
type mockClient struct {
	ResolveZoneIDFunc   func(ctx context.Context, zoneName string) (string, error)
	ListDNSRecordsFunc  func(ctx context.Context, zoneID, name, recordType string) ([]DNSRecordResult, error)
	CreateDNSRecordFunc func(ctx context.Context, zoneID string, record DNSRecordResult) (string, error)
	UpdateDNSRecordFunc func(ctx context.Context, zoneID, recordID string, record DNSRecordResult) error
	DeleteDNSRecordFunc func(ctx context.Context, zoneID, recordID string) error

	resolveCalls int
	createCalls  int
	updateCalls  int
	deleteCalls  int
}

func (m *mockClient) ResolveZoneID(ctx context.Context, zoneName string) (string, error) {
	m.resolveCalls++
	if m.ResolveZoneIDFunc != nil {
		return m.ResolveZoneIDFunc(ctx, zoneName)
	}
	return "", fmt.Errorf("ResolveZoneIDFunc not implemented")
}

func (m *mockClient) ListDNSRecords(ctx context.Context, zoneID, name, recordType string) ([]DNSRecordResult, error) {
	if m.ListDNSRecordsFunc != nil {
		return m.ListDNSRecordsFunc(ctx, zoneID, name, recordType)
	}
	return nil, fmt.Errorf("ListDNSRecordsFunc not implemented")
}

func (m *mockClient) CreateDNSRecord(ctx context.Context, zoneID string, record DNSRecordResult) (string, error) {
	m.createCalls++
	if m.CreateDNSRecordFunc != nil {
		return m.CreateDNSRecordFunc(ctx, zoneID, record)
	}
	return "", fmt.Errorf("CreateDNSRecordFunc not implemented")
}

func (m *mockClient) UpdateDNSRecord(ctx context.Context, zoneID, recordID string, record DNSRecordResult) error {
	m.updateCalls++
	if m.UpdateDNSRecordFunc != nil {
		return m.UpdateDNSRecordFunc(ctx, zoneID, recordID, record)
	}
	return fmt.Errorf("UpdateDNSRecordFunc not implemented")
}

func (m *mockClient) DeleteDNSRecord(ctx context.Context, zoneID, recordID string) error {
	m.deleteCalls++
	if m.DeleteDNSRecordFunc != nil {
		return m.DeleteDNSRecordFunc(ctx, zoneID, recordID)
	}
	return fmt.Errorf("DeleteDNSRecordFunc not implemented")
}

func resolveExampleZone(ctx context.Context, zoneName string) (string, error) {
	if zoneName == "example.com" {
		return "zone123", nil
	}
	return "", fmt.Errorf("no zone found for %q", zoneName)
}

func TestProviderName(t *testing.T) {
	provider := NewProviderWithClient(&mockClient{})
	if provider.Name() != "cloudflare" {
		t.Fatalf("Name() = %q, want %q", provider.Name(), "cloudflare")
	}
}

func TestNormalizeTTL(t *testing.T) {
	provider := NewProviderWithClient(&mockClient{})

	tests := []struct {
		ttl  int
		want int
	}{
		{dnsprovider.TTLAuto, dnsprovider.TTLAuto},
		{0, dnsprovider.TTLAuto},
		{300, 300},
	}

	for _, tt := range tests {
		if got := provider.NormalizeTTL(tt.ttl); got != tt.want {
			t.Errorf("NormalizeTTL(%d) = %d, want %d", tt.ttl, got, tt.want)
		}
	}
}

func TestNewProviderRequiresToken(t *testing.T) {
	if _, err := NewProvider(""); err == nil {
		t.Fatal("NewProvider() should fail for an empty token")
	}
}

func TestCurrentRecord(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		records []DNSRecordResult
		want    *dnsprovider.Record
	}{
		{
			name: "record exists",
			records: []DNSRecordResult{
				{ID: "rec1", Name: "home.example.com", Type: "A", Content: "203.0.113.7", TTL: 1},
			},
			want: &dnsprovider.Record{ID: "rec1", Name: "home.example.com", Type: "A", Content: "203.0.113.7", TTL: 1},
		},
		{
			name:    "record absent",
			records: nil,
			want:    nil,
		},
		{
			name: "type mismatch filtered out",
			records: []DNSRecordResult{
				{ID: "rec2", Name: "home.example.com", Type: "AAAA", Content: "2001:db8::7", TTL: 1},
			},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &mockClient{
				ResolveZoneIDFunc: resolveExampleZone,
				ListDNSRecordsFunc: func(ctx context.Context, zoneID, name, recordType string) ([]DNSRecordResult, error) {
					if zoneID != "zone123" {
						t.Errorf("ListDNSRecords got zoneID %q, want zone123", zoneID)
					}
					return tt.records, nil
				},
			}
			provider := NewProviderWithClient(client)

			got, err := provider.CurrentRecord(ctx, "example.com", "home.example.com", "A")
			if err != nil {
				t.Fatalf("CurrentRecord() failed: %v", err)
			}
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("CurrentRecord() = %v, want %v", got, tt.want)
			}
			if got != nil && *got != *tt.want {
				t.Fatalf("CurrentRecord() = %+v, want %+v", *got, *tt.want)
			}
		})
	}
}

func TestUpsertRecordCreates(t *testing.T) {
	ctx := context.Background()

	client := &mockClient{
		ResolveZoneIDFunc: resolveExampleZone,
		ListDNSRecordsFunc: func(ctx context.Context, zoneID, name, recordType string) ([]DNSRecordResult, error) {
			return nil, nil
		},
		CreateDNSRecordFunc: func(ctx context.Context, zoneID string, record DNSRecordResult) (string, error) {
			if record.Content != "203.0.113.7" || record.Type != "A" {
				t.Errorf("CreateDNSRecord got %+v", record)
			}
			return "rec-new", nil
		},
	}
	provider := NewProviderWithClient(client)

	outcome, err := provider.UpsertRecord(ctx, "example.com", dnsprovider.Desired("home.example.com", "A", "203.0.113.7", 1, false))
	if err != nil {
		t.Fatalf("UpsertRecord() failed: %v", err)
	}
	if outcome != dnsprovider.OutcomeCreated {
		t.Errorf("UpsertRecord() outcome = %q, want %q", outcome, dnsprovider.OutcomeCreated)
	}
	if client.createCalls != 1 || client.updateCalls != 0 {
		t.Errorf("create/update calls = %d/%d, want 1/0", client.createCalls, client.updateCalls)
	}
}

func TestUpsertRecordUpdates(t *testing.T) {
	ctx := context.Background()

	client := &mockClient{
		ResolveZoneIDFunc: resolveExampleZone,
		ListDNSRecordsFunc: func(ctx context.Context, zoneID, name, recordType string) ([]DNSRecordResult, error) {
			return []DNSRecordResult{
				{ID: "rec1", Name: "home.example.com", Type: "A", Content: "198.51.100.1", TTL: 1},
			}, nil
		},
		UpdateDNSRecordFunc: func(ctx context.Context, zoneID, recordID string, record DNSRecordResult) error {
			if recordID != "rec1" {
				t.Errorf("UpdateDNSRecord got recordID %q, want rec1", recordID)
			}
			if record.Content != "203.0.113.7" {
				t.Errorf("UpdateDNSRecord got content %q, want 203.0.113.7", record.Content)
			}
			return nil
		},
	}
	provider := NewProviderWithClient(client)

	outcome, err := provider.UpsertRecord(ctx, "example.com", dnsprovider.Desired("home.example.com", "A", "203.0.113.7", 1, false))
	if err != nil {
		t.Fatalf("UpsertRecord() failed: %v", err)
	}
	if outcome != dnsprovider.OutcomeUpdated {
		t.Errorf("UpsertRecord() outcome = %q, want %q", outcome, dnsprovider.OutcomeUpdated)
	}
}

func TestUpsertRecordUnchanged(t *testing.T) {
	ctx := context.Background()

	client := &mockClient{
		ResolveZoneIDFunc: resolveExampleZone,
		ListDNSRecordsFunc: func(ctx context.Context, zoneID, name, recordType string) ([]DNSRecordResult, error) {
			return []DNSRecordResult{
				{ID: "rec1", Name: "home.example.com", Type: "A", Content: "203.0.113.7", TTL: 1},
			}, nil
		},
	}
	provider := NewProviderWithClient(client)

	outcome, err := provider.UpsertRecord(ctx, "example.com", dnsprovider.Desired("home.example.com", "A", "203.0.113.7", 1, false))
	if err != nil {
		t.Fatalf("UpsertRecord() failed: %v", err)
	}
	if outcome != dnsprovider.OutcomeUnchanged {
		t.Errorf("UpsertRecord() outcome = %q, want %q", outcome, dnsprovider.OutcomeUnchanged)
	}
	if client.createCalls != 0 || client.updateCalls != 0 {
		t.Errorf("create/update calls = %d/%d, want 0/0", client.createCalls, client.updateCalls)
	}
}

func TestUpsertRecordProxiedDrift(t *testing.T) {
	ctx := context.Background()

	// Same content but proxy status flipped out-of-band: must rewrite
	client := &mockClient{
		ResolveZoneIDFunc: resolveExampleZone,
		ListDNSRecordsFunc: func(ctx context.Context, zoneID, name, recordType string) ([]DNSRecordResult, error) {
			return []DNSRecordResult{
				{ID: "rec1", Name: "home.example.com", Type: "A", Content: "203.0.113.7", TTL: 1, Proxied: true},
			}, nil
		},
		UpdateDNSRecordFunc: func(ctx context.Context, zoneID, recordID string, record DNSRecordResult) error {
			return nil
		},
	}
	provider := NewProviderWithClient(client)

	outcome, err := provider.UpsertRecord(ctx, "example.com", dnsprovider.Desired("home.example.com", "A", "203.0.113.7", 1, false))
	if err != nil {
		t.Fatalf("UpsertRecord() failed: %v", err)
	}
	if outcome != dnsprovider.OutcomeUpdated {
		t.Errorf("UpsertRecord() outcome = %q, want %q", outcome, dnsprovider.OutcomeUpdated)
	}
}

func TestDeleteRecord(t *testing.T) {
	ctx := context.Background()

	client := &mockClient{
		ResolveZoneIDFunc: resolveExampleZone,
		ListDNSRecordsFunc: func(ctx context.Context, zoneID, name, recordType string) ([]DNSRecordResult, error) {
			return []DNSRecordResult{
				{ID: "rec1", Name: "home.example.com", Type: "A", Content: "203.0.113.7", TTL: 1},
			}, nil
		},
		DeleteDNSRecordFunc: func(ctx context.Context, zoneID, recordID string) error {
			if recordID != "rec1" {
				t.Errorf("DeleteDNSRecord got recordID %q, want rec1", recordID)
			}
			return nil
		},
	}
	provider := NewProviderWithClient(client)

	if err := provider.DeleteRecord(ctx, "example.com", "home.example.com", "A"); err != nil {
		t.Fatalf("DeleteRecord() failed: %v", err)
	}
	if client.deleteCalls != 1 {
		t.Errorf("delete calls = %d, want 1", client.deleteCalls)
	}
}

func TestDeleteRecordAbsentIsIdempotent(t *testing.T) {
	ctx := context.Background()

	client := &mockClient{
		ResolveZoneIDFunc: resolveExampleZone,
		ListDNSRecordsFunc: func(ctx context.Context, zoneID, name, recordType string) ([]DNSRecordResult, error) {
			return nil, nil
		},
	}
	provider := NewProviderWithClient(client)

	if err := provider.DeleteRecord(ctx, "example.com", "home.example.com", "A"); err != nil {
		t.Fatalf("DeleteRecord() should succeed for an absent record: %v", err)
	}
	if client.deleteCalls != 0 {
		t.Errorf("delete calls = %d, want 0", client.deleteCalls)
	}
}

func TestZoneIDCached(t *testing.T) {
	ctx := context.Background()

	client := &mockClient{
		ResolveZoneIDFunc: resolveExampleZone,
		ListDNSRecordsFunc: func(ctx context.Context, zoneID, name, recordType string) ([]DNSRecordResult, error) {
			return nil, nil
		},
	}
	provider := NewProviderWithClient(client)

	for range 3 {
		if _, err := provider.CurrentRecord(ctx, "example.com", "home.example.com", "A"); err != nil {
			t.Fatalf("CurrentRecord() failed: %v", err)
		}
	}
	if client.resolveCalls != 1 {
		t.Errorf("ResolveZoneID called %d times, want 1 (cached)", client.resolveCalls)
	}
}

func TestUnknownZone(t *testing.T) {
	ctx := context.Background()

	client := &mockClient{ResolveZoneIDFunc: resolveExampleZone}
	provider := NewProviderWithClient(client)

	if _, err := provider.CurrentRecord(ctx, "other.net", "x.other.net", "A"); err == nil {
		t.Fatal("CurrentRecord() should fail for an unknown zone")
	}
}

package dnsprovider

import (
	"context"
	"fmt"
)

// TTLAuto asks the provider to pick the TTL (Cloudflare's "automatic").
// Providers without that concept substitute their own minimum.
const TTLAuto = 1

// Record is the provider-independent view of a DNS record
type Record struct {
	// ID is the provider's identifier for the record; empty for records
	// that have not been created yet
	ID string

	// Name is the fully qualified record name (home.example.com)
	Name string

	// Type is the record type (A, AAAA)
	Type string

	// Content is the record value, an IP address for A/AAAA records
	Content string

	// TTL in seconds, or TTLAuto
	TTL int

	// Proxied routes traffic through the provider's proxy where supported
	Proxied bool
}

// Outcome reports what an upsert did
type Outcome string

const (
	// OutcomeCreated means no record existed and one was created
	OutcomeCreated Outcome = "created"

	// OutcomeUpdated means an existing record's content was rewritten
	OutcomeUpdated Outcome = "updated"

	// OutcomeUnchanged means the live record already matched
	OutcomeUnchanged Outcome = "unchanged"
)

// Provider is the interface every DNS backend implements. Implementations
// are safe for use from a single update loop; they resolve the zone by name
// on each call and may cache the lookup.
type Provider interface {
	// Name returns the provider name (cloudflare, route53)
	Name() string

	// CurrentRecord returns the live record matching zone, name and type,
	// or nil (with a nil error) when no such record exists. When several
	// records share the name, the one matching the type wins.
	CurrentRecord(ctx context.Context, zone, name, recordType string) (*Record, error)

	// UpsertRecord creates the record if absent, rewrites it if its content
	// differs, and leaves it alone otherwise.
	UpsertRecord(ctx context.Context, zone string, record Record) (Outcome, error)

	// NormalizeTTL maps a configured TTL onto the value the backend
	// actually stores, so desired records compare cleanly against live
	// ones. Backends without TTLAuto substitute their own default here.
	NormalizeTTL(ttl int) int

	// DeleteRecord removes the record. Idempotent - deleting a record that
	// is already gone succeeds.
	DeleteRecord(ctx context.Context, zone, name, recordType string) error
}

// Desired builds the record the updater wants live, normalizing the TTL
func Desired(name, recordType, content string, ttl int, proxied bool) Record {
	if ttl <= 0 {
		ttl = TTLAuto
	}
	return Record{
		Name:    name,
		Type:    recordType,
		Content: content,
		TTL:     ttl,
		Proxied: proxied,
	}
}

// Matches reports whether the live record already carries the desired
// content. TTL and proxy status count as drift too; ID does not.
func (r Record) Matches(desired Record) bool {
	return r.Name == desired.Name &&
		r.Type == desired.Type &&
		r.Content == desired.Content &&
		r.TTL == desired.TTL &&
		r.Proxied == desired.Proxied
}

func (r Record) String() string {
	return fmt.Sprintf("%s %s %s (ttl=%d, proxied=%t)", r.Name, r.Type, r.Content, r.TTL, r.Proxied)
}

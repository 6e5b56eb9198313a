// Package ipsource detects the machine's current public IP address.
// Several HTTP sources are supported; the updater walks them in order and
// takes the first answer that parses as an address of the wanted family.
package ipsource

import (
	"context"
	"fmt"
	"net/http"
	"net/netip"
	"time"
)

// Family selects which address family a lookup must return
type Family string

const (
	FamilyIPv4 Family = "ipv4"
	FamilyIPv6 Family = "ipv6"
)

// FamilyForRecordType maps a DNS record type to the address family it carries
func FamilyForRecordType(recordType string) (Family, error) {
	switch recordType {
	case "A":
		return FamilyIPv4, nil
	case "AAAA":
		return FamilyIPv6, nil
	default:
		return "", fmt.Errorf("record type %q has no address family", recordType)
	}
}

// Matches reports whether the address belongs to this family
func (f Family) Matches(addr netip.Addr) bool {
	switch f {
	case FamilyIPv4:
		return addr.Is4() || addr.Is4In6()
	case FamilyIPv6:
		return addr.Is6() && !addr.Is4In6()
	default:
		return false
	}
}

// Source detects the current public IP address
type Source interface {
	// Name identifies the source in config and logs (cloudflare-meta, ipify, ...)
	Name() string

	// Lookup returns the public IP address as seen by this source
	Lookup(ctx context.Context) (netip.Addr, error)
}

// DefaultSourceOrder is used when the config does not list sources
var DefaultSourceOrder = []string{"cloudflare-meta", "cloudflare-trace", "ipify"}

// New creates a source by its config name
func New(name string) (Source, error) {
	switch name {
	case "cloudflare-meta":
		return NewMetaSource(), nil
	case "cloudflare-trace":
		return NewTraceSource(), nil
	case "ipify":
		return NewIpifySource(), nil
	default:
		return nil, fmt.Errorf("unknown IP source %q, known sources: %v", name, DefaultSourceOrder)
	}
}

// NewFromNames builds sources for the given config names, or the default
// order when names is empty.
func NewFromNames(names []string) ([]Source, error) {
	if len(names) == 0 {
		names = DefaultSourceOrder
	}
	sources := make([]Source, 0, len(names))
	for _, name := range names {
		src, err := New(name)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return sources, nil
}

// httpClient returns the client to use for a source, defaulting when unset
func httpClient(c *http.Client) *http.Client {
	if c != nil {
		return c
	}
	return &http.Client{Timeout: 30 * time.Second}
}

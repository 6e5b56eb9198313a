package ipsource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/netip"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// DefaultIpifyURL answers with the caller's IP as plain text. The api64
// host answers over both address families.
const DefaultIpifyURL = "https://api64.ipify.org"

// IpifySource reads the public IP from ipify
type IpifySource struct {
	URL        string
	HTTPClient *http.Client
}

// NewIpifySource creates an IpifySource against the production endpoint
func NewIpifySource() *IpifySource {
	return &IpifySource{URL: DefaultIpifyURL}
}

// Name implements Source
func (s *IpifySource) Name() string {
	return "ipify"
}

// Lookup implements Source
func (s *IpifySource) Lookup(ctx context.Context) (netip.Addr, error) {
	tracer := otel.Tracer("cfupdater")
	ctx, span := tracer.Start(ctx, "ipsource.IpifySource.Lookup")
	defer span.End()

	span.SetAttributes(attribute.String("url", s.URL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		span.RecordError(err)
		return netip.Addr{}, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := httpClient(s.HTTPClient).Do(req)
	if err != nil {
		span.RecordError(err)
		return netip.Addr{}, fmt.Errorf("failed to query %s: %w", s.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("unexpected status %d from %s", resp.StatusCode, s.URL)
		span.RecordError(err)
		return netip.Addr{}, err
	}

	// Body is the bare address; cap the read in case the endpoint misbehaves.
	body, err := io.ReadAll(io.LimitReader(resp.Body, 128))
	if err != nil {
		span.RecordError(err)
		return netip.Addr{}, fmt.Errorf("failed to read response from %s: %w", s.URL, err)
	}

	addr, err := netip.ParseAddr(strings.TrimSpace(string(body)))
	if err != nil {
		span.RecordError(err)
		return netip.Addr{}, fmt.Errorf("response from %s is not an IP address: %w", s.URL, err)
	}

	span.SetAttributes(attribute.String("ip", addr.String()))
	return addr, nil
}

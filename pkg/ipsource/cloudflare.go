package ipsource

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/netip"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const (
	// DefaultMetaURL is Cloudflare's speed test metadata endpoint, which
	// reports the caller's IP in the clientIp field.
	DefaultMetaURL = "https://speed.cloudflare.com/meta"

	// DefaultTraceURL is the cdn-cgi/trace endpoint served from Cloudflare's
	// own edge, which reports the caller's IP in an ip= line.
	DefaultTraceURL = "https://one.one.one.one/cdn-cgi/trace"
)

// MetaSource reads the public IP from Cloudflare's speed test metadata
type MetaSource struct {
	URL        string
	HTTPClient *http.Client
}

// NewMetaSource creates a MetaSource against the production endpoint
func NewMetaSource() *MetaSource {
	return &MetaSource{URL: DefaultMetaURL}
}

// Name implements Source
func (s *MetaSource) Name() string {
	return "cloudflare-meta"
}

// Lookup implements Source
func (s *MetaSource) Lookup(ctx context.Context) (netip.Addr, error) {
	tracer := otel.Tracer("cfupdater")
	ctx, span := tracer.Start(ctx, "ipsource.MetaSource.Lookup")
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

	var meta struct {
		ClientIP string `json:"clientIp"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		span.RecordError(err)
		return netip.Addr{}, fmt.Errorf("failed to decode metadata response: %w", err)
	}

	addr, err := netip.ParseAddr(meta.ClientIP)
	if err != nil {
		span.RecordError(err)
		return netip.Addr{}, fmt.Errorf("metadata response has no usable clientIp: %w", err)
	}

	span.SetAttributes(attribute.String("ip", addr.String()))
	return addr, nil
}

// TraceSource reads the public IP from a cdn-cgi/trace endpoint
type TraceSource struct {
	URL        string
	HTTPClient *http.Client
}

// NewTraceSource creates a TraceSource against the production endpoint
func NewTraceSource() *TraceSource {
	return &TraceSource{URL: DefaultTraceURL}
}

// Name implements Source
func (s *TraceSource) Name() string {
	return "cloudflare-trace"
}

// Lookup implements Source
func (s *TraceSource) Lookup(ctx context.Context) (netip.Addr, error) {
	tracer := otel.Tracer("cfupdater")
	ctx, span := tracer.Start(ctx, "ipsource.TraceSource.Lookup")
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

	// The trace body is key=value lines; only the ip line matters here.
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		value, found := strings.CutPrefix(line, "ip=")
		if !found {
			continue
		}
		addr, err := netip.ParseAddr(strings.TrimSpace(value))
		if err != nil {
			span.RecordError(err)
			return netip.Addr{}, fmt.Errorf("trace response has unusable ip line %q: %w", line, err)
		}
		span.SetAttributes(attribute.String("ip", addr.String()))
		return addr, nil
	}
	if err := scanner.Err(); err != nil {
		span.RecordError(err)
		return netip.Addr{}, fmt.Errorf("failed to read trace response: %w", err)
	}

	err = fmt.Errorf("trace response from %s has no ip line", s.URL)
	span.RecordError(err)
	return netip.Addr{}, err
}

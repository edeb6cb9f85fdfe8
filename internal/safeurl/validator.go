// Package safeurl validates analysis targets and guards against SSRF.
package safeurl

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

// InvalidURLError reports a malformed or unsupported target URL.
type InvalidURLError struct {
	Reason string
}

func (e *InvalidURLError) Error() string {
	return fmt.Sprintf("invalid url: %s", e.Reason)
}

// UnsafeTargetError reports a URL resolving to a blocked address.
type UnsafeTargetError struct {
	Host string
	IP   string
}

func (e *UnsafeTargetError) Error() string {
	return fmt.Sprintf("unsafe target: %s resolves to %s", e.Host, e.IP)
}

// Validator classifies target URLs before any network request is made.
type Validator struct {
	resolver *net.Resolver
	denied   []*net.IPNet
	logger   *zap.Logger
}

// New creates a Validator with the given deny-list of CIDR networks.
func New(deniedCIDRs []string, logger *zap.Logger) (*Validator, error) {
	denied := make([]*net.IPNet, 0, len(deniedCIDRs))
	for _, cidr := range deniedCIDRs {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			return nil, fmt.Errorf("invalid denied network %q: %w", cidr, err)
		}
		denied = append(denied, network)
	}
	return &Validator{
		resolver: net.DefaultResolver,
		denied:   denied,
		logger:   logger,
	}, nil
}

// Validate trims and validates a raw URL, resolving its host and rejecting
// targets that point at private or otherwise blocked address space.
//
// A hostname that fails to resolve is allowed through: unknown is not
// provably unsafe, and slow or split-horizon DNS must not produce false
// positives. Only a successful resolution to a blocked address rejects.
func (v *Validator) Validate(ctx context.Context, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", &InvalidURLError{Reason: "url cannot be empty"}
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "", &InvalidURLError{Reason: err.Error()}
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", &InvalidURLError{Reason: fmt.Sprintf("unsupported scheme %q", parsed.Scheme)}
	}
	if parsed.Hostname() == "" {
		return "", &InvalidURLError{Reason: "url must have a host"}
	}

	host := parsed.Hostname()

	// A literal IP skips DNS entirely.
	if ip := net.ParseIP(host); ip != nil {
		if !v.isSafeIP(ip) {
			return "", &UnsafeTargetError{Host: host, IP: ip.String()}
		}
		return raw, nil
	}

	ips, err := v.resolver.LookupIP(ctx, "ip", host)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		v.logger.Debug("hostname did not resolve, allowing target",
			zap.String("host", host), zap.Error(err))
		return raw, nil
	}

	for _, ip := range ips {
		if !v.isSafeIP(ip) {
			return "", &UnsafeTargetError{Host: host, IP: ip.String()}
		}
	}

	return raw, nil
}

// isSafeIP classifies a resolved address.
func (v *Validator) isSafeIP(ip net.IP) bool {
	if ip.IsPrivate() || ip.IsLoopback() || ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsMulticast() {
		return false
	}
	for _, network := range v.denied {
		if network.Contains(ip) {
			return false
		}
	}
	return true
}

// Domain extracts the host of a validated URL without a leading www prefix.
func Domain(validated string) (string, error) {
	parsed, err := url.Parse(validated)
	if err != nil || parsed.Host == "" {
		return "", &InvalidURLError{Reason: fmt.Sprintf("cannot extract domain from %q", validated)}
	}
	return strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www."), nil
}

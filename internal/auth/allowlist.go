package auth

import (
	"net/netip"
	"strings"
)

// allowlist holds the parsed CIDR sets for anonymous-but-trusted access.
// Parsing is lenient: malformed entries are skipped, and bare addresses are
// widened to single-host prefixes.
type allowlist struct {
	networks       []netip.Prefix
	trustedProxies []netip.Prefix
	enabled        bool
}

func newAllowlist(rawAllowlist, rawProxies string, enabled, configured, production bool) *allowlist {
	// An implicit default allowlist must never apply in production: when
	// running there without an explicitly configured list, the allowlist
	// path is disabled outright.
	if production && !configured {
		enabled = false
	}
	return &allowlist{
		networks:       parseNetworks(rawAllowlist),
		trustedProxies: parseNetworks(rawProxies),
		enabled:        enabled,
	}
}

// Allows reports whether the resolved client address is a member of at
// least one configured network.
func (a *allowlist) Allows(peerAddr, forwardedFor string) bool {
	if !a.enabled || len(a.networks) == 0 {
		return false
	}
	client, ok := a.clientIP(peerAddr, forwardedFor)
	if !ok {
		return false
	}
	return contains(a.networks, client)
}

// clientIP resolves the real client address: when the immediate peer is a
// trusted proxy, the first hop of X-Forwarded-For wins, otherwise the peer
// address is used directly.
func (a *allowlist) clientIP(peerAddr, forwardedFor string) (netip.Addr, bool) {
	peer, ok := parseAddr(peerAddr)
	if !ok {
		return netip.Addr{}, false
	}
	if len(a.trustedProxies) > 0 && contains(a.trustedProxies, peer) && forwardedFor != "" {
		firstHop, _, _ := strings.Cut(forwardedFor, ",")
		if forwarded, ok := parseAddr(firstHop); ok {
			return forwarded, true
		}
	}
	return peer, true
}

func parseNetworks(raw string) []netip.Prefix {
	var networks []netip.Prefix
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if prefix, err := netip.ParsePrefix(item); err == nil {
			networks = append(networks, prefix.Masked())
			continue
		}
		if addr, ok := parseAddr(item); ok {
			networks = append(networks, netip.PrefixFrom(addr, addr.BitLen()))
		}
	}
	return networks
}

// parseAddr accepts bare addresses, bracketed IPv6, and host:port forms.
func parseAddr(raw string) (netip.Addr, bool) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return netip.Addr{}, false
	}
	if strings.HasPrefix(candidate, "[") {
		if end := strings.Index(candidate, "]"); end > 0 {
			candidate = candidate[1:end]
		}
	}
	if addr, err := netip.ParseAddr(candidate); err == nil {
		return addr.Unmap(), true
	}
	if host, _, found := strings.Cut(candidate, ":"); found && strings.Contains(host, ".") {
		if addr, err := netip.ParseAddr(host); err == nil {
			return addr.Unmap(), true
		}
	}
	return netip.Addr{}, false
}

func contains(networks []netip.Prefix, addr netip.Addr) bool {
	for _, network := range networks {
		if network.Contains(addr) {
			return true
		}
	}
	return false
}

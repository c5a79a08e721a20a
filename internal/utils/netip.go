package utils

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// HostOnly strips an optional port from "host:port", "[v6]:port" or "host".
func HostOnly(s string) string {
	s = strings.TrimSpace(s)
	if h, _, err := net.SplitHostPort(s); err == nil {
		return h
	}
	return strings.Trim(s, "[]")
}

// parseAddr reads an address with an optional port. IPv4-mapped IPv6
// addresses are unmapped so they match IPv4 rules.
func parseAddr(s string) (netip.Addr, bool) {
	addr, err := netip.ParseAddr(HostOnly(s))
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}

// forwardedAddr returns the first valid address a trusted proxy reported.
// CF-Connecting-IP wins over the left-most X-Forwarded-For entry, which
// wins over X-Real-IP.
func forwardedAddr(h http.Header) (netip.Addr, bool) {
	if addr, ok := parseAddr(h.Get("CF-Connecting-IP")); ok {
		return addr, true
	}
	if xff := h.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if addr, ok := parseAddr(first); ok {
			return addr, true
		}
	}
	return parseAddr(h.Get("X-Real-IP"))
}

// ClientIP returns the address sign-in throttling and the ops guard key on.
// Proxy headers are only read when trustProxy is set and are ignored when
// they don't hold an address. Returns "" when nothing usable is found.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if addr, ok := forwardedAddr(r.Header); ok {
			return addr.String()
		}
	}
	if addr, ok := parseAddr(r.RemoteAddr); ok {
		return addr.String()
	}
	return ""
}

// AllowList holds the addresses and CIDRs allowed to reach the ops endpoints.
type AllowList struct {
	prefixes []netip.Prefix
}

// ParseAllowList reads entries like "10.0.0.0/8" or "192.168.1.4".
// Blank and malformed entries are returned in rejected.
func ParseAllowList(entries []string) (list AllowList, rejected []string) {
	for _, raw := range entries {
		s := strings.TrimSpace(raw)
		if s == "" {
			continue
		}
		if p, err := netip.ParsePrefix(s); err == nil {
			list.prefixes = append(list.prefixes, p.Masked())
			continue
		}
		if addr, err := netip.ParseAddr(s); err == nil {
			addr = addr.Unmap()
			list.prefixes = append(list.prefixes, netip.PrefixFrom(addr, addr.BitLen()))
			continue
		}
		rejected = append(rejected, s)
	}
	return list, rejected
}

func (l AllowList) Empty() bool { return len(l.prefixes) == 0 }

// Contains reports whether ip falls in one of the listed ranges.
func (l AllowList) Contains(ip string) bool {
	addr, ok := parseAddr(ip)
	if !ok {
		return false
	}
	for _, p := range l.prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

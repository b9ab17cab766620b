package badbehavior

import (
	"fmt"
	"net/netip"
	"strings"
)

// Settings tunes a classification. It is read-only for the lifetime of a
// Classify call and carries no hidden state.
type Settings struct {
	// Strict enables the rules with Rule.Strict set. Those rules also catch a
	// handful of legitimate corporate proxies.
	Strict bool
	// OffsiteForms permits POSTs whose Referer points at another host.
	OffsiteForms bool
	// Whitelist short-circuits classification to Allow.
	Whitelist Whitelist
}

// Whitelist lists clients that are never screened.
type Whitelist struct {
	Prefixes   []netip.Prefix
	UserAgents []string
	URLs       []string
}

// ParseWhitelist builds a Whitelist from operator-supplied strings. Entries
// in ips may be single addresses or CIDR blocks.
func ParseWhitelist(ips, userAgents, urls []string) (Whitelist, error) {
	var wl Whitelist
	for _, raw := range ips {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if strings.Contains(raw, "/") {
			p, err := netip.ParsePrefix(raw)
			if err != nil {
				return Whitelist{}, fmt.Errorf("whitelist ip %q: %w", raw, err)
			}
			wl.Prefixes = append(wl.Prefixes, p.Masked())
			continue
		}
		a, err := netip.ParseAddr(raw)
		if err != nil {
			return Whitelist{}, fmt.Errorf("whitelist ip %q: %w", raw, err)
		}
		a = a.Unmap()
		wl.Prefixes = append(wl.Prefixes, netip.PrefixFrom(a, a.BitLen()))
	}
	for _, ua := range userAgents {
		if ua = strings.TrimSpace(ua); ua != "" {
			wl.UserAgents = append(wl.UserAgents, ua)
		}
	}
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			wl.URLs = append(wl.URLs, u)
		}
	}
	return wl, nil
}

// IsZero reports whether the whitelist is empty.
func (w Whitelist) IsZero() bool {
	return len(w.Prefixes) == 0 && len(w.UserAgents) == 0 && len(w.URLs) == 0
}

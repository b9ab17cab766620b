package badbehavior

import (
	"net/netip"
	"strings"
)

// Crawler is a search engine whose robots are allowed through unchecked
// once their source address has been verified.
type Crawler struct {
	Name string
	// Tokens are User-Agent substrings (case-insensitive) that claim the
	// crawler's identity.
	Tokens []string
	// Domain is the reverse DNS suffix a genuine crawler resolves to.
	Domain string
	// Prefixes are the published address blocks.
	Prefixes []netip.Prefix
}

// Claims reports whether ua claims to be this crawler.
func (c Crawler) Claims(ua string) bool {
	for _, t := range c.Tokens {
		if containsFold(ua, t) {
			return true
		}
	}
	return false
}

// Published reports whether a lies inside one of the published blocks.
func (c Crawler) Published(a netip.Addr) bool {
	for _, p := range c.Prefixes {
		if p.Contains(a) {
			return true
		}
	}
	return false
}

func prefixes(cidrs ...string) []netip.Prefix {
	out := make([]netip.Prefix, len(cidrs))
	for i, c := range cidrs {
		out[i] = netip.MustParsePrefix(c)
	}
	return out
}

// DefaultCrawlers returns the built-in crawler table.
func DefaultCrawlers() []Crawler {
	return []Crawler{
		{
			Name:   "google",
			Tokens: []string{"Googlebot", "Mediapartners-Google", "Google Web Preview"},
			Domain: "googlebot.com",
			Prefixes: prefixes(
				"66.249.64.0/19", "64.233.160.0/19", "72.14.192.0/18", "203.208.32.0/19",
				"74.125.0.0/16", "216.239.32.0/19", "209.85.128.0/17",
			),
		},
		{
			Name:   "msn",
			Tokens: []string{"bingbot", "msnbot", "MS Search"},
			Domain: "search.msn.com",
			Prefixes: prefixes(
				"207.46.0.0/16", "65.52.0.0/14", "207.68.128.0/18", "207.68.192.0/20",
				"64.4.0.0/18", "157.54.0.0/15", "157.60.0.0/16", "157.56.0.0/14",
				"131.253.21.0/24", "131.253.22.0/23", "131.253.24.0/21", "131.253.32.0/20",
				"40.76.0.0/14",
			),
		},
		{
			Name:   "yahoo",
			Tokens: []string{"Yahoo! Slurp", "Yahoo! SearchMonkey"},
			Domain: "crawl.yahoo.net",
			Prefixes: prefixes(
				"202.160.176.0/20", "67.195.0.0/16", "203.209.252.0/24", "72.30.0.0/16",
				"98.136.0.0/14", "74.6.0.0/16",
			),
		},
		{
			Name:   "baidu",
			Tokens: []string{"Baiduspider"},
			Domain: "crawl.baidu.com",
			Prefixes: prefixes(
				"119.63.192.0/21", "123.125.71.0/24", "180.76.0.0/16", "220.181.0.0/16",
			),
		},
	}
}

// crawlerRule allows a claimed crawler whose address is published, or
// failing that, confirmed by v. Anything else is NoOpinion: a mismatch is
// never a block on its own, since published ranges go stale.
//
// IPv6 clients are not checked at all and yield NoOpinion. None of the
// crawlers publish IPv6 ranges here, so genuine IPv6 crawlers are screened
// like any other client.
func crawlerRule(c Crawler, v CrawlerVerifier) Rule {
	return Rule{
		Name:   c.Name,
		Family: FamilySearchEngine,
		Check: func(_ Settings, r *Request) Verdict {
			if !c.Claims(r.UserAgent()) {
				return NoOpinion()
			}
			a := r.Addr()
			if !a.IsValid() || !a.Is4() {
				return NoOpinion()
			}
			if c.Published(a) {
				return Allow()
			}
			if v != nil && c.Domain != "" && v.Verify(a.String(), c.Domain) {
				return Allow()
			}
			return NoOpinion()
		},
	}
}

func searchEngineRules(crawlers []Crawler, v CrawlerVerifier) []Rule {
	out := make([]Rule, 0, len(crawlers))
	for _, c := range crawlers {
		out = append(out, crawlerRule(c, v))
	}
	return out
}

// IsCrawlerAllow reports whether v was produced by the search engine family.
func IsCrawlerAllow(v Verdict) bool {
	return v.IsAllow() && strings.HasPrefix(v.Rule(), string(FamilySearchEngine)+".")
}

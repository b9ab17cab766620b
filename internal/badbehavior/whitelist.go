package badbehavior

import "strings"

func whitelistRules() []Rule {
	return []Rule{
		{Name: "ip", Family: FamilyWhitelist, Check: whitelistIP},
		{Name: "user_agent", Family: FamilyWhitelist, Check: whitelistUserAgent},
		{Name: "url", Family: FamilyWhitelist, Check: whitelistURL},
	}
}

func whitelistIP(s Settings, r *Request) Verdict {
	a := r.Addr()
	if !a.IsValid() {
		return NoOpinion()
	}
	for _, p := range s.Whitelist.Prefixes {
		if p.Contains(a) {
			return Allow()
		}
	}
	return NoOpinion()
}

func whitelistUserAgent(s Settings, r *Request) Verdict {
	ua := r.UserAgent()
	if ua == "" {
		return NoOpinion()
	}
	for _, w := range s.Whitelist.UserAgents {
		if ua == w {
			return Allow()
		}
	}
	return NoOpinion()
}

// whitelistURL matches on the path component so query strings cannot be
// used to slip past a listed endpoint.
func whitelistURL(s Settings, r *Request) Verdict {
	path := r.URI()
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	for _, w := range s.Whitelist.URLs {
		if strings.HasPrefix(path, w) {
			return Allow()
		}
	}
	return NoOpinion()
}

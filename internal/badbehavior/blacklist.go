package badbehavior

// blacklistRules matches the User-Agent and URI against sigs. Exact,
// prefix, substring and regex matching run in that order.
func blacklistRules(sigs *Signatures) []Rule {
	ua := func(name string, match func(string) bool) Rule {
		return Rule{
			Name:   name,
			Family: FamilyBlacklist,
			Check: func(_ Settings, r *Request) Verdict {
				if u := r.UserAgent(); u != "" && match(u) {
					return Block(ReasonUserAgentBlacklist)
				}
				return NoOpinion()
			},
		}
	}
	return []Rule{
		ua("user_agent_exact", sigs.MatchExact),
		ua("user_agent_prefix", sigs.MatchPrefix),
		ua("user_agent_contains", sigs.MatchContains),
		ua("user_agent_regex", sigs.MatchRegex),
		{
			Name:   "url",
			Family: FamilyBlacklist,
			Check: func(_ Settings, r *Request) Verdict {
				if sigs.MatchURL(r.URI()) {
					return Block(ReasonURLBlacklist)
				}
				return NoOpinion()
			},
		},
	}
}

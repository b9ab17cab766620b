package badbehavior

// Classifier runs the registered rule families in a fixed order. It holds
// no mutable state after construction and is safe for concurrent use.
type Classifier struct {
	verifier CrawlerVerifier
	sigs     *Signatures
	crawlers []Crawler
	families map[Family][]Rule
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithVerifier injects the crawler identity check used when a claimed
// crawler's address is outside the published blocks.
func WithVerifier(v CrawlerVerifier) Option { return func(c *Classifier) { c.verifier = v } }

// WithSignatures replaces the embedded denylists.
func WithSignatures(s *Signatures) Option { return func(c *Classifier) { c.sigs = s } }

// WithCrawlers replaces the built-in crawler table.
func WithCrawlers(cs []Crawler) Option { return func(c *Classifier) { c.crawlers = cs } }

// New builds a Classifier.
func New(opts ...Option) *Classifier {
	c := &Classifier{}
	for _, o := range opts {
		o(c)
	}
	if c.sigs == nil {
		c.sigs = DefaultSignatures()
	}
	if c.crawlers == nil {
		c.crawlers = DefaultCrawlers()
	}
	c.families = map[Family][]Rule{
		FamilyWhitelist:    whitelistRules(),
		FamilySearchEngine: searchEngineRules(c.crawlers, c.verifier),
		FamilyBlacklist:    blacklistRules(c.sigs),
		FamilyBrowser:      browserRules(),
		FamilyGeneric:      genericRules(),
		FamilyPost:         postRules(),
	}
	return c
}

// Classify returns the first Allow or Block produced by the rule families,
// or Allow when every rule abstains. The returned verdict names the rule
// that decided it; a default Allow has an empty rule name.
func (c *Classifier) Classify(s Settings, r *Request) Verdict {
	for _, f := range familyOrder {
		if v := c.Evaluate(f, s, r); !v.IsNoOpinion() {
			return v
		}
	}
	return Allow()
}

// Evaluate runs a single family and returns its first decisive verdict.
// The whitelist family is skipped when s has no whitelist, and the POST
// family for any other method.
func (c *Classifier) Evaluate(f Family, s Settings, r *Request) Verdict {
	if r == nil {
		return NoOpinion()
	}
	switch f {
	case FamilyWhitelist:
		if s.Whitelist.IsZero() {
			return NoOpinion()
		}
	case FamilyPost:
		if !r.IsPost() {
			return NoOpinion()
		}
	}
	for _, rule := range c.families[f] {
		if !rule.enabled(s) {
			continue
		}
		if v := rule.Check(s, r); !v.IsNoOpinion() {
			return v.withRule(rule.qualified())
		}
	}
	return NoOpinion()
}

// Rules lists every registered rule in evaluation order.
func (c *Classifier) Rules() []RuleInfo {
	var out []RuleInfo
	for _, f := range familyOrder {
		for _, r := range c.families[f] {
			out = append(out, r.info())
		}
	}
	return out
}

// StrictRules lists the rules that only run in strict mode.
func (c *Classifier) StrictRules() []RuleInfo {
	var out []RuleInfo
	for _, ri := range c.Rules() {
		if ri.Strict {
			out = append(out, ri)
		}
	}
	return out
}

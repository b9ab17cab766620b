package badbehavior

import "strings"

// Family groups rules that are evaluated together.
type Family string

const (
	FamilyWhitelist    Family = "whitelist"
	FamilySearchEngine Family = "searchengine"
	FamilyBlacklist    Family = "blacklist"
	FamilyBrowser      Family = "browser"
	FamilyGeneric      Family = "generic"
	FamilyPost         Family = "post"
)

// familyOrder is the fixed evaluation order of a classification.
var familyOrder = []Family{
	FamilyWhitelist,
	FamilySearchEngine,
	FamilyBlacklist,
	FamilyBrowser,
	FamilyGeneric,
	FamilyPost,
}

// Families returns the evaluation order.
func Families() []Family {
	return append([]Family(nil), familyOrder...)
}

// Rule is a named predicate over a request. Check must not mutate its
// arguments and must not perform I/O other than through an injected
// CrawlerVerifier.
type Rule struct {
	Name   string
	Family Family
	// Strict rules only run when Settings.Strict is set.
	Strict bool
	Check  func(Settings, *Request) Verdict
}

// RuleInfo describes a registered rule for auditing.
type RuleInfo struct {
	Name   string `json:"name"`
	Family Family `json:"family"`
	Strict bool   `json:"strict"`
}

func (r Rule) info() RuleInfo {
	return RuleInfo{Name: r.Name, Family: r.Family, Strict: r.Strict}
}

// enabled reports whether r participates under s.
func (r Rule) enabled(s Settings) bool {
	return !r.Strict || s.Strict
}

// qualified returns "family.name".
func (r Rule) qualified() string {
	return string(r.Family) + "." + r.Name
}

// hasWord reports whether word appears in s as a whole word, ignoring case.
// Word characters are letters, digits and underscore.
func hasWord(s, word string) bool {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !(r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z')
	})
	for _, f := range fields {
		if strings.EqualFold(f, word) {
			return true
		}
	}
	return false
}

// tokens splits a comma separated header value into trimmed lower-case
// tokens.
func tokens(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			out = append(out, p)
		}
	}
	return out
}

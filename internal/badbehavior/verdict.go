// Package badbehavior classifies inbound HTTP requests as legitimate or
// abusive by running an ordered battery of header, user-agent, URI and
// payload checks against an immutable request snapshot.
//
// The package is pure: rules read only the Settings value and the Request
// they are handed. The single exception is crawler identity verification,
// which is performed through the injected CrawlerVerifier capability so
// that tests can substitute a fake.
package badbehavior

import "fmt"

// Kind discriminates the three possible rule outcomes.
type Kind uint8

const (
	// KindNoOpinion lets the next rule decide.
	KindNoOpinion Kind = iota
	// KindAllow passes the request and stops evaluation.
	KindAllow
	// KindBlock rejects the request with a reason code.
	KindBlock
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindAllow:
		return "allow"
	case KindBlock:
		return "block"
	default:
		return "no_opinion"
	}
}

// Verdict is the outcome of a rule or of a whole classification.
//
// The zero value is NoOpinion. A Block verdict always carries a non-empty
// reason code; Allow and NoOpinion never do.
type Verdict struct {
	kind   Kind
	reason string
	rule   string
}

// NoOpinion returns the verdict that defers to later rules.
func NoOpinion() Verdict { return Verdict{} }

// Allow returns an explicit pass.
func Allow() Verdict { return Verdict{kind: KindAllow} }

// Block returns a rejection carrying reason. It panics when reason is not a
// well-formed reason code, since codes are compile-time constants.
func Block(reason string) Verdict {
	if !validReason(reason) {
		panic(fmt.Sprintf("badbehavior: invalid reason code %q", reason))
	}
	return Verdict{kind: KindBlock, reason: reason}
}

// Kind reports the verdict kind.
func (v Verdict) Kind() Kind { return v.kind }

// IsAllow reports whether v is an explicit pass.
func (v Verdict) IsAllow() bool { return v.kind == KindAllow }

// IsBlock reports whether v rejects the request.
func (v Verdict) IsBlock() bool { return v.kind == KindBlock }

// IsNoOpinion reports whether v defers to later rules.
func (v Verdict) IsNoOpinion() bool { return v.kind == KindNoOpinion }

// Reason returns the reason code for Block verdicts and "" otherwise.
func (v Verdict) Reason() string { return v.reason }

// Rule names the rule that produced the verdict, when known.
func (v Verdict) Rule() string { return v.rule }

func (v Verdict) withRule(name string) Verdict {
	v.rule = name
	return v
}

// String implements fmt.Stringer.
func (v Verdict) String() string {
	if v.kind == KindBlock {
		return "block(" + v.reason + ")"
	}
	return v.kind.String()
}

// validReason reports whether s is an 8 character lowercase hex string.
func validReason(s string) bool {
	if len(s) != 8 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

package badbehavior

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed signatures.yaml
var defaultSignaturesYAML []byte

// signatureFile mirrors the YAML layout of a signature list.
type signatureFile struct {
	UserAgents struct {
		Exact    []string `yaml:"exact"`
		Prefix   []string `yaml:"prefix"`
		Contains []string `yaml:"contains"`
		Regex    []string `yaml:"regex"`
	} `yaml:"user_agents"`
	URLs struct {
		Contains []string `yaml:"contains"`
	} `yaml:"urls"`
}

// Signatures holds the compiled denylists used by the blacklist family.
type Signatures struct {
	exact    map[string]struct{}
	prefix   []string
	contains []string
	regex    []*regexp.Regexp
	urls     []string // lower-cased
}

// DefaultSignatures parses the embedded signature list.
func DefaultSignatures() *Signatures {
	s, err := ParseSignatures(defaultSignaturesYAML)
	if err != nil {
		panic(fmt.Sprintf("badbehavior: embedded signatures: %v", err))
	}
	return s
}

// LoadSignatures returns the embedded list merged with the optional
// operator file at path. An empty path yields the embedded list alone.
func LoadSignatures(path string) (*Signatures, error) {
	base := DefaultSignatures()
	if strings.TrimSpace(path) == "" {
		return base, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read signatures: %w", err)
	}
	extra, err := ParseSignatures(raw)
	if err != nil {
		return nil, fmt.Errorf("parse signatures %s: %w", path, err)
	}
	return base.merge(extra), nil
}

// ParseSignatures compiles a YAML signature list.
func ParseSignatures(raw []byte) (*Signatures, error) {
	var f signatureFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, err
	}
	s := &Signatures{exact: make(map[string]struct{}, len(f.UserAgents.Exact))}
	for _, e := range f.UserAgents.Exact {
		s.exact[e] = struct{}{}
	}
	s.prefix = nonEmpty(f.UserAgents.Prefix)
	s.contains = nonEmpty(f.UserAgents.Contains)
	for _, pat := range nonEmpty(f.UserAgents.Regex) {
		re, err := regexp.Compile(pat)
		if err != nil {
			return nil, fmt.Errorf("user agent regex %q: %w", pat, err)
		}
		s.regex = append(s.regex, re)
	}
	for _, u := range nonEmpty(f.URLs.Contains) {
		s.urls = append(s.urls, strings.ToLower(u))
	}
	return s, nil
}

func (s *Signatures) merge(o *Signatures) *Signatures {
	out := &Signatures{exact: make(map[string]struct{}, len(s.exact)+len(o.exact))}
	for k := range s.exact {
		out.exact[k] = struct{}{}
	}
	for k := range o.exact {
		out.exact[k] = struct{}{}
	}
	out.prefix = append(append([]string(nil), s.prefix...), o.prefix...)
	out.contains = append(append([]string(nil), s.contains...), o.contains...)
	out.regex = append(append([]*regexp.Regexp(nil), s.regex...), o.regex...)
	out.urls = append(append([]string(nil), s.urls...), o.urls...)
	return out
}

// MatchExact reports whether ua equals a listed signature.
func (s *Signatures) MatchExact(ua string) bool {
	_, ok := s.exact[ua]
	return ok
}

// MatchPrefix reports whether ua starts with a listed signature.
func (s *Signatures) MatchPrefix(ua string) bool {
	for _, p := range s.prefix {
		if strings.HasPrefix(ua, p) {
			return true
		}
	}
	return false
}

// MatchContains reports whether ua contains a listed signature.
func (s *Signatures) MatchContains(ua string) bool {
	for _, c := range s.contains {
		if strings.Contains(ua, c) {
			return true
		}
	}
	return false
}

// MatchRegex reports whether ua matches a listed pattern.
func (s *Signatures) MatchRegex(ua string) bool {
	for _, re := range s.regex {
		if re.MatchString(ua) {
			return true
		}
	}
	return false
}

// MatchURL reports whether uri contains a listed pattern, ignoring case.
func (s *Signatures) MatchURL(uri string) bool {
	low := strings.ToLower(uri)
	for _, u := range s.urls {
		if strings.Contains(low, u) {
			return true
		}
	}
	return false
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

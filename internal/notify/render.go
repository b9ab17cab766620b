package notify

import (
	"bytes"
	"fmt"
	"text/template"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tbourn/forum-guard/internal/domain"
)

// Content is the rendered text of one delivery.
type Content struct {
	Subject string
	Body    string
	// Snippet is the one-line digest entry.
	Snippet string
}

// RenderData is exposed to templates.
type RenderData struct {
	Type      domain.MentionType
	Sender    string
	Recipient string
	Subject   string
	Link      string
}

// Renderer produces per-language content for a mention type.
type Renderer interface {
	Render(t domain.MentionType, lang string, data RenderData) (Content, error)
}

type templateSet struct {
	subject, body, snippet *template.Template
}

// TemplateRenderer renders the built-in catalogue, matching the member's
// language against the available translations and falling back to English
// per mention type.
type TemplateRenderer struct {
	matcher language.Matcher
	tags    []language.Tag
	sets    map[language.Tag]map[domain.MentionType]templateSet
}

// NewTemplateRenderer parses the built-in catalogue.
func NewTemplateRenderer() (*TemplateRenderer, error) {
	r := &TemplateRenderer{sets: make(map[language.Tag]map[domain.MentionType]templateSet)}
	// English first: it is the matcher's fallback.
	r.tags = []language.Tag{language.English}
	for tag := range catalogue {
		if tag != language.English {
			r.tags = append(r.tags, tag)
		}
	}
	for tag, entries := range catalogue {
		byType := make(map[domain.MentionType]templateSet, len(entries))
		for mt, e := range entries {
			name := tag.String() + "/" + string(mt)
			set, err := parseEntry(name, e)
			if err != nil {
				return nil, err
			}
			byType[mt] = set
		}
		r.sets[tag] = byType
	}
	r.matcher = language.NewMatcher(r.tags)
	return r, nil
}

func parseEntry(name string, e entry) (templateSet, error) {
	var set templateSet
	var err error
	if set.subject, err = template.New(name + "/subject").Parse(e.subject); err != nil {
		return set, fmt.Errorf("template %s subject: %w", name, err)
	}
	if set.body, err = template.New(name + "/body").Parse(e.body); err != nil {
		return set, fmt.Errorf("template %s body: %w", name, err)
	}
	if set.snippet, err = template.New(name + "/snippet").Parse(e.snippet); err != nil {
		return set, fmt.Errorf("template %s snippet: %w", name, err)
	}
	return set, nil
}

// Match returns the catalogue language used for lang.
func (r *TemplateRenderer) Match(lang string) language.Tag {
	tag, _ := language.MatchStrings(r.matcher, lang)
	base, _ := tag.Base()
	for _, t := range r.tags {
		if b, _ := t.Base(); b == base {
			return t
		}
	}
	return language.English
}

// Render implements Renderer.
func (r *TemplateRenderer) Render(t domain.MentionType, lang string, data RenderData) (Content, error) {
	tag := r.Match(lang)
	set, ok := r.sets[tag][t]
	if !ok {
		tag = language.English
		if set, ok = r.sets[language.English][t]; !ok {
			return Content{}, fmt.Errorf("no template for mention type %q", t)
		}
	}
	data.Type = t
	data.Subject = cases.Title(tag, cases.NoLower).String(data.Subject)

	var c Content
	var err error
	if c.Subject, err = execute(set.subject, data); err != nil {
		return Content{}, err
	}
	if c.Body, err = execute(set.body, data); err != nil {
		return Content{}, err
	}
	if c.Snippet, err = execute(set.snippet, data); err != nil {
		return Content{}, err
	}
	return c, nil
}

func execute(t *template.Template, data RenderData) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}

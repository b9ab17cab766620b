package badbehavior

import (
	"bytes"
	"io"
	"mime"
	"net/http"
	"net/netip"
	"net/textproto"
	"net/url"
	"strings"
)

// Headers is a case-insensitive header bag. Repeated header lines are merged
// into a single comma separated value, the way the header appears to a
// server that folds duplicates.
type Headers map[string]string

// NewHeaders canonicalizes and merges h.
func NewHeaders(h http.Header) Headers {
	out := make(Headers, len(h))
	for k, vv := range h {
		ck := textproto.CanonicalMIMEHeaderKey(k)
		merged := strings.Join(vv, ", ")
		if prev, ok := out[ck]; ok {
			merged = prev + ", " + merged
		}
		out[ck] = merged
	}
	return out
}

// Get returns the merged value for key, or "" when absent.
func (h Headers) Get(key string) string {
	return h[textproto.CanonicalMIMEHeaderKey(key)]
}

// Has reports whether key was sent, even with an empty value.
func (h Headers) Has(key string) bool {
	_, ok := h[textproto.CanonicalMIMEHeaderKey(key)]
	return ok
}

// Agent is the browser family a User-Agent claims to belong to.
type Agent string

const (
	AgentNone      Agent = ""
	AgentMSIE      Agent = "msie"
	AgentKonqueror Agent = "konqueror"
	AgentOpera     Agent = "opera"
	AgentSafari    Agent = "safari"
	AgentLynx      Agent = "lynx"
	AgentMozilla   Agent = "mozilla"
)

// detectAgent picks the first matching browser family in the order real
// user agents are known to overlap (Opera used to pose as MSIE, every
// WebKit browser mentions Safari, and almost everything starts with Mozilla).
func detectAgent(ua string) Agent {
	switch {
	case containsFold(ua, "; MSIE"):
		if containsFold(ua, "Opera") {
			return AgentOpera
		}
		return AgentMSIE
	case containsFold(ua, "Konqueror"):
		return AgentKonqueror
	case containsFold(ua, "Opera"):
		return AgentOpera
	case containsFold(ua, "Safari"):
		return AgentSafari
	case containsFold(ua, "Lynx"):
		return AgentLynx
	case strings.HasPrefix(strings.ToLower(ua), "mozilla"):
		return AgentMozilla
	}
	return AgentNone
}

// Snapshot carries the raw material a Request is built from.
type Snapshot struct {
	IP       string
	Method   string
	URI      string
	Protocol string
	Header   http.Header
	// Form holds the parsed entity for form-encoded bodies.
	Form url.Values
	// Body holds the raw entity for everything else.
	Body []byte
}

// Request is the immutable view of one inbound request at classification
// time. It is safe to share between goroutines.
type Request struct {
	ip       string
	addr     netip.Addr
	method   string
	uri      string
	protocol string
	headers  Headers
	form     url.Values
	body     []byte
	agent    Agent
}

// NewRequest builds a Request from s. Header and entity data are copied so
// later changes to s do not leak into the snapshot.
func NewRequest(s Snapshot) *Request {
	r := &Request{
		ip:       strings.TrimSpace(s.IP),
		method:   strings.ToUpper(strings.TrimSpace(s.Method)),
		uri:      s.URI,
		protocol: strings.ToUpper(strings.TrimSpace(s.Protocol)),
		headers:  NewHeaders(s.Header),
		form:     cloneValues(s.Form),
		body:     bytes.Clone(s.Body),
	}
	if a, err := netip.ParseAddr(r.ip); err == nil {
		r.addr = a.Unmap()
	}
	r.agent = detectAgent(r.headers.Get("User-Agent"))
	return r
}

// FromHTTP snapshots hr. clientIP is the already resolved client address
// (reverse proxies are the transport's concern). For POST requests up to
// maxBody bytes of the entity are read and then replayed to hr.Body so
// downstream handlers still see the full payload.
//
// The returned Request is never nil. When the entity cannot be read the
// snapshot carries headers only and the read error is returned alongside
// it; hr.Body keeps failing the same way for the handler.
func FromHTTP(hr *http.Request, clientIP string, maxBody int64) (*Request, error) {
	h := hr.Header.Clone()
	if h == nil {
		h = http.Header{}
	}
	// net/http lifts Host out of the header map.
	if hr.Host != "" && h.Get("Host") == "" {
		h.Set("Host", hr.Host)
	}

	s := Snapshot{
		IP:       clientIP,
		Method:   hr.Method,
		URI:      hr.URL.RequestURI(),
		Protocol: hr.Proto,
		Header:   h,
	}
	if hr.RequestURI != "" {
		s.URI = hr.RequestURI
	}

	if strings.EqualFold(hr.Method, http.MethodPost) && hr.Body != nil && hr.Body != http.NoBody {
		if maxBody <= 0 {
			maxBody = 1 << 20
		}
		buf, err := io.ReadAll(io.LimitReader(hr.Body, maxBody))
		hr.Body = readCloser{io.MultiReader(bytes.NewReader(buf), hr.Body), hr.Body}
		if err != nil {
			return NewRequest(s), err
		}

		mt, _, _ := mime.ParseMediaType(h.Get("Content-Type"))
		if mt == "application/x-www-form-urlencoded" {
			if form, err := url.ParseQuery(string(buf)); err == nil {
				s.Form = form
			}
		}
		if s.Form == nil {
			s.Body = buf
		}
	}
	return NewRequest(s), nil
}

type readCloser struct {
	io.Reader
	io.Closer
}

// IP returns the client address as given.
func (r *Request) IP() string { return r.ip }

// Addr returns the parsed client address; the zero Addr when unparsable.
func (r *Request) Addr() netip.Addr { return r.addr }

// Method returns the upper-cased request method.
func (r *Request) Method() string { return r.method }

// URI returns the raw request URI.
func (r *Request) URI() string { return r.uri }

// Protocol returns the server protocol, e.g. "HTTP/1.1".
func (r *Request) Protocol() string { return r.protocol }

// Header returns the merged value of a header, "" when absent.
func (r *Request) Header(key string) string { return r.headers.Get(key) }

// HasHeader reports whether a header was sent.
func (r *Request) HasHeader(key string) bool { return r.headers.Has(key) }

// HeaderMap returns a copy of the merged header bag.
func (r *Request) HeaderMap() map[string]string {
	out := make(map[string]string, len(r.headers))
	for k, v := range r.headers {
		out[k] = v
	}
	return out
}

// UserAgent is shorthand for Header("User-Agent").
func (r *Request) UserAgent() string { return r.headers.Get("User-Agent") }

// IsPost reports whether the method is POST.
func (r *Request) IsPost() bool { return r.method == http.MethodPost }

// Agent returns the browser family claimed by the User-Agent.
func (r *Request) Agent() Agent { return r.agent }

// IsBrowser reports whether the header shape claims a web browser.
func (r *Request) IsBrowser() bool { return r.agent != AgentNone }

// FormHas reports whether the parsed entity carries key.
func (r *Request) FormHas(key string) bool {
	_, ok := r.form[key]
	return ok
}

// FormKeys returns the parsed entity field names.
func (r *Request) FormKeys() []string {
	keys := make([]string, 0, len(r.form))
	for k := range r.form {
		keys = append(keys, k)
	}
	return keys
}

// Entity renders the request entity for logging.
func (r *Request) Entity() string {
	if len(r.form) > 0 {
		return r.form.Encode()
	}
	return string(r.body)
}

func cloneValues(v url.Values) url.Values {
	if v == nil {
		return nil
	}
	out := make(url.Values, len(v))
	for k, vv := range v {
		out[k] = append([]string(nil), vv...)
	}
	return out
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

package badbehavior

import (
	"net"
	"net/url"
	"strings"
)

// movableTypeRange is the exact Range header MovableType sends with pings.
const movableTypeRange = "bytes=0-99999"

var proxyHeaders = []string{"Via", "Max-Forwards", "X-Forwarded-For", "Client-Ip"}

func postRules() []Rule {
	return []Rule{
		{Name: "movabletype_range", Family: FamilyPost, Check: checkMovableType},
		{Name: "trackback_browser", Family: FamilyPost, Check: checkTrackbackBrowser},
		{Name: "trackback_proxy", Family: FamilyPost, Check: checkTrackbackProxy},
		{Name: "trackback_wordpress", Family: FamilyPost, Check: checkTrackbackWordPress},
		{Name: "bogus_form", Family: FamilyPost, Check: checkBogusForm},
		{Name: "offsite_referer", Family: FamilyPost, Check: checkOffsiteReferer},
	}
}

func isTrackback(r *Request) bool {
	return r.FormHas("title") && r.FormHas("url") && r.FormHas("blog_name")
}

func checkMovableType(_ Settings, r *Request) Verdict {
	if containsFold(r.UserAgent(), "movabletype") && r.Header("Range") != movableTypeRange {
		return Block(ReasonRangeOnPost)
	}
	return NoOpinion()
}

func checkTrackbackBrowser(_ Settings, r *Request) Verdict {
	if isTrackback(r) && r.IsBrowser() {
		return Block(ReasonBrowserTrackback)
	}
	return NoOpinion()
}

func checkTrackbackProxy(_ Settings, r *Request) Verdict {
	if !isTrackback(r) {
		return NoOpinion()
	}
	for _, h := range proxyHeaders {
		if r.HasHeader(h) {
			return Block(ReasonTrackbackViaProxy)
		}
	}
	return NoOpinion()
}

// WordPress always declares a charset on trackback pings.
func checkTrackbackWordPress(_ Settings, r *Request) Verdict {
	if isTrackback(r) && strings.Contains(r.UserAgent(), "WordPress/") &&
		!strings.Contains(r.Header("Content-Type"), "charset=") {
		return Block(ReasonFakeTrackback)
	}
	return NoOpinion()
}

func checkBogusForm(_ Settings, r *Request) Verdict {
	for _, k := range r.FormKeys() {
		if strings.Contains(k, "\tdocument.write") {
			return Block(ReasonMaliciousRequest)
		}
	}
	return NoOpinion()
}

func checkOffsiteReferer(s Settings, r *Request) Verdict {
	if s.OffsiteForms {
		return NoOpinion()
	}
	ref := r.Header("Referer")
	host := normalizeHost(r.Header("Host"))
	if ref == "" || host == "" {
		return NoOpinion()
	}
	u, err := url.Parse(ref)
	if err != nil || u.Host == "" {
		return Block(ReasonOffsiteReferer)
	}
	if normalizeHost(u.Host) != host {
		return Block(ReasonOffsiteReferer)
	}
	return NoOpinion()
}

// normalizeHost lower-cases h and strips any port and a leading "www.".
func normalizeHost(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	if host, _, err := net.SplitHostPort(h); err == nil {
		h = host
	}
	h = strings.Trim(h, "[]")
	return strings.TrimPrefix(h, "www.")
}

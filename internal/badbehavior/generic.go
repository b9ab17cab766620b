package badbehavior

import "strings"

// rangeZeroExempt lists User-Agent prefixes of tools that legitimately
// fetch from byte zero.
var rangeZeroExempt = []string{
	"MovableType",
	"URI::Fetch",
	"php-openid/",
	"facebookexternalhit",
}

var bannedProxies = []string{"pinappleproxy", "PCNETSERVER", "Invisiware"}

func genericRules() []Rule {
	return []Rule{
		{Name: "expect_http10", Family: FamilyGeneric, Check: checkExpectHTTP10},
		{Name: "pragma_http11", Family: FamilyGeneric, Strict: true, Check: checkPragmaHTTP11},
		{Name: "cookie_version", Family: FamilyGeneric, Check: checkCookieVersion},
		{Name: "post_user_agent", Family: FamilyGeneric, Check: checkPostUserAgent},
		{Name: "uri_fragment", Family: FamilyGeneric, Strict: true, Check: checkURIFragment},
		{Name: "uri_sql_declare", Family: FamilyGeneric, Check: checkURIDeclare},
		{Name: "range_zero", Family: FamilyGeneric, Check: checkRangeZero},
		{Name: "content_range", Family: FamilyGeneric, Check: checkContentRange},
		{Name: "banned_proxy", Family: FamilyGeneric, Check: checkBannedProxy},
		{Name: "te_connection", Family: FamilyGeneric, Strict: true, Check: checkTEConnection},
		{Name: "connection_tokens", Family: FamilyGeneric, Check: checkConnectionTokens},
		{Name: "keep_alive_format", Family: FamilyGeneric, Check: checkKeepAliveFormat},
		{Name: "honeypot_header", Family: FamilyGeneric, Check: checkHoneypotHeader},
		{Name: "proxy_connection", Family: FamilyGeneric, Strict: true, Check: checkProxyConnection},
		{Name: "referer", Family: FamilyGeneric, Check: checkReferer},
	}
}

func checkExpectHTTP10(_ Settings, r *Request) Verdict {
	if r.Protocol() == "HTTP/1.0" && containsFold(r.Header("Expect"), "100-continue") {
		return Block(ReasonExpectHTTP10)
	}
	return NoOpinion()
}

func checkPragmaHTTP11(_ Settings, r *Request) Verdict {
	if r.Protocol() == "HTTP/1.1" && containsFold(r.Header("Pragma"), "no-cache") && !r.HasHeader("Cache-Control") {
		return Block(ReasonPragmaNoCacheHTTP11)
	}
	return NoOpinion()
}

// Kindle devices send $Version=0 cookies without Cookie2.
func checkCookieVersion(_ Settings, r *Request) Verdict {
	if strings.Contains(r.Header("Cookie"), "$Version=0") && !r.HasHeader("Cookie2") &&
		!strings.Contains(r.UserAgent(), "Kindle/") {
		return Block(ReasonCookieVersion)
	}
	return NoOpinion()
}

func checkPostUserAgent(_ Settings, r *Request) Verdict {
	if r.IsPost() && strings.TrimSpace(r.UserAgent()) == "" {
		return Block(ReasonUserAgentMissing)
	}
	return NoOpinion()
}

func checkURIFragment(_ Settings, r *Request) Verdict {
	if strings.Contains(r.URI(), "#") {
		return Block(ReasonMaliciousRequest)
	}
	return NoOpinion()
}

func checkURIDeclare(_ Settings, r *Request) Verdict {
	if containsFold(r.URI(), ";DECLARE%20@") {
		return Block(ReasonMaliciousRequest)
	}
	return NoOpinion()
}

func checkRangeZero(_ Settings, r *Request) Verdict {
	if !strings.Contains(r.Header("Range"), "=0-") {
		return NoOpinion()
	}
	ua := r.UserAgent()
	for _, p := range rangeZeroExempt {
		if strings.HasPrefix(ua, p) {
			return NoOpinion()
		}
	}
	return Block(ReasonRangeZero)
}

func checkContentRange(_ Settings, r *Request) Verdict {
	if r.HasHeader("Content-Range") {
		return Block(ReasonRangeOnPost)
	}
	return NoOpinion()
}

func checkBannedProxy(_ Settings, r *Request) Verdict {
	via := r.Header("Via")
	if via == "" {
		return NoOpinion()
	}
	for _, p := range bannedProxies {
		if containsFold(via, p) {
			return Block(ReasonBannedProxy)
		}
	}
	return NoOpinion()
}

func checkTEConnection(_ Settings, r *Request) Verdict {
	if r.HasHeader("Te") && !hasWord(r.Header("Connection"), "TE") {
		return Block(ReasonTEWithoutConnection)
	}
	return NoOpinion()
}

// checkConnectionTokens rejects contradictory or repeated persistence
// tokens, e.g. "Keep-Alive, Close" or "close, close".
func checkConnectionTokens(_ Settings, r *Request) Verdict {
	var keepAlive, closes int
	for _, t := range tokens(r.Header("Connection")) {
		switch t {
		case "keep-alive":
			keepAlive++
		case "close":
			closes++
		}
	}
	if (keepAlive > 0 && closes > 0) || keepAlive > 1 || closes > 1 {
		return Block(ReasonConnectionInvalid)
	}
	return NoOpinion()
}

func checkKeepAliveFormat(_ Settings, r *Request) Verdict {
	if containsFold(r.Header("Connection"), "Keep-Alive: ") {
		return Block(ReasonKeepAliveFormat)
	}
	return NoOpinion()
}

func checkHoneypotHeader(_ Settings, r *Request) Verdict {
	if r.HasHeader("X-Aaaaaaaaaa") || r.HasHeader("X-Aaaaaaaaaaaa") {
		return Block(ReasonHoneypotHeader)
	}
	return NoOpinion()
}

func checkProxyConnection(_ Settings, r *Request) Verdict {
	if r.HasHeader("Proxy-Connection") {
		return Block(ReasonProxyConnection)
	}
	return NoOpinion()
}

func checkReferer(_ Settings, r *Request) Verdict {
	if !r.HasHeader("Referer") {
		return NoOpinion()
	}
	ref := strings.TrimSpace(r.Header("Referer"))
	if ref == "" {
		return Block(ReasonRefererBlank)
	}
	if !strings.Contains(ref, ":") {
		return Block(ReasonRefererCorrupt)
	}
	return NoOpinion()
}

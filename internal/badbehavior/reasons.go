package badbehavior

import (
	"net/http"
	"sort"
)

// Reason codes. They are opaque identifiers used for log correlation and
// must never change meaning once published.
const (
	ReasonAcceptMissing       = "17566707"
	ReasonUserAgentBlacklist  = "17f4e8c8"
	ReasonMSIEConnectionTE    = "2b90f772"
	ReasonPragmaNoCacheHTTP11 = "41feed15"
	ReasonRefererCorrupt      = "45b35e30"
	ReasonTEWithoutConnection = "582ec5e4"
	ReasonRefererBlank        = "69920ee5"
	ReasonCookieVersion       = "6c502ff1"
	ReasonRangeZero           = "7ad04a8a"
	ReasonRangeOnPost         = "7d12528e"
	ReasonBannedProxy         = "939a6fbb"
	ReasonURLBlacklist        = "96c0bd29"
	ReasonExpectHTTP10        = "a0105122"
	ReasonMSIEFakeOS          = "a1084bad"
	ReasonConnectionInvalid   = "a52f0448"
	ReasonKeepAliveFormat     = "b0924802"
	ReasonProxyConnection     = "b7830251"
	ReasonHoneypotHeader      = "b9cc1d86"
	ReasonOffsiteReferer      = "cd361abb"
	ReasonTrackbackViaProxy   = "d60b87c7"
	ReasonMaliciousRequest    = "dfd9b1ad"
	ReasonFakeTrackback       = "e3990b47"
	ReasonBrowserTrackback    = "f0dcb3fd"
	ReasonUserAgentMissing    = "f9f2b8b9"
)

// Explanation describes a reason code to operators and to the block page.
type Explanation struct {
	Code    string `json:"code"`
	Status  int    `json:"status"`
	Message string `json:"message"`
	Log     string `json:"log"`
}

const genericDenial = "You do not have permission to access this server. Before trying again, run anti-virus and anti-spyware software and remove any viruses and spyware from your computer."

var explanations = map[string]Explanation{
	ReasonAcceptMissing:       {Status: http.StatusForbidden, Message: "Your browser sent an incomplete request.", Log: "Required header 'Accept' missing"},
	ReasonUserAgentBlacklist:  {Status: http.StatusForbidden, Message: genericDenial, Log: "User-Agent was found on blacklist"},
	ReasonMSIEConnectionTE:    {Status: http.StatusForbidden, Message: genericDenial, Log: "Connection: TE present, not supported by MSIE"},
	ReasonPragmaNoCacheHTTP11: {Status: http.StatusBadRequest, Message: "Your proxy server sent an invalid request. Please contact the proxy server administrator to have this problem fixed.", Log: "Header 'Pragma' without 'Cache-Control' prohibited for HTTP/1.1 requests"},
	ReasonRefererCorrupt:      {Status: http.StatusBadRequest, Message: "An invalid request was received. This may be caused by a malfunctioning proxy server or browser privacy software.", Log: "Header 'Referer' is corrupt"},
	ReasonTEWithoutConnection: {Status: http.StatusBadRequest, Message: "An invalid request was received. This may be caused by a malfunctioning proxy server. Bypass the proxy server and connect directly, or contact your proxy server administrator.", Log: "Header 'TE' present but TE not specified in 'Connection' header"},
	ReasonRefererBlank:        {Status: http.StatusBadRequest, Message: "An invalid request was received. You claimed to be coming from a page on this site, but no page was given.", Log: "Header 'Referer' present but blank"},
	ReasonCookieVersion:       {Status: http.StatusForbidden, Message: "You do not have permission to access this server. Your user agent sent an obsolete cookie format.", Log: "Bot not fully compliant with RFC 2965"},
	ReasonRangeZero:           {Status: http.StatusBadRequest, Message: "An invalid request was received. This may be caused by a malfunctioning proxy server.", Log: "Prohibited header 'Range' present"},
	ReasonRangeOnPost:         {Status: http.StatusForbidden, Message: genericDenial, Log: "Prohibited header 'Range' or 'Content-Range' in request"},
	ReasonBannedProxy:         {Status: http.StatusForbidden, Message: genericDenial, Log: "Banned proxy server in use"},
	ReasonURLBlacklist:        {Status: http.StatusForbidden, Message: "An invalid request was received from your browser. This may be caused by a malfunctioning proxy server or browser privacy software.", Log: "URL pattern found on blacklist"},
	ReasonExpectHTTP10:        {Status: http.StatusExpectationFailed, Message: "The automated program you are using is not permitted to access this server. Please use a different program or a standard Web browser.", Log: "Header 'Expect' prohibited; resend without Expect"},
	ReasonMSIEFakeOS:          {Status: http.StatusForbidden, Message: genericDenial, Log: "User-Agent claimed to be MSIE, with invalid Windows version"},
	ReasonConnectionInvalid:   {Status: http.StatusBadRequest, Message: "An invalid request was received. This may be caused by a malfunctioning proxy server or browser privacy software.", Log: "Header 'Connection' contains invalid values"},
	ReasonKeepAliveFormat:     {Status: http.StatusBadRequest, Message: "An invalid request was received. This may be caused by a malfunctioning proxy server or browser privacy software.", Log: "Incorrect form of HTTP/1.0 Keep-Alive"},
	ReasonProxyConnection:     {Status: http.StatusBadRequest, Message: "An invalid request was received. This may be caused by a malfunctioning proxy server or browser privacy software.", Log: "Prohibited header 'Proxy-Connection' present"},
	ReasonHoneypotHeader:      {Status: http.StatusForbidden, Message: genericDenial, Log: "Prohibited header 'X-Aaaaaaaaaa' or 'X-Aaaaaaaaaaaa' present"},
	ReasonOffsiteReferer:      {Status: http.StatusForbidden, Message: "You do not have permission to access this server. Data may not be posted from offsite forms.", Log: "Referer did not point to a form on this site"},
	ReasonTrackbackViaProxy:   {Status: http.StatusForbidden, Message: genericDenial, Log: "Trackback received via proxy server"},
	ReasonMaliciousRequest:    {Status: http.StatusForbidden, Message: genericDenial, Log: "Request contained a malicious JavaScript or SQL injection attack"},
	ReasonFakeTrackback:       {Status: http.StatusForbidden, Message: genericDenial, Log: "Obviously fake trackback received"},
	ReasonBrowserTrackback:    {Status: http.StatusForbidden, Message: genericDenial, Log: "Web browser attempted to send a trackback"},
	ReasonUserAgentMissing:    {Status: http.StatusForbidden, Message: "You do not have permission to access this server. An invalid request was received.", Log: "A User-Agent is required but none was provided"},
}

// Explain looks up the catalogue entry for code. Unknown codes yield a
// generic 403 entry and ok=false.
func Explain(code string) (Explanation, bool) {
	e, ok := explanations[code]
	if !ok {
		return Explanation{Code: code, Status: http.StatusForbidden, Message: genericDenial, Log: "Unknown reason"}, false
	}
	e.Code = code
	return e, true
}

// Explanations returns the full catalogue ordered by code.
func Explanations() []Explanation {
	out := make([]Explanation, 0, len(explanations))
	for code := range explanations {
		e, _ := Explain(code)
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

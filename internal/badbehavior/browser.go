package badbehavior

import (
	"net/netip"
	"strings"
)

// yahooSeekerBlock is the range Yahoo's Konqueror-based crawlers come from.
var yahooSeekerBlock = netip.MustParsePrefix("209.73.160.0/19")

func browserRules() []Rule {
	return []Rule{
		{Name: "konqueror_accept", Family: FamilyBrowser, Check: checkKonqueror},
		{Name: "lynx_accept", Family: FamilyBrowser, Check: requireAccept(AgentLynx)},
		{Name: "opera_accept", Family: FamilyBrowser, Check: requireAccept(AgentOpera)},
		{Name: "safari_accept", Family: FamilyBrowser, Check: requireAccept(AgentSafari)},
		{Name: "mozilla_accept", Family: FamilyBrowser, Check: checkMozilla},
		{Name: "msie_accept", Family: FamilyBrowser, Check: requireAccept(AgentMSIE)},
		{Name: "msie_os", Family: FamilyBrowser, Check: checkMSIEOperatingSystem},
		{Name: "msie_connection_te", Family: FamilyBrowser, Check: checkMSIEConnectionTE},
	}
}

func requireAccept(a Agent) func(Settings, *Request) Verdict {
	return func(_ Settings, r *Request) Verdict {
		if r.Agent() == a && !r.HasHeader("Accept") {
			return Block(ReasonAcceptMissing)
		}
		return NoOpinion()
	}
}

func checkKonqueror(_ Settings, r *Request) Verdict {
	if r.Agent() != AgentKonqueror || r.HasHeader("Accept") {
		return NoOpinion()
	}
	ua := r.UserAgent()
	if (strings.Contains(ua, "YahooSeeker/CafeKelsa") || strings.Contains(ua, "Yahoo! SearchMonkey")) &&
		r.Addr().IsValid() && yahooSeekerBlock.Contains(r.Addr()) {
		return NoOpinion()
	}
	return Block(ReasonAcceptMissing)
}

// Google Desktop and the PS3 browser omit Accept.
func checkMozilla(_ Settings, r *Request) Verdict {
	if r.Agent() != AgentMozilla || r.HasHeader("Accept") {
		return NoOpinion()
	}
	ua := r.UserAgent()
	if strings.Contains(ua, "Google Desktop") || strings.Contains(ua, "PLAYSTATION 3") {
		return NoOpinion()
	}
	return Block(ReasonAcceptMissing)
}

// Real MSIE reports Windows NT version numbers; these spellings only
// appear in forged strings.
var msieFakeOS = []string{"Windows ME", "Windows XP", "Windows 2000", "Win32"}

func checkMSIEOperatingSystem(_ Settings, r *Request) Verdict {
	if r.Agent() != AgentMSIE {
		return NoOpinion()
	}
	ua := r.UserAgent()
	for _, fake := range msieFakeOS {
		if containsFold(ua, fake) {
			return Block(ReasonMSIEFakeOS)
		}
	}
	return NoOpinion()
}

// MSIE never sends a TE token in Connection. Akamai edge hops and IE Mobile
// are known to add one.
func checkMSIEConnectionTE(_ Settings, r *Request) Verdict {
	if r.Agent() != AgentMSIE {
		return NoOpinion()
	}
	if r.HasHeader("Akamai-Origin-Hop") || strings.Contains(r.UserAgent(), "IEMobile") {
		return NoOpinion()
	}
	if hasWord(r.Header("Connection"), "TE") {
		return Block(ReasonMSIEConnectionTE)
	}
	return NoOpinion()
}

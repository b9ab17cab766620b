package badbehavior

import (
	"context"
	"errors"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog"

	"github.com/tbourn/forum-guard/internal/cache"
)

// CrawlerVerifier confirms that ip belongs to a host under domain. It must
// return within a bounded time and report false on any failure.
type CrawlerVerifier interface {
	Verify(ip, domain string) bool
}

// VerifierFunc adapts a function to CrawlerVerifier.
type VerifierFunc func(ip, domain string) bool

func (f VerifierFunc) Verify(ip, domain string) bool { return f(ip, domain) }

// Resolver is the subset of *net.Resolver the DNS verifier needs.
type Resolver interface {
	LookupAddr(ctx context.Context, addr string) ([]string, error)
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// DNSVerifier performs forward-confirmed reverse DNS: the PTR name of ip
// must end in domain and must resolve back to ip.
type DNSVerifier struct {
	resolver Resolver
	timeout  time.Duration
	cache    cache.Cache
	ttl      time.Duration
	log      zerolog.Logger
}

// DNSOption configures a DNSVerifier.
type DNSOption func(*DNSVerifier)

// WithResolver replaces net.DefaultResolver.
func WithResolver(r Resolver) DNSOption { return func(d *DNSVerifier) { d.resolver = r } }

// WithCache memoizes results in c for ttl.
func WithCache(c cache.Cache, ttl time.Duration) DNSOption {
	return func(d *DNSVerifier) { d.cache, d.ttl = c, ttl }
}

// WithVerifierLogger sets the logger used for lookup failures.
func WithVerifierLogger(l zerolog.Logger) DNSOption { return func(d *DNSVerifier) { d.log = l } }

// NewDNSVerifier returns a verifier bounded by timeout per call.
func NewDNSVerifier(timeout time.Duration, opts ...DNSOption) *DNSVerifier {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	d := &DNSVerifier{
		resolver: net.DefaultResolver,
		timeout:  timeout,
		ttl:      time.Hour,
		log:      zerolog.Nop(),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

var (
	cachedYes = []byte{'1'}
	cachedNo  = []byte{'0'}
)

func verifierKey(ip, domain string) string {
	h := xxhash.New()
	_, _ = h.WriteString(ip)
	_, _ = h.WriteString("|")
	_, _ = h.WriteString(strings.ToLower(domain))
	return "bb:crawler:" + strconv.FormatUint(h.Sum64(), 16)
}

// Verify implements CrawlerVerifier.
func (d *DNSVerifier) Verify(ip, domain string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	key := verifierKey(ip, domain)
	if d.cache != nil {
		if b, err := d.cache.Get(ctx, key); err == nil {
			return len(b) == 1 && b[0] == '1'
		} else if !errors.Is(err, cache.ErrMiss) {
			d.log.Warn().Err(err).Msg("crawler cache get")
		}
	}

	ok, err := d.lookup(ctx, ip, domain)
	if err != nil {
		// Timeouts and resolver errors are not cached; the next request retries.
		d.log.Debug().Err(err).Str("ip", ip).Str("domain", domain).Msg("crawler verification failed")
		return false
	}
	if d.cache != nil {
		val := cachedNo
		if ok {
			val = cachedYes
		}
		if err := d.cache.Put(ctx, key, val, d.ttl); err != nil {
			d.log.Warn().Err(err).Msg("crawler cache put")
		}
	}
	return ok
}

func (d *DNSVerifier) lookup(ctx context.Context, ip, domain string) (bool, error) {
	names, err := d.resolver.LookupAddr(ctx, ip)
	if err != nil {
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
			return false, nil
		}
		return false, err
	}
	domain = strings.ToLower(strings.TrimSuffix(domain, "."))
	for _, n := range names {
		n = strings.ToLower(strings.TrimSuffix(n, "."))
		if n != domain && !strings.HasSuffix(n, "."+domain) {
			continue
		}
		addrs, err := d.resolver.LookupHost(ctx, n)
		if err != nil {
			return false, err
		}
		for _, a := range addrs {
			if a == ip {
				return true, nil
			}
		}
	}
	return false, nil
}

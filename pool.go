package weir

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"
)

// redirectChainKey is the context key a request's CheckRedirect hops record
// themselves under, so doRequest can recover the chain after the client
// follows it to completion (§4.7: Redirected carries the intermediate URLs).
type redirectChainKey struct{}

// withRedirectChain attaches a fresh, request-scoped chain recorder to ctx.
func withRedirectChain(ctx context.Context) (context.Context, *[]string) {
	chain := new([]string)
	return context.WithValue(ctx, redirectChainKey{}, chain), chain
}

// HostPool holds one lane per hostname plus the resources every lane
// shares (§4.6): a global concurrency ceiling, one HTTP client, and a
// cookie jar. Grounded on the teacher's pool.go, which is itself a
// registry of per-kind sync.Pools handed out from one struct; here the
// registry is keyed by host instead of by type, and entries are created
// lazily and raced via singleflight rather than preallocated.
type HostPool struct {
	client *http.Client

	lanes sync.Map // host -> *lane
	group singleflight.Group

	global *semaphore.Weighted

	config *Config
}

// NewHostPool builds a HostPool sized and configured from c.
func NewHostPool(c *Config) *HostPool {
	jar, _ := cookiejar.New(nil)

	transport := defaultHTTPTransport(c)
	if c.AllowInsecureTLS {
		transport = insecureHTTPTransport(transport)
	}

	client := &http.Client{
		Transport: transport,
		Jar:       jar,
		Timeout:   c.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if chain, ok := req.Context().Value(redirectChainKey{}).(*[]string); ok {
				*chain = append(*chain, req.URL.String())
			}
			if len(via) >= c.MaxRedirects {
				// Mirrors Go's own default-CheckRedirect wording
				// ("stopped after N redirects") so the too-many-
				// redirects transport fingerprint classifies this
				// as an error rather than a followed success.
				return fmt.Errorf("stopped after %d redirects", len(via))
			}
			return nil
		},
	}

	cap := c.MaxConcurrency
	if cap <= 0 {
		cap = 128
	}

	return &HostPool{
		client: client,
		global: semaphore.NewWeighted(int64(cap)),
		config: c,
	}
}

// laneFor returns the lane for host, creating it exactly once even under
// concurrent callers (§4.6: "race-safe: losers of the create race discard
// their candidate and use the winner's"), via singleflight rather than a
// double-checked lock.
func (p *HostPool) laneFor(host string) *lane {
	if v, ok := p.lanes.Load(host); ok {
		return v.(*lane)
	}

	v, _, _ := p.group.Do(host, func() (interface{}, error) {
		if v, ok := p.lanes.Load(host); ok {
			return v.(*lane), nil
		}
		l := newLane(host, p.client, p.config)
		p.lanes.Store(host, l)
		return l, nil
	})
	return v.(*lane)
}

// execute derives the lane for req's host from its HostKey, acquires a
// global-semaphore permit, then delegates to the lane.
func (p *HostPool) execute(ctx context.Context, req *Request, httpReq *http.Request) (*http.Response, time.Duration, error) {
	if err := p.global.Acquire(ctx, 1); err != nil {
		return nil, 0, err
	}
	defer p.global.Release(1)

	l := p.laneFor(req.URI.HostKey())
	return l.execute(ctx, httpReq)
}

// cachedStatus consults the lane owning uri's cache.
func (p *HostPool) cachedStatus(uri *URI, accepted map[int]struct{}) (CacheStatus, bool) {
	return p.laneFor(uri.HostKey()).getCached(uri, accepted, p.config.MaxCacheAge)
}

// cacheResult stores status under uri in its owning lane's cache, honoring
// the configured cache_exclude_status set.
func (p *HostPool) cacheResult(uri *URI, accepted map[int]struct{}, status Status) {
	p.laneFor(uri.HostKey()).cacheResult(uri, accepted, status, p.config.CacheExcludeStatus)
}

// allHostStats snapshots every lane's counters, keyed by host, for the
// run-level report.
func (p *HostPool) allHostStats() map[string]hostStats {
	out := make(map[string]hostStats)
	p.lanes.Range(func(k, v interface{}) bool {
		out[k.(string)] = v.(*lane).snapshot()
		return true
	})
	return out
}

// Close idles out every lane's shared transport connections.
func (p *HostPool) Close() error {
	if t, ok := p.client.Transport.(*http.Transport); ok {
		t.CloseIdleConnections()
	}
	return nil
}

// insecureHTTPTransport clones t with TLS verification disabled, for the
// opt-in allow_insecure_tls configuration option.
func insecureHTTPTransport(t *http.Transport) *http.Transport {
	clone := t.Clone()
	if clone.TLSClientConfig == nil {
		clone.TLSClientConfig = &tls.Config{}
	}
	clone.TLSClientConfig.InsecureSkipVerify = true
	return clone
}

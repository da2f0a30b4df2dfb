package weir

import (
	"context"
	"encoding/binary"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/cespare/xxhash"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// lane is the per-host worker described in §4.5: a token-bucket limiter, a
// concurrency semaphore, a shared HTTP client, a mutex-guarded back-off
// duration, mutex-guarded stats, and a fastcache-backed result cache keyed
// by the URI plus the accepted-code set (SPEC_FULL §D). Grounded on the
// teacher's coffer.go, which plays the same "one fastcache instance per
// managed resource, keyed by a checksum" role for static assets.
type lane struct {
	host   string
	client *http.Client

	limiter *rate.Limiter
	sem     *semaphore.Weighted

	mu      sync.Mutex
	backoff time.Duration
	stats   hostStats

	cache *fastcache.Cache
}

// hostStats are the per-host counters §4.6's all_host_stats snapshots.
type hostStats struct {
	Requests   int
	Successes  int
	Failures   int
	Redirected int
}

const laneCacheBytes = 1 << 20 // 1 MiB per host is ample for status-only entries.

// newLane builds a lane for host, sharing client across every lane in the
// pool and sizing its limiter/semaphore from c.
func newLane(host string, client *http.Client, c *Config) *lane {
	rps := rate.Limit(1)
	if c.MaxConcurrentPerHost > 0 {
		rps = rate.Limit(c.MaxConcurrentPerHost)
	}
	concurrency := c.MaxConcurrentPerHost
	if concurrency <= 0 {
		concurrency = 10
	}
	return &lane{
		host:    host,
		client:  client,
		limiter: rate.NewLimiter(rps, 1),
		sem:     semaphore.NewWeighted(int64(concurrency)),
		cache:   fastcache.New(laneCacheBytes),
	}
}

// execute runs request through the five steps of §4.5 and returns the raw
// HTTP response (the caller maps it to a Status).
func (l *lane) execute(ctx context.Context, req *http.Request) (*http.Response, time.Duration, error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return nil, 0, err
	}
	defer l.sem.Release(1)

	l.mu.Lock()
	wait := l.backoff
	l.mu.Unlock()
	if wait > 0 {
		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, 0, ctx.Err()
		}
	}

	if err := l.limiter.Wait(ctx); err != nil {
		return nil, 0, err
	}

	start := time.Now()
	resp, err := l.client.Do(req)
	elapsed := time.Since(start)

	l.mu.Lock()
	l.stats.Requests++
	if err != nil {
		l.stats.Failures++
		l.mu.Unlock()
		return nil, elapsed, err
	}
	if resp.StatusCode >= 300 && resp.StatusCode < 400 {
		l.stats.Redirected++
	} else if resp.StatusCode < 400 {
		l.stats.Successes++
	} else {
		l.stats.Failures++
	}
	l.updateBackoffLocked(resp.StatusCode)
	l.parseRateLimitHeadersLocked(resp.Header)
	l.mu.Unlock()

	return resp, elapsed, nil
}

// updateBackoffLocked applies the clamping rule of §4.5 for response code c.
// l.mu must be held.
func (l *lane) updateBackoffLocked(c int) {
	switch {
	case c >= 200 && c < 300:
		l.backoff = 0
	case c == 429:
		next := l.backoff * 2
		if next < 500*time.Millisecond {
			next = 500 * time.Millisecond
		}
		if next > 30*time.Second {
			next = 30 * time.Second
		}
		l.backoff = next
	case c >= 500 && c < 600:
		next := l.backoff + 200*time.Millisecond
		if next > 10*time.Second {
			next = 10 * time.Second
		}
		l.backoff = next
	}
}

// parseRateLimitHeadersLocked implements §4.5's rate-limit-header-driven
// preventive back-off. l.mu must be held.
func (l *lane) parseRateLimitHeadersLocked(h http.Header) {
	limit, limitOK := firstIntHeader(h, "x-ratelimit-limit", "x-rate-limit-limit", "ratelimit-limit")
	remaining, remOK := firstIntHeader(h, "x-ratelimit-remaining", "x-rate-limit-remaining", "ratelimit-remaining")
	if limitOK && remOK && limit > 0 {
		usage := float64(limit-remaining) / float64(limit)
		if usage > 0.8 {
			preventive := time.Duration(200*(usage-0.8)/0.2*float64(time.Millisecond))
			if preventive > l.backoff {
				l.backoff = preventive
			}
		}
	}

	if retryAfter, ok := firstIntHeader(h, "retry-after"); ok && retryAfter <= 3600 {
		d := time.Duration(retryAfter) * time.Second
		if d > l.backoff {
			l.backoff = d
		}
	}
}

// firstIntHeader returns the first of names (case-insensitive) present on h
// that parses as an integer.
func firstIntHeader(h http.Header, names ...string) (int, bool) {
	for _, name := range names {
		v := h.Get(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err == nil {
			return n, true
		}
	}
	return 0, false
}

// cacheKey hashes uri plus the accepted-code set into the byte key the
// fastcache instance is addressed by (the cache-key Open Question
// resolution of SPEC_FULL §D: two runs with different accepted-code sets
// against the same URI must not share a cache entry).
func cacheKey(uri *URI, accepted map[int]struct{}) []byte {
	h := xxhash.New()
	h.Write([]byte(uri.String()))
	if len(accepted) > 0 {
		codes := make([]int, 0, len(accepted))
		for c := range accepted {
			codes = append(codes, c)
		}
		sortInts(codes)
		for _, c := range codes {
			var b [4]byte
			binary.LittleEndian.PutUint32(b[:], uint32(c))
			h.Write(b[:])
		}
	}
	sum := h.Sum64()
	var key [8]byte
	binary.LittleEndian.PutUint64(key[:], sum)
	return key[:]
}

func sortInts(s []int) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

// getCached returns the cached CacheStatus for uri under accepted, if any,
// treating an entry older than maxAge as a miss (supplemented feature:
// cache-entry max-age pruning). maxAge <= 0 disables pruning.
func (l *lane) getCached(uri *URI, accepted map[int]struct{}, maxAge time.Duration) (CacheStatus, bool) {
	buf := l.cache.Get(nil, cacheKey(uri, accepted))
	if len(buf) == 0 {
		return CacheStatus{}, false
	}
	cs, storedAt := decodeCacheStatus(buf)
	if maxAge > 0 && time.Since(storedAt) > maxAge {
		return CacheStatus{}, false
	}
	return cs, true
}

// cacheResult stores status under uri's cache key, stamped with the current
// time so getCached can enforce max_cache_age. A status whose HTTP code is
// listed in excludeStatus is never written, per cache_exclude_status (§6):
// those codes must be re-fetched on every run regardless of caching.
func (l *lane) cacheResult(uri *URI, accepted map[int]struct{}, status Status, excludeStatus map[int]struct{}) {
	if status.Kind == StatusCached {
		return
	}
	cs := ToCacheStatus(status)
	if cs.hasStatus {
		if _, excluded := excludeStatus[cs.HTTPStatus]; excluded {
			return
		}
	}
	l.cache.Set(cacheKey(uri, accepted), encodeCacheStatus(cs, time.Now()))
}

// snapshot returns a copy of l's stats for the run-level report.
func (l *lane) snapshot() hostStats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stats
}

// encodeCacheStatus/decodeCacheStatus give CacheStatus a tiny, stable wire
// form, stamped with a storage time, so it can live in fastcache (which only
// stores bytes) and still support max-age pruning.
func encodeCacheStatus(cs CacheStatus, storedAt time.Time) []byte {
	b := make([]byte, 14)
	b[0] = byte(cs.Kind)
	if cs.hasStatus {
		b[1] = 1
	}
	binary.LittleEndian.PutUint32(b[2:], uint32(cs.HTTPStatus))
	binary.LittleEndian.PutUint64(b[6:], uint64(storedAt.Unix()))
	return b
}

func decodeCacheStatus(b []byte) (CacheStatus, time.Time) {
	if len(b) < 14 {
		return CacheStatus{Kind: CacheError}, time.Time{}
	}
	cs := CacheStatus{Kind: CacheKind(b[0])}
	if b[1] == 1 {
		cs.hasStatus = true
		cs.HTTPStatus = int(binary.LittleEndian.Uint32(b[2:]))
	}
	storedAt := time.Unix(int64(binary.LittleEndian.Uint64(b[6:])), 0)
	return cs, storedAt
}

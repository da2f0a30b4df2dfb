package weir

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLaneExecuteTracksStats(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewConfig()
	l := newLane("127.0.0.1", srv.Client(), c)

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	assert.NoError(t, err)

	resp, _, err := l.execute(context.Background(), req)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	stats := l.snapshot()
	assert.Equal(t, 1, stats.Requests)
	assert.Equal(t, 1, stats.Successes)
	assert.Zero(t, stats.Failures)
}

func TestLaneUpdateBackoffClamping(t *testing.T) {
	l := &lane{}

	l.updateBackoffLocked(200)
	assert.Zero(t, l.backoff)

	l.updateBackoffLocked(429)
	assert.Equal(t, 500*time.Millisecond, l.backoff)

	l.updateBackoffLocked(429)
	assert.Equal(t, time.Second, l.backoff)

	l.backoff = 20 * time.Second
	l.updateBackoffLocked(429)
	assert.Equal(t, 30*time.Second, l.backoff, "backoff must clamp at 30s")

	l.backoff = 0
	l.updateBackoffLocked(503)
	assert.Equal(t, 200*time.Millisecond, l.backoff)

	l.backoff = 9950 * time.Millisecond
	l.updateBackoffLocked(503)
	assert.Equal(t, 10*time.Second, l.backoff, "5xx backoff must clamp at 10s")

	l.updateBackoffLocked(200)
	assert.Zero(t, l.backoff, "a success resets backoff")
}

func TestLaneParseRateLimitHeadersPreventiveBackoff(t *testing.T) {
	l := &lane{}
	h := http.Header{}
	h.Set("x-ratelimit-limit", "100")
	h.Set("x-ratelimit-remaining", "5")
	l.parseRateLimitHeadersLocked(h)
	assert.Greater(t, l.backoff, time.Duration(0))
}

func TestLaneParseRateLimitHeadersRetryAfter(t *testing.T) {
	l := &lane{}
	h := http.Header{}
	h.Set("retry-after", "2")
	l.parseRateLimitHeadersLocked(h)
	assert.Equal(t, 2*time.Second, l.backoff)

	l2 := &lane{}
	h2 := http.Header{}
	h2.Set("retry-after", "999999")
	l2.parseRateLimitHeadersLocked(h2)
	assert.Zero(t, l2.backoff, "retry-after beyond 3600s must be ignored")
}

func TestLaneCacheRoundTrip(t *testing.T) {
	c := NewConfig()
	l := newLane("example.com", http.DefaultClient, c)

	uri, err := ParseURI("https://example.com/a")
	assert.NoError(t, err)

	_, ok := l.getCached(uri, nil, 0)
	assert.False(t, ok)

	l.cacheResult(uri, nil, Ok(200), nil)
	cs, ok := l.getCached(uri, nil, 0)
	assert.True(t, ok)
	assert.Equal(t, CacheOk, cs.Kind)
	assert.Equal(t, 200, cs.HTTPStatus)
}

func TestLaneCacheKeyDiffersByAcceptedCodes(t *testing.T) {
	uri, err := ParseURI("https://example.com/a")
	assert.NoError(t, err)

	k1 := cacheKey(uri, map[int]struct{}{200: {}})
	k2 := cacheKey(uri, map[int]struct{}{200: {}, 404: {}})
	assert.NotEqual(t, k1, k2)
}

func TestLaneCacheResultHonorsExcludeStatus(t *testing.T) {
	c := NewConfig()
	l := newLane("example.com", http.DefaultClient, c)

	uri, err := ParseURI("https://example.com/a")
	assert.NoError(t, err)

	l.cacheResult(uri, nil, UnknownStatusCode(503), map[int]struct{}{503: {}})

	_, ok := l.getCached(uri, nil, 0)
	assert.False(t, ok, "a status whose code is excluded must never be cached")
}

func TestLaneCacheResultStoresNonExcludedStatus(t *testing.T) {
	c := NewConfig()
	l := newLane("example.com", http.DefaultClient, c)

	uri, err := ParseURI("https://example.com/a")
	assert.NoError(t, err)

	l.cacheResult(uri, nil, Ok(200), map[int]struct{}{503: {}})

	cs, ok := l.getCached(uri, nil, 0)
	assert.True(t, ok)
	assert.Equal(t, CacheOk, cs.Kind)
}

func TestLaneCacheMaxAgePruning(t *testing.T) {
	c := NewConfig()
	l := newLane("example.com", http.DefaultClient, c)

	uri, err := ParseURI("https://example.com/a")
	assert.NoError(t, err)

	l.cache.Set(cacheKey(uri, nil), encodeCacheStatus(CacheStatus{Kind: CacheOk, HTTPStatus: 200, hasStatus: true}, time.Now().Add(-time.Hour)))

	_, ok := l.getCached(uri, nil, time.Minute)
	assert.False(t, ok, "entries older than maxAge must be treated as a miss")

	_, ok = l.getCached(uri, nil, 0)
	assert.True(t, ok, "maxAge<=0 disables pruning")
}

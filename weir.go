package weir

import (
	"context"
	"net"
	"net/http"
)

// Weir is the top-level struct of this engine, named for the low barrier
// that lets some flow through and holds the rest back: one instance wires
// together a Config, a Logger, a URIFilter, and a HostPool, builds a Checker
// from them, and drives it from Check. Modeled on the teacher's top-level Air
// struct (air.go), which plays the equivalent role for an HTTP server.
//
// It is recommended not to mutate a Weir's fields after calling Check.
type Weir struct {
	Config *Config

	// LoggerEnabled toggles all Logger output.
	//
	// Default value: true
	LoggerEnabled bool

	// LoggerFormat is the text/template format string the Logger renders
	// each line with.
	//
	// Default value: see defaultLogFormat
	LoggerFormat string

	logger *Logger
	filter *URIFilter
	pool   *HostPool
	stats  *StatsAggregator
	feed   *Feed
}

// New returns a new instance of Weir configured by c. Passing a nil c uses
// NewConfig()'s defaults.
func New(c *Config) *Weir {
	if c == nil {
		c = NewConfig()
	}

	w := &Weir{
		Config:        c,
		LoggerEnabled: true,
	}
	w.logger = newLogger(w)
	w.filter = NewURIFilter(c)
	w.pool = NewHostPool(c)
	w.stats = NewStatsAggregator(w.pool)
	w.feed = NewFeed()

	return w
}

// Logger returns w's Logger.
func (w *Weir) Logger() *Logger { return w.logger }

// Filter returns w's URIFilter.
func (w *Weir) Filter() *URIFilter { return w.filter }

// Pool returns w's HostPool.
func (w *Weir) Pool() *HostPool { return w.pool }

// Checker builds a Checker bound to w's filter, pool, and config.
func (w *Weir) Checker() *Checker {
	return NewChecker(w.Config, w.filter, w.pool, w.logger)
}

// Feed returns w's live-result broadcaster. A driver wanting a real-time
// dashboard subscribes a WebSocket connection to it before calling Check;
// one wired into no subscribers costs nothing beyond the empty registry.
func (w *Weir) Feed() *Feed { return w.feed }

// Close tears down w's host pool (closing idle HTTP connections across
// every lane) and disconnects any live Feed subscribers.
func (w *Weir) Close() error {
	w.feed.Close()
	return w.pool.Close()
}

// Check runs the full pipeline (§2 data flow, minus the extractors, which
// are the caller's concern via the extract subpackage) against reqs: it
// dispatches each through Checker.Check with bounded parallelism via an
// Orchestrator and returns the aggregate run report.
func (w *Weir) Check(ctx context.Context, reqs <-chan Request) (*RunReport, error) {
	orch := NewOrchestrator(w.Checker(), w.stats, w.Config.MaxConcurrency)
	orch.feed = w.feed
	return orch.Run(ctx, reqs)
}

// defaultHTTPTransport is the shared, conservatively-configured transport
// of the host pool's one HTTP client, used by every lane (§5:
// connect_timeout 10s, tcp_keepalive 60s), dialing
// through a net.Dialer constrained by c's ConnectTimeout/TCPKeepAlive rather
// than leaving http.DefaultTransport's own dialer in place.
func defaultHTTPTransport(c *Config) *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	dialer := &net.Dialer{
		Timeout:   c.ConnectTimeout,
		KeepAlive: c.TCPKeepAlive,
	}
	t.DialContext = dialer.DialContext
	return t
}


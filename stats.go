package weir

import "sync"

// RunStats holds the run-level counters the orchestrator accumulates as
// responses complete (§4.11, §2 "Status + stats model").
type RunStats struct {
	Total       int
	Successful  int
	Excluded    int
	Errors      int
	Timeouts    int
	Redirects   int
	Unsupported int
	Unknown     int

	PerHost map[string]hostStats
	FailMap map[string]*CheckError
}

// StatsAggregator accumulates RunStats across concurrent Record calls.
// Mirrors the teacher's preference for a small mutex-guarded struct over a
// channel-fed accumulator goroutine (see Logger's own sync.Mutex use).
type StatsAggregator struct {
	mu    sync.Mutex
	stats RunStats
	pool  *HostPool
}

// NewStatsAggregator returns a StatsAggregator that snapshots per-host
// stats from pool when asked.
func NewStatsAggregator(pool *HostPool) *StatsAggregator {
	return &StatsAggregator{
		pool: pool,
		stats: RunStats{
			FailMap: make(map[string]*CheckError),
		},
	}
}

// Record folds one Response's Status into the aggregate.
func (s *StatsAggregator) Record(req Request, status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stats.Total++
	switch {
	case status.IsExcluded():
		s.stats.Excluded++
	case status.IsTimeout():
		s.stats.Timeouts++
	case status.IsUnsupported():
		s.stats.Unsupported++
	case status.IsSuccess():
		s.stats.Successful++
		if status.Kind == StatusRedirected {
			s.stats.Redirects++
		}
	case status.IsError():
		s.stats.Errors++
		if status.Err != nil {
			s.stats.FailMap[req.RequestKey()] = status.Err
		}
	default:
		s.stats.Unknown++
	}
}

// Snapshot returns a copy of the accumulated stats, with per-host counters
// pulled fresh from the host pool.
func (s *StatsAggregator) Snapshot() RunStats {
	s.mu.Lock()
	out := s.stats
	out.FailMap = make(map[string]*CheckError, len(s.stats.FailMap))
	for k, v := range s.stats.FailMap {
		out.FailMap[k] = v
	}
	s.mu.Unlock()

	if s.pool != nil {
		out.PerHost = s.pool.allHostStats()
	}
	return out
}

// RunReport is the orchestrator's return value: the aggregated stats plus
// every completed (Request, Status) pair, for a driver that wants the full
// detail rather than just the counters.
type RunReport struct {
	Stats   RunStats
	Results []Result
}

// Result pairs one Request with its terminal Status.
type Result struct {
	Request Request
	Status  Status
}

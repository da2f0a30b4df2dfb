package weir

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Orchestrator drains a deduplicated request stream, dispatches each
// Request to a Checker with bounded parallelism, and forwards results to a
// StatsAggregator (§4.11). The pool's global semaphore is the real
// backpressure; maxConcurrency here only bounds how many checker
// invocations are in flight waiting on that semaphore at once.
type Orchestrator struct {
	checker        *Checker
	stats          *StatsAggregator
	maxConcurrency int
	feed           *Feed
}

// NewOrchestrator builds an Orchestrator.
func NewOrchestrator(checker *Checker, stats *StatsAggregator, maxConcurrency int) *Orchestrator {
	if maxConcurrency <= 0 {
		maxConcurrency = 128
	}
	return &Orchestrator{checker: checker, stats: stats, maxConcurrency: maxConcurrency}
}

// Run drains reqs, checking each with bounded parallelism, and returns the
// aggregated RunReport. On ctx cancellation, outstanding requests are
// abandoned and the report reflects whatever completed (§4.11: "a summary
// of completed results is reported").
func (o *Orchestrator) Run(ctx context.Context, reqs <-chan Request) (*RunReport, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.maxConcurrency)

	var (
		resultsMu sync.Mutex
		results   []Result
	)

	for req := range reqs {
		req := req
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			status := o.checker.Check(gctx, req)
			o.stats.Record(req, status)

			result := Result{Request: req, Status: status}
			resultsMu.Lock()
			results = append(results, result)
			resultsMu.Unlock()

			if o.feed != nil {
				o.feed.Publish(result)
			}

			if o.checker.logger != nil {
				o.checker.logger.logRequest(req, status, 0)
			}
			return nil
		})
	}

	err := g.Wait()
	if err == context.Canceled || err == context.DeadlineExceeded {
		err = nil
	}

	report := &RunReport{
		Stats:   o.stats.Snapshot(),
		Results: results,
	}
	return report, err
}

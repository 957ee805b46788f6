package search

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/hupe1980/treemirror/tree"
)

// DefaultInterval is the pause between incremental scheduling ticks. The
// first job of a session always runs immediately.
const DefaultInterval = 25 * time.Millisecond

// Scheduler owns the pending match job queue and the deduplicating result
// set of the current search session.
//
// In synchronous mode the whole queue drains in one pass on the caller's
// goroutine. In incremental mode a single worker goroutine executes one
// job per tick, paced by a rate limiter; between ticks the host may
// mutate the tree freely. Cancellation is cooperative and takes effect at
// the next tick boundary, never mid-job.
type Scheduler struct {
	interval time.Duration
	report   func(fresh []tree.Node)

	mu     sync.Mutex
	jobs   []Job
	seen   map[tree.Node]struct{}
	cancel context.CancelFunc
}

// NewScheduler creates a Scheduler reporting result batches through
// report. Each batch contains only nodes not reported earlier in the same
// session, in discovery order. interval <= 0 selects DefaultInterval.
func NewScheduler(interval time.Duration, report func(fresh []tree.Node)) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		interval: interval,
		report:   report,
	}
}

// Start cancels any previous session and begins a new one with the given
// job queue. In synchronous mode all jobs run before Start returns and
// exactly one batch is reported (possibly empty); search state is cleared
// afterwards. In incremental mode one batch is reported per executed job
// and the session ends implicitly when the queue empties.
func (s *Scheduler) Start(jobs []Job, synchronous bool) {
	s.Cancel()

	if synchronous {
		seen := make(map[tree.Node]struct{})
		var batch []tree.Node
		for _, job := range jobs {
			for _, n := range job.Run() {
				if _, ok := seen[n]; ok {
					continue
				}
				seen[n] = struct{}{}
				batch = append(batch, n)
			}
		}
		s.report(batch)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.jobs = jobs
	s.seen = make(map[tree.Node]struct{})
	s.cancel = cancel
	s.mu.Unlock()

	go s.run(ctx)
}

// Cancel stops any pending tick, discards all queued jobs and clears the
// session's result set. Bindings already created for reported nodes are
// untouched.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked()
}

func (s *Scheduler) cancelLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.jobs = nil
	s.seen = nil
}

// Pending returns the number of queued jobs of the active session.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

func (s *Scheduler) run(ctx context.Context) {
	limiter := rate.NewLimiter(rate.Every(s.interval), 1)
	for {
		if err := limiter.Wait(ctx); err != nil {
			return
		}

		s.mu.Lock()
		if ctx.Err() != nil {
			s.mu.Unlock()
			return
		}
		if len(s.jobs) == 0 {
			// Queue drained: the session ends implicitly.
			s.cancelLocked()
			s.mu.Unlock()
			return
		}
		job := s.jobs[0]
		s.jobs = s.jobs[1:]
		s.mu.Unlock()

		nodes := job.Run()

		s.mu.Lock()
		if ctx.Err() != nil {
			s.mu.Unlock()
			return
		}
		var fresh []tree.Node
		for _, n := range nodes {
			if _, ok := s.seen[n]; ok {
				continue
			}
			s.seen[n] = struct{}{}
			fresh = append(fresh, n)
		}
		s.mu.Unlock()

		s.report(fresh)
	}
}

package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task is the unit of work invoked on every tick of a cadence.
type Task func(ctx context.Context)

// Cadence names a periodic task and its interval.
type Cadence struct {
	Name     string
	Interval time.Duration
	Task     Task
}

// Runner drives a set of named cadences on fixed intervals. It is a state
// machine with two states, stopped and running. Ticks of the same cadence
// never overlap: a tick that fires while the previous one is still in flight
// is skipped. Ticks of different cadences run concurrently.
type Runner struct {
	logger *zap.Logger

	mu       sync.Mutex
	cadences []Cadence
	running  bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewRunner builds an empty runner.
func NewRunner(logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{logger: logger}
}

// Register adds a cadence. Returns an error while the runner is running.
func (r *Runner) Register(c Cadence) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return fmt.Errorf("cannot register cadence %q while running", c.Name)
	}
	if c.Interval <= 0 {
		return fmt.Errorf("cadence %q requires a positive interval", c.Name)
	}
	r.cadences = append(r.cadences, c)
	return nil
}

// Start launches one ticking goroutine per registered cadence. Calling Start
// on a running runner is a logged no-op.
func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		r.logger.Sugar().Infow("scheduler already running")
		return
	}

	loopCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	for _, c := range r.cadences {
		r.wg.Add(1)
		go r.loop(loopCtx, c)
	}
	r.running = true
	r.logger.Sugar().Infow("scheduler started", "cadences", len(r.cadences))
}

// Stop prevents new ticks from starting and waits for in-flight ticks to
// finish. Already-started dispatch work is not cancelled mid-flight. Calling
// Stop on a stopped runner is a logged no-op.
func (r *Runner) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		r.logger.Sugar().Infow("scheduler already stopped")
		return
	}
	r.cancel()
	r.running = false
	r.mu.Unlock()

	r.wg.Wait()
	r.logger.Sugar().Infow("scheduler stopped")
}

// Status reports the current state and active cadence names.
type Status struct {
	Running        bool     `json:"running"`
	ActiveCadences []string `json:"active_cadences"`
}

// Status returns a snapshot of the runner state.
func (r *Runner) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	status := Status{Running: r.running}
	if r.running {
		for _, c := range r.cadences {
			status.ActiveCadences = append(status.ActiveCadences, c.Name)
		}
	}
	return status
}

func (r *Runner) loop(ctx context.Context, c Cadence) {
	defer r.wg.Done()

	ticker := time.NewTicker(c.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Tasks run inline so a slow tick blocks its own cadence only;
			// the ticker drops intermediate fires while the task runs.
			start := time.Now()
			c.Task(context.Background())
			if elapsed := time.Since(start); elapsed > c.Interval {
				r.logger.Sugar().Warnw("tick overran cadence interval",
					"cadence", c.Name, "elapsed", elapsed, "interval", c.Interval)
			}
		}
	}
}

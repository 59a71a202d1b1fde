package pipeline

import (
	"context"
	"iter"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nao1215/opentip/internal/model"
	"golang.org/x/sync/errgroup"
)

// Runner executes one scan task. *Task implements it.
type Runner interface {
	Run(ctx context.Context, token *Token, target model.Target) (model.Outcome, bool)
}

// Summary describes a finished run.
type Summary struct {
	// Discovered is the number of targets enumerated before enumeration
	// stopped.
	Discovered int

	// Completed is the number of outcomes published.
	Completed int

	// Dropped lists targets that were discovered but never produced an
	// outcome because the run was cancelled. They were not scanned.
	Dropped []model.Target

	// Elapsed is the wall time from Start to the last outcome.
	Elapsed time.Duration
}

// Orchestrator drives enumeration, dispatch and completion collection.
type Orchestrator struct {
	runner  Runner
	workers int
	logger  *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithWorkers sets the number of parallel workers.
// Default is runtime.GOMAXPROCS(0).
func WithWorkers(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// New creates an Orchestrator that runs runner for every target.
func New(runner Runner, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		runner:  runner,
		workers: runtime.GOMAXPROCS(0),
	}

	for _, opt := range opts {
		opt(o)
	}

	if o.logger == nil {
		o.logger = slog.Default()
	}

	return o
}

// Workers returns the worker pool size.
func (o *Orchestrator) Workers() int {
	return o.workers
}

// Run is a scan in progress.
//
// Outcomes must be drained until the channel is closed; workers block on
// publishing otherwise. Wait may be called after or while draining.
type Run struct {
	token    *Token
	outcomes chan model.Outcome
	done     chan struct{}

	discovered atomic.Int64
	completed  atomic.Int64

	mu      sync.Mutex
	dropped []model.Target

	summary Summary
}

// Outcomes returns the stream of task outcomes in completion order.
// The channel is closed once every dispatched task has finished.
func (r *Run) Outcomes() <-chan model.Outcome {
	return r.outcomes
}

// Token returns the run's cancellation token.
func (r *Run) Token() *Token {
	return r.token
}

// Wait blocks until the run has finished and returns its summary together
// with the fatal condition that cancelled it, if any.
func (r *Run) Wait() (Summary, error) {
	<-r.done
	return r.summary, r.token.Cause()
}

func (r *Run) drop(t model.Target) {
	r.mu.Lock()
	r.dropped = append(r.dropped, t)
	r.mu.Unlock()
}

// Scan enumerates paths and runs a task for every file found.
func (o *Orchestrator) Scan(ctx context.Context, paths []string) *Run {
	return o.Start(ctx, Enumerate(paths, o.logger))
}

// Start dispatches every target produced by targets.
//
// Enumeration, the dispatch queue and the workers run concurrently. When
// the token is set, enumeration stops, queued targets are dropped, and
// tasks already running finish normally. Cancelling ctx sets the token
// with the context's cause.
func (o *Orchestrator) Start(ctx context.Context, targets iter.Seq[model.Target]) *Run {
	r := &Run{
		token:    NewToken(),
		outcomes: make(chan model.Outcome, o.workers),
		done:     make(chan struct{}),
	}

	started := time.Now()
	stop := context.AfterFunc(ctx, func() {
		r.token.Cancel(context.Cause(ctx))
	})

	o.logger.Debug("starting scan", "workers", o.workers)

	discovered := make(chan model.Target)
	jobs := make(chan model.Target)

	go func() {
		defer close(discovered)
		for t := range targets {
			if r.token.Cancelled() {
				return
			}
			r.discovered.Add(1)
			discovered <- t
		}
	}()

	go r.queue(discovered, jobs)

	var g errgroup.Group
	for range o.workers {
		g.Go(func() error {
			for t := range jobs {
				if r.token.Cancelled() {
					r.drop(t)
					continue
				}

				out, ok := o.runner.Run(ctx, r.token, t)
				if !ok {
					r.drop(t)
					continue
				}
				if out.Status == model.StatusFatal {
					r.token.Cancel(out.Err)
				}

				r.completed.Add(1)
				r.outcomes <- out
			}
			return nil
		})
	}

	go func() {
		_ = g.Wait() //nolint:errcheck // workers never return an error
		stop()
		if ctx.Err() != nil {
			r.token.Cancel(context.Cause(ctx))
		}

		r.summary = Summary{
			Discovered: int(r.discovered.Load()),
			Completed:  int(r.completed.Load()),
			Dropped:    r.dropped,
			Elapsed:    time.Since(started),
		}

		o.logger.Debug("scan finished",
			"discovered", r.summary.Discovered,
			"completed", r.summary.Completed,
			"dropped", len(r.summary.Dropped),
			"elapsed", r.summary.Elapsed,
		)

		close(r.outcomes)
		close(r.done)
	}()

	return r
}

// queue forwards targets from in to out through an unbounded buffer, so
// the enumerating goroutine never waits for a free worker. Once the token
// is set, everything still buffered or arriving is dropped.
func (r *Run) queue(in <-chan model.Target, out chan<- model.Target) {
	defer close(out)

	var pending []model.Target
	for in != nil || len(pending) > 0 {
		var (
			send chan<- model.Target
			next model.Target
		)
		if len(pending) > 0 {
			send = out
			next = pending[0]
		}

		select {
		case t, ok := <-in:
			if !ok {
				in = nil
				continue
			}
			pending = append(pending, t)
		case send <- next:
			pending = pending[1:]
		case <-r.token.Done():
			for _, t := range pending {
				r.drop(t)
			}
			if in != nil {
				for t := range in {
					r.drop(t)
				}
			}
			return
		}
	}
}

package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/semaphore"

	"dropsort/internal/coord"
	"dropsort/internal/logging"
	"dropsort/internal/organizer"
	"dropsort/internal/services"
	"dropsort/internal/watch"
)

const (
	defaultWorkers       = 4
	defaultRearmInterval = time.Second
)

// EventSource yields batches of filesystem notifications.
type EventSource interface {
	Next(ctx context.Context) ([]watch.Notification, error)
	Rearm() error
}

// Processor organizes one file.
type Processor interface {
	Process(ctx context.Context, ev organizer.FileEvent) organizer.Result
}

// Recorder receives loop and worker observations. Implementations must be
// safe for concurrent use.
type Recorder interface {
	EventObserved(kind string)
	ResultObserved(result organizer.Result)
	WorkerStarted()
	WorkerFinished()
}

// Options configures a Dispatcher.
type Options struct {
	Root      string
	Source    EventSource
	Processor Processor
	// Workers bounds concurrent organize jobs.
	Workers int
	// Ignore holds doublestar patterns matched against base names.
	Ignore       []string
	SweepOnStart bool
	Logger       *slog.Logger
	Metrics      Recorder
	// OnResult is called once per reported result, from the worker goroutine.
	OnResult func(organizer.Result)
	// RearmInterval spaces re-arm attempts while the watch root is unwatched.
	RearmInterval time.Duration
	Now           func() time.Time
}

// Dispatcher is the watch loop.
type Dispatcher struct {
	root      string
	source    EventSource
	processor Processor
	ignore    []string
	sweep     bool
	logger    *slog.Logger
	metrics   Recorder
	onResult  func(organizer.Result)
	now       func() time.Time

	rearmInterval time.Duration

	sem      *semaphore.Weighted
	inflight *coord.InFlight
	wg       sync.WaitGroup
	state    atomic.Int32
	running  atomic.Bool

	moved   atomic.Int64
	skipped atomic.Int64
	failed  atomic.Int64
}

// New validates opts and returns an idle dispatcher.
func New(opts Options) (*Dispatcher, error) {
	if opts.Root == "" || !filepath.IsAbs(opts.Root) {
		return nil, services.Wrap(services.ErrConfiguration, "dispatching", "init", fmt.Sprintf("watch root %q must be absolute", opts.Root), nil)
	}
	if opts.Processor == nil {
		return nil, services.Wrap(services.ErrConfiguration, "dispatching", "init", "processor is required", nil)
	}
	for _, pattern := range opts.Ignore {
		if !doublestar.ValidatePattern(pattern) {
			return nil, services.Wrap(services.ErrConfiguration, "dispatching", "init", fmt.Sprintf("invalid ignore pattern %q", pattern), nil)
		}
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	rearmInterval := opts.RearmInterval
	if rearmInterval <= 0 {
		rearmInterval = defaultRearmInterval
	}
	return &Dispatcher{
		root:          filepath.Clean(opts.Root),
		source:        opts.Source,
		processor:     opts.Processor,
		ignore:        append([]string(nil), opts.Ignore...),
		sweep:         opts.SweepOnStart,
		logger:        logging.NewComponentLogger(opts.Logger, "dispatcher"),
		metrics:       opts.Metrics,
		onResult:      opts.OnResult,
		now:           now,
		rearmInterval: rearmInterval,
		sem:           semaphore.NewWeighted(int64(workers)),
		inflight:      coord.NewInFlight(),
	}, nil
}

// State reports where the loop currently is.
func (d *Dispatcher) State() State {
	return State(d.state.Load())
}

func (d *Dispatcher) setState(s State) {
	d.state.Store(int32(s))
}

// Stats returns result counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Moved:    d.moved.Load(),
		Skipped:  d.skipped.Load(),
		Failed:   d.failed.Load(),
		InFlight: d.inflight.Len(),
	}
}

// Run drives the loop until ctx is cancelled, the source is closed, or the
// source fails permanently. Cancellation and closure return nil. In-flight
// workers are awaited before Run returns.
func (d *Dispatcher) Run(ctx context.Context) error {
	if d.source == nil {
		return services.Wrap(services.ErrConfiguration, "dispatching", "run", "event source is required", nil)
	}
	if !d.running.CompareAndSwap(false, true) {
		return errors.New("dispatcher already running")
	}
	defer func() {
		d.wg.Wait()
		d.setState(StateStopped)
	}()

	d.logger.Info("watch loop started",
		logging.String("root", d.root),
		logging.String(logging.FieldEventType, "watch_loop_started"),
	)
	if d.sweep {
		d.Sweep(ctx)
	}

	armed := true
	for {
		d.setState(StateWaiting)
		batch, err := d.next(ctx, armed)
		if err != nil {
			if !armed && ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
				armed = d.rearm(ctx, armed)
				continue
			}
			if ctx.Err() != nil || errors.Is(err, watch.ErrClosed) {
				d.logger.Info("watch loop stopping", logging.String(logging.FieldEventType, "watch_loop_stopped"))
				return nil
			}
			d.logger.Error("watch loop failed",
				logging.Error(err),
				logging.String(logging.FieldEventType, "watch_loop_failed"),
			)
			return fmt.Errorf("watch loop: %w", err)
		}

		d.setState(StateDispatching)
		d.handleBatch(ctx, batch)
		armed = d.rearm(ctx, armed)
	}
}

// next waits for a batch. While the watch is unarmed the wait is bounded by
// the re-arm interval so that re-arming is retried without new events.
func (d *Dispatcher) next(ctx context.Context, armed bool) ([]watch.Notification, error) {
	if armed {
		return d.source.Next(ctx)
	}
	waitCtx, cancel := context.WithTimeout(ctx, d.rearmInterval)
	defer cancel()
	return d.source.Next(waitCtx)
}

// rearm re-registers the watch and reports whether it is armed. Files created
// while the root was unwatched produced no events, so recovering from an
// unarmed state sweeps the root.
func (d *Dispatcher) rearm(ctx context.Context, wasArmed bool) bool {
	err := d.source.Rearm()
	switch {
	case err == nil || errors.Is(err, watch.ErrClosed):
		if !wasArmed && err == nil {
			d.logger.Info("watch re-armed", logging.String(logging.FieldEventType, "watch_rearmed"))
			d.Sweep(ctx)
		}
		return true
	case wasArmed:
		d.logger.Warn("failed to re-arm watch; retrying",
			logging.Error(err),
			logging.Duration("interval", d.rearmInterval),
			logging.String(logging.FieldErrorHint, "recreate the watch root directory"),
		)
	default:
		d.logger.Debug("re-arm still failing", logging.Error(err))
	}
	return false
}

func (d *Dispatcher) handleBatch(ctx context.Context, batch []watch.Notification) {
	overflow := false
	for _, n := range batch {
		if d.metrics != nil {
			d.metrics.EventObserved(n.Kind.String())
		}
		switch n.Kind {
		case watch.Overflow:
			overflow = true
		case watch.Create:
			d.dispatch(ctx, n.Path)
		}
	}
	if overflow {
		d.Sweep(ctx)
	}
}

// Sweep dispatches every regular file currently at the top level of the root
// and returns how many were handed to workers.
func (d *Dispatcher) Sweep(ctx context.Context) int {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		d.logger.Warn("sweep failed", logging.Error(err))
		return 0
	}
	var count int
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if d.dispatch(ctx, filepath.Join(d.root, entry.Name())) {
			count++
		}
	}
	d.logger.Info("swept watch root",
		logging.Int("dispatched", count),
		logging.String(logging.FieldEventType, "watch_root_swept"),
	)
	return count
}

// Wait blocks until all started workers have finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) dispatch(ctx context.Context, path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		d.logger.Debug("unresolvable path dropped", logging.String(logging.FieldSource, path), logging.Error(err))
		return false
	}
	if filepath.Dir(abs) != d.root {
		d.logger.Debug("not a top-level entry", logging.String(logging.FieldSource, abs))
		return false
	}
	name := filepath.Base(abs)
	if d.ignored(name) {
		d.logger.Debug("ignored by pattern", logging.String(logging.FieldFile, name))
		return false
	}
	if info, err := os.Lstat(abs); err == nil && info.IsDir() {
		return false
	}
	if !d.inflight.Begin(abs) {
		d.logger.Debug("already in flight", logging.String(logging.FieldFile, name))
		return false
	}
	if err := d.sem.Acquire(ctx, 1); err != nil {
		d.inflight.End(abs)
		return false
	}

	ev := organizer.NewEvent(abs, d.now())
	d.wg.Add(1)
	go d.work(ctx, ev)
	return true
}

func (d *Dispatcher) ignored(name string) bool {
	for _, pattern := range d.ignore {
		if ok, _ := doublestar.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

func (d *Dispatcher) work(ctx context.Context, ev organizer.FileEvent) {
	defer d.wg.Done()
	defer d.sem.Release(1)
	if d.metrics != nil {
		d.metrics.WorkerStarted()
		defer d.metrics.WorkerFinished()
	}
	result := d.process(ctx, ev)
	// The source path is free again once processing returns; a new file of
	// the same name must not be dropped while this result is reported.
	d.inflight.End(ev.Path)
	if result.Event.ID == "" {
		result.Event = ev
	}
	if result.Source == "" {
		result.Source = ev.Path
	}
	d.report(result)
}

func (d *Dispatcher) process(ctx context.Context, ev organizer.FileEvent) (result organizer.Result) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("worker panic",
				logging.String(logging.FieldEventID, ev.ID),
				logging.Any("panic", r),
				logging.String("stack", string(debug.Stack())),
			)
			err := services.Wrap(services.ErrTransient, "dispatching", "worker", fmt.Sprintf("panic: %v", r), nil)
			result = organizer.Result{
				Event:   ev,
				Source:  ev.Path,
				Outcome: organizer.OutcomeFailed,
				Reason:  services.Kind(err),
				Err:     err,
			}
		}
	}()
	return d.processor.Process(ctx, ev)
}

func (d *Dispatcher) report(result organizer.Result) {
	args := logging.Args(result.Attrs()...)
	switch result.Outcome {
	case organizer.OutcomeMoved:
		d.moved.Add(1)
		d.logger.Info("file organized", args...)
	case organizer.OutcomeSkipped:
		d.skipped.Add(1)
		d.logger.Info("file skipped", args...)
	default:
		d.failed.Add(1)
		d.logger.Warn("file not organized", args...)
	}
	if d.metrics != nil {
		d.metrics.ResultObserved(result)
	}
	if d.onResult != nil {
		d.onResult(result)
	}
}

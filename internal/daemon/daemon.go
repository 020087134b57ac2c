package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"dropsort/internal/config"
	"dropsort/internal/coord"
	"dropsort/internal/dispatch"
	"dropsort/internal/logging"
	"dropsort/internal/metrics"
	"dropsort/internal/organizer"
	"dropsort/internal/preflight"
	"dropsort/internal/settle"
	"dropsort/internal/watch"
)

const shutdownTimeout = 5 * time.Second

// Daemon runs the watch loop and enforces single-instance execution.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger

	lockPath string
	lock     *flock.Flock

	mu         sync.Mutex
	running    atomic.Bool
	cancel     context.CancelFunc
	done       chan struct{}
	runErr     error
	dispatcher *dispatch.Dispatcher
	source     *watch.Source
	recorder   *metrics.Recorder
	server     *metrics.Server
	startedAt  time.Time
	onResult   func(organizer.Result)
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	State        dispatch.State
	WatchRoot    string
	LockFilePath string
	MetricsAddr  string
	StartedAt    time.Time
	Stats        dispatch.Stats
	Restarts     int
}

// New constructs a daemon for cfg.
func New(cfg *config.Config, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires config")
	}
	lockPath := cfg.LockPath()
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// OnResult registers a hook called for every organize result. It must be set
// before Start.
func (d *Daemon) OnResult(fn func(organizer.Result)) {
	d.mu.Lock()
	d.onResult = fn
	d.mu.Unlock()
}

// Start acquires the lock, runs preflight checks and launches the watch loop.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	if err := d.cfg.EnsureDirectories(); err != nil {
		return err
	}
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another dropsort watcher is already running for this watch root")
	}

	if err := d.launch(ctx); err != nil {
		_ = d.lock.Unlock()
		return err
	}

	d.running.Store(true)
	d.logger.Info("dropsort daemon started",
		logging.String("lock", d.lockPath),
		logging.String("root", d.cfg.Paths.WatchRoot),
		logging.Int("workers", d.cfg.Watch.Workers),
		logging.String(logging.FieldEventType, "daemon_started"),
	)
	return nil
}

func (d *Daemon) launch(ctx context.Context) error {
	results := preflight.RunAll(ctx, d.cfg)
	for _, result := range results {
		if !result.Passed {
			d.logger.Warn("preflight check failed",
				logging.String("check", result.Name),
				logging.String("detail", result.Detail),
				logging.Bool("optional", result.Optional),
			)
		}
	}
	if err := preflight.Err(results); err != nil {
		return err
	}

	root := d.cfg.Paths.WatchRoot
	source, err := watch.New(root, watch.Options{MaxBatch: d.cfg.Watch.MaxBatch, Logger: d.logger})
	if err != nil {
		return fmt.Errorf("open watch: %w", err)
	}

	placer, err := organizer.NewPlacer(root, coord.NewGuard(), d.logger)
	if err != nil {
		_ = source.Close()
		return err
	}
	pipeline := organizer.NewPipeline(settle.New(d.cfg.Watch.SettleAttempts, d.cfg.SettleInterval()), placer, d.logger)
	recorder := metrics.New()
	dispatcher, err := dispatch.New(dispatch.Options{
		Root:         root,
		Source:       source,
		Processor:    pipeline,
		Workers:      d.cfg.Watch.Workers,
		Ignore:       d.cfg.Watch.IgnorePatterns,
		SweepOnStart: d.cfg.Watch.SweepOnStart,
		Logger:       d.logger,
		Metrics:      recorder,
		OnResult:     d.onResult,
	})
	if err != nil {
		_ = source.Close()
		return err
	}

	var server *metrics.Server
	if bind := d.cfg.Metrics.Bind; bind != "" {
		server, err = metrics.NewServer(bind, recorder, d.healthy)
		if err != nil {
			_ = source.Close()
			return fmt.Errorf("start metrics server: %w", err)
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	group, groupCtx := errgroup.WithContext(runCtx)
	group.Go(func() error {
		defer cancel()
		defer source.Close()
		return dispatcher.Run(groupCtx)
	})
	if server != nil {
		group.Go(server.Serve)
		group.Go(func() error {
			<-groupCtx.Done()
			stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer stopCancel()
			return server.Stop(stopCtx)
		})
		d.logger.Info("metrics server listening", logging.String("addr", server.Addr()))
	}

	done := make(chan struct{})
	go func() {
		err := group.Wait()
		cancel()
		d.mu.Lock()
		d.runErr = err
		d.mu.Unlock()
		close(done)
	}()

	d.cancel = cancel
	d.done = done
	d.runErr = nil
	d.dispatcher = dispatcher
	d.source = source
	d.recorder = recorder
	d.server = server
	d.startedAt = time.Now()
	return nil
}

// Wait blocks until the watch loop exits and returns its terminal error. It
// returns immediately when the daemon was never started.
func (d *Daemon) Wait() error {
	d.mu.Lock()
	done := d.done
	d.mu.Unlock()
	if done == nil {
		return nil
	}
	<-done
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.runErr
}

// Stop cancels the watch loop, waits for in-flight workers and releases the lock.
func (d *Daemon) Stop() {
	d.mu.Lock()
	if !d.running.Load() {
		d.mu.Unlock()
		return
	}
	cancel, done := d.cancel, d.done
	d.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.cancel = nil
	d.running.Store(false)
	d.logger.Info("dropsort daemon stopped", logging.String(logging.FieldEventType, "daemon_stopped"))
}

// Status reports the daemon state.
func (d *Daemon) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	status := Status{
		Running:      d.running.Load(),
		State:        dispatch.StateIdle,
		WatchRoot:    d.cfg.Paths.WatchRoot,
		LockFilePath: d.lockPath,
		StartedAt:    d.startedAt,
	}
	if d.dispatcher != nil {
		status.State = d.dispatcher.State()
		status.Stats = d.dispatcher.Stats()
	}
	if d.source != nil {
		status.Restarts = d.source.Restarts()
	}
	if d.server != nil {
		status.MetricsAddr = d.server.Addr()
	}
	return status
}

// Metrics returns the recorder of the current run, or nil before Start.
func (d *Daemon) Metrics() *metrics.Recorder {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.recorder
}

func (d *Daemon) healthy() bool {
	d.mu.Lock()
	dispatcher := d.dispatcher
	d.mu.Unlock()
	return d.running.Load() && dispatcher != nil && dispatcher.State() != dispatch.StateStopped
}

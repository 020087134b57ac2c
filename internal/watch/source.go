package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"

	"dropsort/internal/logging"
)

// Source delivers batches of notifications for one directory. Next and Rearm
// must be called from a single goroutine; Close may be called from any.
type Source struct {
	root       string
	opts       Options
	logger     *slog.Logger
	newWatcher func() (*fsnotify.Watcher, error)

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	closed  bool

	events chan fsnotify.Event
	errs   chan error
	done   chan struct{}
	wg     sync.WaitGroup

	// Owned by the Next goroutine.
	pending  error
	failed   error
	restarts int

	totalRestarts atomic.Int64
}

// New registers a non-recursive watch on root, which must be an existing directory.
func New(root string, opts Options) (*Source, error) {
	root = filepath.Clean(root)
	if !filepath.IsAbs(root) {
		return nil, fmt.Errorf("watch root %q must be absolute", root)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("watch root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch root %s is not a directory", root)
	}

	opts = opts.withDefaults()
	source := &Source{
		root:       root,
		opts:       opts,
		logger:     logging.NewComponentLogger(opts.Logger, "watch"),
		newWatcher: fsnotify.NewWatcher,
		events:     make(chan fsnotify.Event, opts.Buffer),
		errs:       make(chan error, 4),
		done:       make(chan struct{}),
	}

	watcher, err := source.openWatcher()
	if err != nil {
		return nil, err
	}
	source.watcher = watcher
	source.startForwarder(watcher)
	return source, nil
}

// Root returns the watched directory.
func (s *Source) Root() string { return s.root }

// Restarts reports how many times the underlying watcher has been replaced.
func (s *Source) Restarts() int { return int(s.totalRestarts.Load()) }

// Next blocks until at least one notification is available, then returns it
// together with any others already queued, up to MaxBatch.
func (s *Source) Next(ctx context.Context) ([]Notification, error) {
	for {
		if s.isClosed() {
			return nil, ErrClosed
		}
		if s.failed != nil {
			return nil, s.failed
		}
		if err := s.pending; err != nil {
			s.pending = nil
			if recoverErr := s.recoverFrom(ctx, err); recoverErr != nil {
				return nil, recoverErr
			}
			continue
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-s.done:
			return nil, ErrClosed
		case event := <-s.events:
			return s.drain([]Notification{s.notification(event)}), nil
		case err := <-s.errs:
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				s.logger.Warn("kernel event queue overflowed",
					logging.String(logging.FieldEventType, "watch_overflow"),
					logging.String(logging.FieldErrorHint, "raise fs.inotify.max_queued_events if this repeats"),
				)
				return s.drain([]Notification{{Kind: Overflow}}), nil
			}
			if recoverErr := s.recoverFrom(ctx, err); recoverErr != nil {
				return nil, recoverErr
			}
		}
	}
}

func (s *Source) drain(batch []Notification) []Notification {
	for len(batch) < s.opts.MaxBatch {
		select {
		case event := <-s.events:
			batch = append(batch, s.notification(event))
		case err := <-s.errs:
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				batch = append(batch, Notification{Kind: Overflow})
				continue
			}
			s.pending = err
			return batch
		default:
			return batch
		}
	}
	return batch
}

func (s *Source) notification(event fsnotify.Event) Notification {
	path := filepath.Clean(event.Name)
	kind := Other
	if event.Has(fsnotify.Create) {
		kind = Create
	}
	return Notification{Kind: kind, Name: filepath.Base(path), Path: path, Op: event.Op}
}

// Rearm re-registers the root when the kernel has dropped the watch, which
// happens when the directory is removed and recreated.
func (s *Source) Rearm() error {
	s.mu.Lock()
	watcher, closed := s.watcher, s.closed
	s.mu.Unlock()
	if closed {
		return ErrClosed
	}
	if slices.Contains(watcher.WatchList(), s.root) {
		return nil
	}
	info, err := os.Stat(s.root)
	if err != nil {
		return fmt.Errorf("watch root unavailable: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch root %s is not a directory", s.root)
	}
	if err := watcher.Add(s.root); err != nil {
		return fmt.Errorf("re-add watch: %w", err)
	}
	s.logger.Info("watch re-armed", logging.String("root", s.root))
	return nil
}

// Close stops the watcher. It is safe to call more than once.
func (s *Source) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	watcher := s.watcher
	s.watcher = nil
	close(s.done)
	s.mu.Unlock()

	var err error
	if watcher != nil {
		err = watcher.Close()
	}
	s.wg.Wait()
	return err
}

func (s *Source) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Source) openWatcher() (*fsnotify.Watcher, error) {
	watcher, err := s.newWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(s.root); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", s.root, err)
	}
	return watcher, nil
}

func (s *Source) startForwarder(source *fsnotify.Watcher) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case event, ok := <-source.Events:
				if !ok {
					return
				}
				select {
				case s.events <- event:
				case <-s.done:
					return
				}
			case err, ok := <-source.Errors:
				if !ok {
					return
				}
				select {
				case s.errs <- err:
				case <-s.done:
					return
				}
			case <-s.done:
				return
			}
		}
	}()
}

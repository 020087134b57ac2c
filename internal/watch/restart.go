package watch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dropsort/internal/logging"
)

func restartDelay(base time.Duration, attempt int) time.Duration {
	return base * time.Duration(1<<attempt)
}

// recoverFrom replaces the underlying watcher after cause, backing off between
// attempts. It returns a terminal error once MaxRestarts consecutive attempts
// have failed.
func (s *Source) recoverFrom(ctx context.Context, cause error) error {
	s.logger.Warn("watcher error",
		logging.Error(cause),
		logging.String(logging.FieldEventType, "watch_error"),
	)
	for {
		if s.restarts >= s.opts.MaxRestarts {
			s.failed = fmt.Errorf("watch %s: giving up after %d restart attempts: %w", s.root, s.restarts, cause)
			s.logger.Error("watcher restart attempts exhausted",
				logging.Error(cause),
				logging.String(logging.FieldEventType, "watch_failed"),
			)
			return s.failed
		}
		delay := restartDelay(s.opts.RestartBaseDelay, s.restarts)
		s.restarts++

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-s.done:
			timer.Stop()
			return ErrClosed
		case <-timer.C:
		}

		if err := s.restart(); err != nil {
			if errors.Is(err, ErrClosed) {
				return err
			}
			s.logger.Warn("watcher restart failed",
				logging.Error(err),
				logging.Int("attempt", s.restarts),
			)
			cause = err
			continue
		}
		s.logger.Info("watcher restarted", logging.Int("attempt", s.restarts))
		s.restarts = 0
		s.totalRestarts.Add(1)
		return nil
	}
}

func (s *Source) restart() error {
	replacement, err := s.openWatcher()
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = replacement.Close()
		return ErrClosed
	}
	previous := s.watcher
	s.watcher = replacement
	s.startForwarder(replacement)
	s.mu.Unlock()

	if previous != nil {
		_ = previous.Close()
	}
	return nil
}

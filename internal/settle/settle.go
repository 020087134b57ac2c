// Package settle waits for freshly reported paths to become visible before
// they are organized.
//
// Settling only checks existence. A file that is still being written by its
// producer will report Ready as soon as it appears.
package settle

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"time"
)

// Status is the outcome of a settle attempt.
type Status int

const (
	// NotFound means the path never appeared within the retry budget.
	NotFound Status = iota
	// Ready means the path exists and is a regular file.
	Ready
	// Skip means the path exists but is a directory or other non-regular entry.
	Skip
)

func (s Status) String() string {
	switch s {
	case Ready:
		return "ready"
	case Skip:
		return "skip"
	default:
		return "not_found"
	}
}

const (
	DefaultAttempts = 5
	DefaultInterval = 500 * time.Millisecond
)

// StatFunc matches os.Stat and lets tests script filesystem visibility.
type StatFunc func(string) (fs.FileInfo, error)

// Settler polls a path until it exists or the retry budget runs out.
type Settler struct {
	// Attempts is the number of rechecks after the initial check.
	Attempts int
	// Interval is the wait before each recheck.
	Interval time.Duration

	stat StatFunc
}

// New returns a Settler with the given budget. Non-positive values fall back to
// the defaults.
func New(attempts int, interval time.Duration) *Settler {
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Settler{Attempts: attempts, Interval: interval, stat: os.Stat}
}

// WithStat replaces the stat implementation.
func (s *Settler) WithStat(fn StatFunc) *Settler {
	if fn != nil {
		s.stat = fn
	}
	return s
}

// Settle checks path once and then up to Attempts more times, waiting Interval
// before each recheck. Context cancellation stops the wait early and returns
// NotFound with the context error.
func (s *Settler) Settle(ctx context.Context, path string) (Status, error) {
	stat := s.stat
	if stat == nil {
		stat = os.Stat
	}
	var timer *time.Timer
	for attempt := 0; ; attempt++ {
		info, err := stat(path)
		if err == nil {
			if info.Mode().IsRegular() {
				return Ready, nil
			}
			return Skip, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return NotFound, err
		}
		if attempt >= s.Attempts {
			return NotFound, nil
		}

		if timer == nil {
			timer = time.NewTimer(s.Interval)
			defer timer.Stop()
		} else {
			timer.Reset(s.Interval)
		}
		select {
		case <-ctx.Done():
			return NotFound, ctx.Err()
		case <-timer.C:
		}
	}
}

package watch

import (
	"errors"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	defaultMaxBatch    = 64
	defaultBuffer      = 256
	maxRestartAttempts = 3
	restartBaseDelay   = 200 * time.Millisecond
)

// ErrClosed is returned by Next and Rearm after Close.
var ErrClosed = errors.New("watch source closed")

// Kind classifies a notification.
type Kind int

const (
	// Other covers writes, removals, renames and attribute changes.
	Other Kind = iota
	// Create reports a new entry in the watch root.
	Create
	// Overflow reports that the kernel dropped events; the root should be rescanned.
	Overflow
)

func (k Kind) String() string {
	switch k {
	case Create:
		return "create"
	case Overflow:
		return "overflow"
	default:
		return "other"
	}
}

// Notification is one entry of a batch returned by Next.
type Notification struct {
	Kind Kind
	// Name is the base name of the entry. Empty for Overflow.
	Name string
	// Path is the absolute path of the entry. Empty for Overflow.
	Path string
	Op   fsnotify.Op
}

// Options tunes a Source.
type Options struct {
	// MaxBatch caps the notifications returned by one Next call.
	MaxBatch int
	// Buffer is the capacity of the internal event queue.
	Buffer int
	// RestartBaseDelay is the first restart backoff; each retry doubles it.
	RestartBaseDelay time.Duration
	// MaxRestarts bounds consecutive restart attempts before Next fails.
	MaxRestarts int
	Logger      *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.MaxBatch <= 0 {
		o.MaxBatch = defaultMaxBatch
	}
	if o.Buffer <= 0 {
		o.Buffer = defaultBuffer
	}
	if o.RestartBaseDelay <= 0 {
		o.RestartBaseDelay = restartBaseDelay
	}
	if o.MaxRestarts <= 0 {
		o.MaxRestarts = maxRestartAttempts
	}
	return o
}

package organizer

import (
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"dropsort/internal/classify"
	"dropsort/internal/fileutil"
	"dropsort/internal/logging"
	"dropsort/internal/services"
)

// FileEvent is one creation notification for a top-level entry of the watch root.
type FileEvent struct {
	ID         string
	Name       string
	Path       string
	DetectedAt time.Time
}

// NewEvent builds an event for path stamped with a fresh correlation ID.
func NewEvent(path string, detectedAt time.Time) FileEvent {
	return FileEvent{
		ID:         uuid.NewString(),
		Name:       filepath.Base(path),
		Path:       path,
		DetectedAt: detectedAt,
	}
}

// Outcome classifies a placement attempt.
type Outcome string

const (
	OutcomeMoved   Outcome = "moved"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// Skip reasons.
const (
	ReasonAlreadyOrganized = "already organized"
	ReasonNotRegular       = "not a regular file"
)

// Result reports what happened to a single file.
type Result struct {
	Event       FileEvent
	Source      string
	Destination string
	Category    classify.Category
	Outcome     Outcome
	Reason      string
	Err         error
	// Renamed is set when the destination name carries a collision suffix.
	Renamed bool
	Method  fileutil.Method
	// ContentType is the sniffed MIME type for files classified as Others.
	ContentType string
	Elapsed     time.Duration
}

func moved(src, dest string, category classify.Category, renamed bool, method fileutil.Method) Result {
	return Result{Source: src, Destination: dest, Category: category, Outcome: OutcomeMoved, Renamed: renamed, Method: method}
}

func skipped(src string, category classify.Category, reason string) Result {
	return Result{Source: src, Category: category, Outcome: OutcomeSkipped, Reason: reason}
}

func failed(src string, category classify.Category, err error) Result {
	return Result{Source: src, Category: category, Outcome: OutcomeFailed, Reason: services.Kind(err), Err: err}
}

// Attrs returns the structured log fields describing r.
func (r Result) Attrs() []logging.Attr {
	attrs := []logging.Attr{
		logging.String(logging.FieldOutcome, string(r.Outcome)),
		logging.String(logging.FieldSource, r.Source),
	}
	if r.Event.ID != "" {
		attrs = append(attrs, logging.String(logging.FieldEventID, r.Event.ID))
	}
	if r.Category != "" {
		attrs = append(attrs, logging.String(logging.FieldCategory, string(r.Category)))
	}
	if r.Destination != "" {
		attrs = append(attrs, logging.String(logging.FieldDestination, r.Destination))
	}
	if r.Renamed {
		attrs = append(attrs, logging.Bool("renamed", true))
	}
	if r.Method == fileutil.MethodCopy {
		attrs = append(attrs, logging.String("method", string(r.Method)))
	}
	if r.ContentType != "" {
		attrs = append(attrs, logging.String("content_type", r.ContentType))
	}
	if r.Reason != "" {
		attrs = append(attrs, logging.String(logging.FieldReason, r.Reason))
	}
	if r.Err != nil {
		attrs = append(attrs,
			logging.String(logging.FieldErrorKind, services.Kind(r.Err)),
			logging.Error(r.Err),
		)
	}
	if r.Elapsed > 0 {
		attrs = append(attrs, logging.Duration("elapsed", r.Elapsed))
	}
	return attrs
}

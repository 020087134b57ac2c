package organizer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"dropsort/internal/classify"
	"dropsort/internal/logging"
	"dropsort/internal/services"
	"dropsort/internal/settle"
)

const stageSettling = "settling"

// Pipeline runs settle, classify and place for one file event.
type Pipeline struct {
	settler *settle.Settler
	placer  *Placer
	logger  *slog.Logger
	sniff   func(path string) (string, error)
	now     func() time.Time
}

// NewPipeline wires the settle and placement steps. A nil settler uses the
// default retry budget.
func NewPipeline(settler *settle.Settler, placer *Placer, logger *slog.Logger) *Pipeline {
	if settler == nil {
		settler = settle.New(settle.DefaultAttempts, settle.DefaultInterval)
	}
	return &Pipeline{
		settler: settler,
		placer:  placer,
		logger:  logging.NewComponentLogger(logger, "pipeline"),
		sniff:   sniffContentType,
		now:     time.Now,
	}
}

// Placer exposes the placement step.
func (p *Pipeline) Placer() *Placer { return p.placer }

// Process organizes the file named by ev and reports what happened.
func (p *Pipeline) Process(ctx context.Context, ev FileEvent) Result {
	start := p.now()
	ctx = services.WithEventID(ctx, ev.ID)
	ctx = services.WithFileName(ctx, ev.Name)

	result := p.process(ctx, ev)
	result.Event = ev
	if result.Source == "" {
		result.Source = ev.Path
	}
	result.Elapsed = p.now().Sub(start)
	return result
}

func (p *Pipeline) process(ctx context.Context, ev FileEvent) Result {
	logger := logging.WithContext(ctx, p.logger)

	status, err := p.settler.Settle(ctx, ev.Path)
	if err != nil {
		marker := services.ErrPermission
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			marker = services.ErrTransient
		}
		return failed(ev.Path, "", services.Wrap(marker, stageSettling, "stat", "unable to inspect file", err))
	}
	switch status {
	case settle.NotFound:
		return failed(ev.Path, "", services.Wrap(services.ErrNotFound, stageSettling, "wait for file", "file did not appear within settle budget", nil))
	case settle.Skip:
		return skipped(ev.Path, "", ReasonNotRegular)
	}

	category := classify.Classify(ev.Name)
	var contentType string
	if category == classify.Others && p.sniff != nil {
		if mime, sniffErr := p.sniff(ev.Path); sniffErr == nil {
			contentType = mime
		} else {
			logger.Debug("content sniff failed", logging.Error(sniffErr))
		}
	}
	logger.Debug("file classified",
		logging.String(logging.FieldCategory, string(category)),
		logging.String("content_type", contentType),
	)

	result := p.placer.Place(ctx, ev.Path, category)
	result.ContentType = contentType
	return result
}

func sniffContentType(path string) (string, error) {
	mime, err := mimetype.DetectFile(path)
	if err != nil {
		return "", err
	}
	return mime.String(), nil
}

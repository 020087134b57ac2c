package organizer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dropsort/internal/classify"
	"dropsort/internal/coord"
	"dropsort/internal/fileutil"
	"dropsort/internal/logging"
	"dropsort/internal/services"
)

const (
	stagePlacing      = "placing"
	maxMoveAttempts   = 5
	categoryDirPerm   = 0o755
	dirGuardKeyPrefix = "dir:"
)

// Placer moves files into category directories beneath a fixed root.
type Placer struct {
	root   string
	guard  *coord.Guard
	logger *slog.Logger
	now    func() time.Time
	move   func(src, dst string) (fileutil.Method, error)
}

// NewPlacer returns a Placer rooted at root, which must be an absolute path.
// A nil guard gets a private one.
func NewPlacer(root string, guard *coord.Guard, logger *slog.Logger) (*Placer, error) {
	root = strings.TrimSpace(root)
	if root == "" || !filepath.IsAbs(root) {
		return nil, services.Wrap(services.ErrConfiguration, stagePlacing, "resolve root", fmt.Sprintf("watch root %q must be an absolute path", root), nil)
	}
	if guard == nil {
		guard = coord.NewGuard()
	}
	return &Placer{
		root:   filepath.Clean(root),
		guard:  guard,
		logger: logging.NewComponentLogger(logger, "placer"),
		now:    time.Now,
		move:   fileutil.Move,
	}, nil
}

// WithClock replaces the clock used for collision timestamps.
func (p *Placer) WithClock(now func() time.Time) *Placer {
	if now != nil {
		p.now = now
	}
	return p
}

// Root returns the watch root.
func (p *Placer) Root() string { return p.root }

// CategoryDir returns the directory files of category are moved into.
func (p *Placer) CategoryDir(category classify.Category) string {
	return filepath.Join(p.root, string(category))
}

// Place moves src into the directory for category. The source is left in place
// on every outcome other than Moved.
func (p *Placer) Place(ctx context.Context, src string, category classify.Category) Result {
	logger := logging.WithContext(ctx, p.logger)
	name := filepath.Base(src)
	if name == "." || name == string(filepath.Separator) || name == "" {
		return failed(src, category, services.Wrap(services.ErrValidation, stagePlacing, "resolve name", "source path has no file name", nil))
	}

	destDir := p.CategoryDir(category)
	if filepath.Dir(filepath.Clean(src)) == destDir {
		return skipped(src, category, ReasonAlreadyOrganized)
	}

	if err := p.ensureDir(destDir); err != nil {
		logger.Warn("category directory unavailable",
			logging.String("dir", destDir),
			logging.Error(err),
			logging.String(logging.FieldEventType, "category_dir_failed"),
			logging.String(logging.FieldErrorHint, "check permissions and free space on the watch root"),
		)
		return failed(src, category, services.Wrap(services.ErrPermission, stagePlacing, "ensure category dir", fmt.Sprintf("create %s", destDir), err))
	}

	unlock := p.guard.Lock(filepath.Join(destDir, name))
	defer unlock()

	var lastErr error
	for attempt := 1; attempt <= maxMoveAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return failed(src, category, services.Wrap(services.ErrTransient, stagePlacing, "move", "cancelled before move", err))
		}
		dest, renamed, err := p.resolveDestination(destDir, name)
		if err != nil {
			return failed(src, category, services.Wrap(services.ErrPermission, stagePlacing, "resolve destination", "unable to allocate destination name", err))
		}

		method, err := p.move(src, dest)
		if err == nil {
			logger.Debug("file moved",
				logging.String(logging.FieldDestination, dest),
				logging.Int("attempt", attempt),
				logging.String("method", string(method)),
			)
			return moved(src, dest, category, renamed, method)
		}
		if errors.Is(err, fs.ErrExist) {
			// Another writer claimed the name after it was resolved.
			lastErr = err
			logger.Debug("destination appeared before move; resolving again",
				logging.String(logging.FieldDestination, dest),
				logging.Int("attempt", attempt),
			)
			continue
		}
		marker := services.ErrPermission
		if errors.Is(err, fs.ErrNotExist) {
			if _, statErr := os.Lstat(src); errors.Is(statErr, fs.ErrNotExist) {
				marker = services.ErrNotFound
			}
		}
		return failed(src, category, services.Wrap(marker, stagePlacing, "move", fmt.Sprintf("move to %s", dest), err))
	}
	return failed(src, category, services.Wrap(services.ErrPermission, stagePlacing, "move", "destination kept changing under concurrent writers", lastErr))
}

func (p *Placer) ensureDir(dir string) error {
	unlock := p.guard.Lock(dirGuardKeyPrefix + dir)
	defer unlock()
	if err := os.MkdirAll(dir, categoryDirPerm); err != nil {
		return err
	}
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s exists and is not a directory", dir)
	}
	return nil
}

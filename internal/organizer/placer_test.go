package organizer_test

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"testing"
	"time"

	"dropsort/internal/classify"
	"dropsort/internal/coord"
	"dropsort/internal/fileutil"
	"dropsort/internal/logging"
	"dropsort/internal/organizer"
	"dropsort/internal/services"
	"dropsort/internal/testsupport"
)

var fixedNow = time.Date(2024, time.March, 5, 14, 7, 9, 0, time.Local)

func newPlacer(t *testing.T, root string) *organizer.Placer {
	t.Helper()
	placer, err := organizer.NewPlacer(root, coord.NewGuard(), logging.NewNop())
	if err != nil {
		t.Fatalf("NewPlacer: %v", err)
	}
	return placer.WithClock(func() time.Time { return fixedNow })
}

func TestNewPlacerRejectsRelativeRoot(t *testing.T) {
	if _, err := organizer.NewPlacer("downloads", nil, nil); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestPlaceMovesIntoCategoryDir(t *testing.T) {
	root := t.TempDir()
	src := testsupport.WriteText(t, filepath.Join(root, "photo.jpg"), "jpeg")

	result := newPlacer(t, root).Place(context.Background(), src, classify.Images)
	if result.Outcome != organizer.OutcomeMoved {
		t.Fatalf("expected moved, got %s (%v)", result.Outcome, result.Err)
	}
	want := filepath.Join(root, "Images", "photo.jpg")
	if result.Destination != want {
		t.Fatalf("destination = %s, want %s", result.Destination, want)
	}
	if result.Renamed {
		t.Fatal("expected plain name")
	}
	testsupport.AssertMissing(t, src)
	testsupport.AssertContent(t, want, "jpeg")
}

func TestPlaceSkipsAlreadyOrganized(t *testing.T) {
	root := t.TempDir()
	src := testsupport.WriteText(t, filepath.Join(root, "Documents", "notes.txt"), "notes")

	result := newPlacer(t, root).Place(context.Background(), src, classify.Documents)
	if result.Outcome != organizer.OutcomeSkipped || result.Reason != organizer.ReasonAlreadyOrganized {
		t.Fatalf("expected already organized skip, got %s %q", result.Outcome, result.Reason)
	}
	testsupport.AssertContent(t, src, "notes")
	entries, err := os.ReadDir(filepath.Join(root, "Documents"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected directory unchanged, found %d entries", len(entries))
	}
}

func TestPlaceMovesWhenRootIsNamedAfterCategory(t *testing.T) {
	root := filepath.Join(t.TempDir(), "Documents")
	src := testsupport.WriteText(t, filepath.Join(root, "report.pdf"), "pdf")

	result := newPlacer(t, root).Place(context.Background(), src, classify.Documents)
	if result.Outcome != organizer.OutcomeMoved {
		t.Fatalf("expected moved, got %s %q (%v)", result.Outcome, result.Reason, result.Err)
	}
	want := filepath.Join(root, "Documents", "report.pdf")
	if result.Destination != want {
		t.Fatalf("destination = %q, want %q", result.Destination, want)
	}
	testsupport.AssertContent(t, want, "pdf")
	testsupport.AssertMissing(t, src)
}

func TestPlaceCollisionInsertsTimestamp(t *testing.T) {
	root := t.TempDir()
	existing := testsupport.WriteText(t, filepath.Join(root, "Documents", "report.pdf"), "first")
	src := testsupport.WriteText(t, filepath.Join(root, "report.pdf"), "second")

	result := newPlacer(t, root).Place(context.Background(), src, classify.Documents)
	if result.Outcome != organizer.OutcomeMoved {
		t.Fatalf("expected moved, got %s (%v)", result.Outcome, result.Err)
	}
	if !result.Renamed {
		t.Fatal("expected renamed destination")
	}
	name := filepath.Base(result.Destination)
	pattern := regexp.MustCompile(`^report_\d{8}_\d{6}\.pdf$`)
	if !pattern.MatchString(name) {
		t.Fatalf("unexpected collision name %q", name)
	}
	if name != "report_20240305_140709.pdf" {
		t.Fatalf("collision name %q does not use the clock", name)
	}
	testsupport.AssertContent(t, existing, "first")
	testsupport.AssertContent(t, result.Destination, "second")
	testsupport.AssertMissing(t, src)
}

func TestPlaceSameSecondCollisionAddsCounter(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteText(t, filepath.Join(root, "Documents", "report.pdf"), "a")
	testsupport.WriteText(t, filepath.Join(root, "Documents", "report_20240305_140709.pdf"), "b")
	src := testsupport.WriteText(t, filepath.Join(root, "report.pdf"), "c")

	result := newPlacer(t, root).Place(context.Background(), src, classify.Documents)
	if result.Outcome != organizer.OutcomeMoved {
		t.Fatalf("expected moved, got %s (%v)", result.Outcome, result.Err)
	}
	if got := filepath.Base(result.Destination); got != "report_20240305_140709-2.pdf" {
		t.Fatalf("unexpected name %q", got)
	}
}

func TestPlaceCollisionWithoutExtension(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteText(t, filepath.Join(root, "Others", "README"), "old")
	src := testsupport.WriteText(t, filepath.Join(root, "README"), "new")

	result := newPlacer(t, root).Place(context.Background(), src, classify.Others)
	if result.Outcome != organizer.OutcomeMoved {
		t.Fatalf("expected moved, got %s (%v)", result.Outcome, result.Err)
	}
	if got := filepath.Base(result.Destination); got != "README_20240305_140709" {
		t.Fatalf("unexpected name %q", got)
	}
}

func TestPlaceConcurrentDistinctFiles(t *testing.T) {
	root := t.TempDir()
	a := testsupport.WriteText(t, filepath.Join(root, "a.pdf"), "a")
	b := testsupport.WriteText(t, filepath.Join(root, "b.pdf"), "b")
	placer := newPlacer(t, root)

	var wg sync.WaitGroup
	results := make([]organizer.Result, 2)
	for i, src := range []string{a, b} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = placer.Place(context.Background(), src, classify.Documents)
		}()
	}
	wg.Wait()

	for _, result := range results {
		if result.Outcome != organizer.OutcomeMoved {
			t.Fatalf("expected moved, got %s (%v)", result.Outcome, result.Err)
		}
	}
	testsupport.AssertContent(t, filepath.Join(root, "Documents", "a.pdf"), "a")
	testsupport.AssertContent(t, filepath.Join(root, "Documents", "b.pdf"), "b")
	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "Documents" {
		t.Fatalf("expected only the Documents directory, got %v", entries)
	}
}

func TestPlaceConcurrentSameNameNeverOverwrites(t *testing.T) {
	root := t.TempDir()
	placer := newPlacer(t, root)
	const n = 12
	sources := make([]string, n)
	for i := range n {
		sources[i] = testsupport.WriteText(t, filepath.Join(root, fmt.Sprintf("in%d", i), "report.pdf"), fmt.Sprintf("copy-%d", i))
	}

	var wg sync.WaitGroup
	results := make([]organizer.Result, n)
	for i, src := range sources {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = placer.Place(context.Background(), src, classify.Documents)
		}()
	}
	wg.Wait()

	seen := make(map[string]bool)
	for i, result := range results {
		if result.Outcome != organizer.OutcomeMoved {
			t.Fatalf("source %d: expected moved, got %s (%v)", i, result.Outcome, result.Err)
		}
		if seen[result.Destination] {
			t.Fatalf("destination %s reused", result.Destination)
		}
		seen[result.Destination] = true
		testsupport.AssertContent(t, result.Destination, fmt.Sprintf("copy-%d", i))
	}
	entries, err := os.ReadDir(filepath.Join(root, "Documents"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != n {
		t.Fatalf("expected %d files, found %d", n, len(entries))
	}
}

func TestPlaceDirectoryCreationFailureKeepsSource(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteText(t, filepath.Join(root, "Music"), "not a directory")
	src := testsupport.WriteText(t, filepath.Join(root, "song.mp3"), "mp3")

	result := newPlacer(t, root).Place(context.Background(), src, classify.Music)
	if result.Outcome != organizer.OutcomeFailed {
		t.Fatalf("expected failure, got %s", result.Outcome)
	}
	if !errors.Is(result.Err, services.ErrPermission) {
		t.Fatalf("expected permission/io marker, got %v", result.Err)
	}
	testsupport.AssertContent(t, src, "mp3")
}

func TestPlaceMoveFailureKeepsSource(t *testing.T) {
	root := t.TempDir()
	src := testsupport.WriteText(t, filepath.Join(root, "clip.mp4"), "mp4")
	placer := newPlacer(t, root)
	organizer.SetMoveForTests(placer, func(string, string) (fileutil.Method, error) {
		return "", &os.LinkError{Op: "rename", Err: fs.ErrPermission}
	})

	result := placer.Place(context.Background(), src, classify.Videos)
	if result.Outcome != organizer.OutcomeFailed || !errors.Is(result.Err, services.ErrPermission) {
		t.Fatalf("expected permission failure, got %s (%v)", result.Outcome, result.Err)
	}
	if result.Reason != "permission_or_io" {
		t.Fatalf("unexpected reason %q", result.Reason)
	}
	testsupport.AssertContent(t, src, "mp4")
}

func TestPlaceResolvesAgainWhenDestinationAppears(t *testing.T) {
	root := t.TempDir()
	src := testsupport.WriteText(t, filepath.Join(root, "setup.exe"), "binary")
	placer := newPlacer(t, root)

	var calls int
	organizer.SetMoveForTests(placer, func(from, to string) (fileutil.Method, error) {
		calls++
		if calls == 1 {
			if err := os.WriteFile(to, []byte("racer"), 0o644); err != nil {
				return "", err
			}
			return "", &os.LinkError{Op: "renameat2", Old: from, New: to, Err: fs.ErrExist}
		}
		return fileutil.Move(from, to)
	})

	result := placer.Place(context.Background(), src, classify.Software)
	if result.Outcome != organizer.OutcomeMoved {
		t.Fatalf("expected moved, got %s (%v)", result.Outcome, result.Err)
	}
	if !result.Renamed || filepath.Base(result.Destination) != "setup_20240305_140709.exe" {
		t.Fatalf("unexpected destination %s", result.Destination)
	}
	testsupport.AssertContent(t, filepath.Join(root, "Software", "setup.exe"), "racer")
	testsupport.AssertContent(t, result.Destination, "binary")
}

func TestPlaceHonorsCancellation(t *testing.T) {
	root := t.TempDir()
	src := testsupport.WriteText(t, filepath.Join(root, "a.txt"), "a")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := newPlacer(t, root).Place(ctx, src, classify.Documents)
	if result.Outcome != organizer.OutcomeFailed || !errors.Is(result.Err, context.Canceled) {
		t.Fatalf("expected cancellation failure, got %s (%v)", result.Outcome, result.Err)
	}
	testsupport.AssertContent(t, src, "a")
}

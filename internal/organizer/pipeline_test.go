package organizer_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"dropsort/internal/classify"
	"dropsort/internal/logging"
	"dropsort/internal/organizer"
	"dropsort/internal/services"
	"dropsort/internal/settle"
	"dropsort/internal/testsupport"
)

func newPipeline(t *testing.T, root string) *organizer.Pipeline {
	t.Helper()
	return organizer.NewPipeline(settle.New(5, time.Millisecond), newPlacer(t, root), logging.NewNop())
}

func TestProcessReportScenario(t *testing.T) {
	root := t.TempDir()
	pipeline := newPipeline(t, root)

	first := testsupport.WriteText(t, filepath.Join(root, "report.pdf"), "v1")
	result := pipeline.Process(context.Background(), organizer.NewEvent(first, time.Now()))
	if result.Outcome != organizer.OutcomeMoved || result.Category != classify.Documents {
		t.Fatalf("expected Documents move, got %s %s (%v)", result.Outcome, result.Category, result.Err)
	}
	if result.Destination != filepath.Join(root, "Documents", "report.pdf") {
		t.Fatalf("unexpected destination %s", result.Destination)
	}
	if result.Event.ID == "" || result.Event.Name != "report.pdf" {
		t.Fatalf("expected event to be recorded, got %+v", result.Event)
	}

	second := testsupport.WriteText(t, filepath.Join(root, "report.pdf"), "v2")
	result = pipeline.Process(context.Background(), organizer.NewEvent(second, time.Now()))
	if result.Outcome != organizer.OutcomeMoved {
		t.Fatalf("expected second move, got %s (%v)", result.Outcome, result.Err)
	}
	if !regexp.MustCompile(`^report_\d{8}_\d{6}\.pdf$`).MatchString(filepath.Base(result.Destination)) {
		t.Fatalf("unexpected collision name %s", result.Destination)
	}
	testsupport.AssertContent(t, filepath.Join(root, "Documents", "report.pdf"), "v1")
	testsupport.AssertContent(t, result.Destination, "v2")
}

func TestProcessCaseInsensitiveExtension(t *testing.T) {
	root := t.TempDir()
	src := testsupport.WriteText(t, filepath.Join(root, "IMG.PNG"), "png")

	result := newPipeline(t, root).Process(context.Background(), organizer.NewEvent(src, time.Now()))
	if result.Category != classify.Images {
		t.Fatalf("expected Images, got %s", result.Category)
	}
	testsupport.AssertContent(t, filepath.Join(root, "Images", "IMG.PNG"), "png")
}

func TestProcessNeverAppearingFile(t *testing.T) {
	root := t.TempDir()

	result := newPipeline(t, root).Process(context.Background(), organizer.NewEvent(filepath.Join(root, "ghost.pdf"), time.Now()))
	if result.Outcome != organizer.OutcomeFailed || !errors.Is(result.Err, services.ErrNotFound) {
		t.Fatalf("expected not found failure, got %s (%v)", result.Outcome, result.Err)
	}
	if result.Reason != "not_found" {
		t.Fatalf("unexpected reason %q", result.Reason)
	}
	if result.Elapsed < 5*time.Millisecond {
		t.Fatalf("expected settle retries to take at least 5ms, took %s", result.Elapsed)
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected root untouched, found %d entries", len(entries))
	}
}

func TestProcessSkipsDirectories(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "photos.jpg")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatal(err)
	}

	result := newPipeline(t, root).Process(context.Background(), organizer.NewEvent(dir, time.Now()))
	if result.Outcome != organizer.OutcomeSkipped || result.Reason != organizer.ReasonNotRegular {
		t.Fatalf("expected skip, got %s %q", result.Outcome, result.Reason)
	}
	if _, err := os.Stat(filepath.Join(root, "Images")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected no category directory, got %v", err)
	}
}

func TestProcessSniffsOthers(t *testing.T) {
	root := t.TempDir()
	src := testsupport.WriteText(t, filepath.Join(root, "scan.bin"), "%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")

	result := newPipeline(t, root).Process(context.Background(), organizer.NewEvent(src, time.Now()))
	if result.Category != classify.Others {
		t.Fatalf("expected Others, got %s", result.Category)
	}
	if result.ContentType != "application/pdf" {
		t.Fatalf("expected sniffed pdf, got %q", result.ContentType)
	}
	testsupport.AssertContent(t, filepath.Join(root, "Others", "scan.bin"), "%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")
}

func TestResultAttrs(t *testing.T) {
	result := organizer.Result{
		Source:   "/root/a.pdf",
		Category: classify.Documents,
		Outcome:  organizer.OutcomeFailed,
		Err:      services.Wrap(services.ErrNotFound, "settling", "wait", "gone", nil),
	}
	keys := make(map[string]bool)
	for _, attr := range result.Attrs() {
		keys[attr.Key] = true
	}
	for _, key := range []string{logging.FieldOutcome, logging.FieldSource, logging.FieldCategory, logging.FieldErrorKind, "error"} {
		if !keys[key] {
			t.Fatalf("expected %q in attrs", key)
		}
	}
}

package services_test

import (
	"context"
	"testing"

	"dropsort/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithEventID(ctx, "evt-42")
	ctx = services.WithFileName(ctx, "report.pdf")

	if id, ok := services.EventIDFromContext(ctx); !ok || id != "evt-42" {
		t.Fatalf("unexpected event id: %v %v", id, ok)
	}
	if name, ok := services.FileNameFromContext(ctx); !ok || name != "report.pdf" {
		t.Fatalf("unexpected file name: %v %v", name, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	if services.WithEventID(ctx, "") != ctx {
		t.Fatal("expected blank event id to return the original context")
	}
	if _, ok := services.FileNameFromContext(services.WithFileName(ctx, "")); ok {
		t.Fatal("expected no file name value")
	}
}

package services_test

import (
	"context"
	"testing"

	"cinematch/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-123")
	ctx = services.WithRecord(ctx, "movie", 42)

	if rid, ok := services.RunIDFromContext(ctx); !ok || rid != "run-123" {
		t.Fatalf("unexpected run id: %v %v", rid, ok)
	}
	kind, id, ok := services.RecordFromContext(ctx)
	if !ok || kind != "movie" || id != 42 {
		t.Fatalf("unexpected record: %q %d %v", kind, id, ok)
	}
}

func TestRunIDBlankPreservesContext(t *testing.T) {
	ctx := services.WithRunID(context.Background(), "")
	if _, ok := services.RunIDFromContext(ctx); ok {
		t.Fatal("expected no run id value")
	}
	if _, _, ok := services.RecordFromContext(ctx); ok {
		t.Fatal("expected no record value")
	}
}

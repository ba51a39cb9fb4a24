package services_test

import (
	"context"
	"testing"

	"eventsift/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithEventID(ctx, 42)
	ctx = services.WithStage(ctx, "linkvalidating")
	ctx = services.WithSource(ctx, "eventbrite")
	ctx = services.WithCycleID(ctx, "cycle-123")

	if id, ok := services.EventIDFromContext(ctx); !ok || id != 42 {
		t.Fatalf("unexpected event id: %v %v", id, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "linkvalidating" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
	if source, ok := services.SourceFromContext(ctx); !ok || source != "eventbrite" {
		t.Fatalf("unexpected source: %v %v", source, ok)
	}
	if cid, ok := services.CycleIDFromContext(ctx); !ok || cid != "cycle-123" {
		t.Fatalf("unexpected cycle id: %v %v", cid, ok)
	}
}

func TestStageBlankPreservesContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage value")
	}
}

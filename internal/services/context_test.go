package services_test

import (
	"context"
	"testing"

	"sttbatch/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-123")
	ctx = services.WithRank(ctx, 2)
	ctx = services.WithBatch(ctx, 7)
	ctx = services.WithStep(ctx, "generate")

	if id, ok := services.RunIDFromContext(ctx); !ok || id != "run-123" {
		t.Fatalf("unexpected run id: %v %v", id, ok)
	}
	if rank, ok := services.RankFromContext(ctx); !ok || rank != 2 {
		t.Fatalf("unexpected rank: %v %v", rank, ok)
	}
	if batch, ok := services.BatchFromContext(ctx); !ok || batch != 7 {
		t.Fatalf("unexpected batch: %v %v", batch, ok)
	}
	if step, ok := services.StepFromContext(ctx); !ok || step != "generate" {
		t.Fatalf("unexpected step: %v %v", step, ok)
	}
}

func TestZeroRankIsRecorded(t *testing.T) {
	ctx := services.WithRank(context.Background(), 0)
	if rank, ok := services.RankFromContext(ctx); !ok || rank != 0 {
		t.Fatalf("expected rank 0 to be present, got %v %v", rank, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStep(ctx, "")
	ctx = services.WithRunID(ctx, "")
	ctx = services.WithBatch(ctx, -1)
	if _, ok := services.StepFromContext(ctx); ok {
		t.Fatal("expected no step value")
	}
	if _, ok := services.RunIDFromContext(ctx); ok {
		t.Fatal("expected no run id value")
	}
	if _, ok := services.BatchFromContext(ctx); ok {
		t.Fatal("expected no batch value")
	}
}

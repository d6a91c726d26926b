package services

import "context"

type contextKey string

const (
	runIDKey contextKey = "run_id"
	rankKey  contextKey = "rank"
	batchKey contextKey = "batch"
	stepKey  contextKey = "step"
)

// WithRunID annotates context with the run identifier shared by all ranks.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRank annotates context with the local rank of this process.
func WithRank(ctx context.Context, rank int) context.Context {
	if rank < 0 {
		return ctx
	}
	return context.WithValue(ctx, rankKey, rank)
}

// RankFromContext extracts the local rank if present.
func RankFromContext(ctx context.Context) (int, bool) {
	v, ok := ctx.Value(rankKey).(int)
	return v, ok
}

// WithBatch annotates context with the zero-based batch number.
func WithBatch(ctx context.Context, batch int) context.Context {
	if batch < 0 {
		return ctx
	}
	return context.WithValue(ctx, batchKey, batch)
}

// BatchFromContext extracts the batch number if present.
func BatchFromContext(ctx context.Context) (int, bool) {
	v, ok := ctx.Value(batchKey).(int)
	return v, ok
}

// WithStep annotates context with the pipeline step name (probe, generate, write).
func WithStep(ctx context.Context, step string) context.Context {
	if step == "" {
		return ctx
	}
	return context.WithValue(ctx, stepKey, step)
}

// StepFromContext returns the step name if present.
func StepFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(stepKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

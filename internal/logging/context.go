package logging

import (
	"context"
	"log/slog"

	"sttbatch/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID is the standardized structured logging key for run identifiers.
	FieldRunID = "run_id"
	// FieldRank is the standardized structured logging key for the local rank.
	FieldRank = "rank"
	// FieldBatch is the standardized structured logging key for zero-based batch numbers.
	FieldBatch = "batch"
	// FieldStep is the standardized structured logging key for pipeline step names.
	FieldStep = "step"
	// FieldEventType classifies log lines for filtering (run_start, batch_complete, ...).
	FieldEventType = "event_type"
	// FieldErrorHint carries the next action an operator should take.
	FieldErrorHint = "error_hint"
	// FieldAudioPath is the standardized key for utterance audio paths.
	FieldAudioPath = "audio_filepath"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 4)
	if id, ok := services.RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if rank, ok := services.RankFromContext(ctx); ok {
		fields = append(fields, slog.Int(FieldRank, rank))
	}
	if batch, ok := services.BatchFromContext(ctx); ok {
		fields = append(fields, slog.Int(FieldBatch, batch))
	}
	if step, ok := services.StepFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldStep, step))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}

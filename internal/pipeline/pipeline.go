package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"

	"sttbatch/internal/inference"
	"sttbatch/internal/ledger"
	"sttbatch/internal/logging"
	"sttbatch/internal/manifest"
	"sttbatch/internal/output"
	"sttbatch/internal/services"
)

// Ledger is the subset of the run ledger a pipeline needs.
type Ledger interface {
	StartRank(ctx context.Context, spec ledger.RunSpec, rank int) error
	FinishRank(ctx context.Context, runID string, rank int, runErr error) error
	RecordUtterances(ctx context.Context, runID string, utterances []ledger.Utterance) error
	CompletedPaths(ctx context.Context, runID string) (map[string]struct{}, error)
}

// Pipeline wires the collaborators of a run.
type Pipeline struct {
	generator inference.Generator
	prober    manifest.DurationProber
	ledger    Ledger
	logger    *slog.Logger
	progress  ProgressFactory
}

// New constructs a pipeline. A nil logger discards output; progress defaults
// to sampled log lines.
func New(generator inference.Generator, prober manifest.DurationProber, store Ledger, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Pipeline{
		generator: generator,
		prober:    prober,
		ledger:    store,
		logger:    logging.NewComponentLogger(logger, "pipeline"),
		progress:  LogProgress,
	}
}

// WithProgress swaps the progress reporter factory.
func (p *Pipeline) WithProgress(factory ProgressFactory) *Pipeline {
	if factory != nil {
		p.progress = factory
	}
	return p
}

// Run processes this rank's shard of the manifest.
func (p *Pipeline) Run(ctx context.Context, opts Options) (Summary, error) {
	if err := opts.validate(); err != nil {
		return Summary{}, err
	}
	if p.generator == nil || p.prober == nil || p.ledger == nil {
		return Summary{}, services.Wrap(services.ErrConfiguration, "run", "init", "generator, prober and ledger are required", nil)
	}

	ctx = services.WithRunID(ctx, opts.RunID)
	ctx = services.WithRank(ctx, opts.Rank)
	logger := logging.WithContext(ctx, p.logger)

	spec := ledger.RunSpec{
		ID:        opts.RunID,
		Model:     opts.Model,
		Language:  opts.Language.Code,
		Manifest:  opts.ManifestPath,
		Output:    opts.OutputPath,
		WorldSize: opts.WorldSize,
	}
	if err := p.ledger.StartRank(ctx, spec, opts.Rank); err != nil {
		return Summary{}, fmt.Errorf("start run in ledger: %w", err)
	}

	logger.Info("run started",
		logging.Event("run_start"),
		logging.String("model", opts.Model),
		logging.String("language", opts.Language.Name),
		logging.Int("world_size", opts.WorldSize),
		logging.Int("batch_size", opts.BatchSize),
		logging.String("manifest", opts.ManifestPath),
		logging.String("output", opts.OutputPath),
		logging.Bool("resume", opts.Resume),
	)

	start := time.Now()
	summary, runErr := p.run(ctx, logger, opts)
	summary.RunID = opts.RunID
	summary.Rank = opts.Rank
	summary.Elapsed = time.Since(start)

	// Record the outcome even when ctx was canceled.
	finishCtx := context.WithoutCancel(ctx)
	if err := p.ledger.FinishRank(finishCtx, opts.RunID, opts.Rank, runErr); err != nil {
		logger.Error("failed to record run outcome", logging.Error(err))
		if runErr == nil {
			runErr = fmt.Errorf("finish run in ledger: %w", err)
		}
	}

	if runErr != nil {
		event := "run_failed"
		if errors.Is(runErr, context.Canceled) {
			event = "run_canceled"
		}
		logging.ErrorWithContext(logger, "run failed", event,
			logging.Error(runErr),
			logging.String("error_kind", services.FailureKind(runErr)),
			logging.Int("utterances", summary.Utterances),
			logging.String(logging.FieldErrorHint, resumeHint(opts.RunID, runErr)),
		)
		return summary, runErr
	}

	logger.Info("run completed",
		logging.Event("run_complete"),
		logging.Int("utterances", summary.Utterances),
		logging.Int("batches", summary.Batches),
		logging.Int("failed_probes", summary.FailedProbes),
		logging.Int("resumed", summary.Resumed),
		logging.String("audio", formatAudio(summary.AudioSeconds)),
		logging.Int64("output_bytes", summary.BytesWritten),
		logging.Float64("time_taken_hours", summary.ElapsedHours()),
		logging.Duration("elapsed", summary.Elapsed),
	)
	return summary, nil
}

func (p *Pipeline) run(ctx context.Context, logger *slog.Logger, opts Options) (Summary, error) {
	var summary Summary

	entries, err := manifest.Load(opts.ManifestPath)
	if err != nil {
		return summary, err
	}
	summary.Manifest = len(entries)

	shard, err := manifest.Shard(entries, opts.Rank, opts.WorldSize)
	if err != nil {
		return summary, err
	}

	probeOpts := opts.Probe
	probeOpts.Logger = logging.WithContext(services.WithStep(ctx, "probe"), p.logger)
	report, err := manifest.Probe(ctx, shard, p.prober, probeOpts)
	if err != nil {
		return summary, services.Wrap(services.ErrTransient, "probe", "probe durations", "", err)
	}
	summary.FailedProbes = report.Failed
	summary.TooShort = report.TooShort

	pending, resumed, err := p.filterCompleted(ctx, opts, report.Kept)
	if err != nil {
		return summary, err
	}
	summary.Shard = len(report.Kept)
	summary.Resumed = resumed

	logger.Info("shard ready",
		logging.Event("shard_ready"),
		logging.Int("manifest_entries", summary.Manifest),
		logging.Int("shard_entries", len(shard)),
		logging.Int("failed_probes", report.Failed),
		logging.Int("too_short", report.TooShort),
		logging.Int("resumed", resumed),
		logging.Int("pending", len(pending)),
		logging.String("audio", formatAudio(manifest.TotalDuration(pending))),
	)

	writer, err := output.Open(ctx, opts.OutputPath, opts.RunID)
	if err != nil {
		return summary, services.Wrap(services.ErrConfiguration, "output", "open output", opts.OutputPath, err)
	}

	batches := manifest.Batches(pending, opts.BatchSize)
	progress := p.progress(logger, len(pending))
	defer progress.Finish()

	for index, batch := range batches {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		batchCtx := services.WithBatch(ctx, index)
		result, err := p.processBatch(batchCtx, opts, writer, batch)
		if err != nil {
			return summary, err
		}
		summary.Batches++
		summary.Utterances += len(batch)
		summary.Tokens += result.tokens
		summary.AudioSeconds += manifest.TotalDuration(batch)
		summary.BytesWritten = writer.BytesWritten()
		progress.Advance(len(batch))
	}
	return summary, nil
}

// filterCompleted drops utterances the ledger already has for this run. A
// fresh run that finds its own utterances recorded refuses to continue so
// output is never silently duplicated.
func (p *Pipeline) filterCompleted(ctx context.Context, opts Options, entries []manifest.Entry) ([]manifest.Entry, int, error) {
	done, err := p.ledger.CompletedPaths(ctx, opts.RunID)
	if err != nil {
		return nil, 0, fmt.Errorf("load completed utterances: %w", err)
	}
	if len(done) == 0 {
		return entries, 0, nil
	}
	pending := make([]manifest.Entry, 0, len(entries))
	for _, entry := range entries {
		if _, ok := done[entry.AudioFilepath]; ok {
			continue
		}
		pending = append(pending, entry)
	}
	skipped := len(entries) - len(pending)
	if skipped > 0 && !opts.Resume {
		return nil, 0, services.Wrap(services.ErrConfiguration, "resume", "check ledger",
			fmt.Sprintf("run %s already recorded %d of this rank's utterances; pass --resume or use a new run id", opts.RunID, skipped), nil)
	}
	return pending, skipped, nil
}

func resumeHint(runID string, err error) string {
	if services.Retryable(err) {
		return fmt.Sprintf("rerun with --resume --run-id %s to continue", runID)
	}
	return "fix the input or configuration, then rerun"
}

func formatAudio(seconds float64) string {
	hours := seconds / 3600
	if hours >= 1 {
		return humanize.FormatFloat("#,###.##", hours) + " h"
	}
	return humanize.FormatFloat("#,###.##", seconds/60) + " min"
}

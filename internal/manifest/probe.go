package manifest

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"sttbatch/internal/logging"
)

// DurationProber measures audio length in seconds.
type DurationProber interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// ProbeOptions tunes Probe.
type ProbeOptions struct {
	// Workers bounds concurrent probes. Values below one mean one.
	Workers int
	// Reprobe ignores durations already present in the manifest.
	Reprobe bool
	// MinDuration drops entries shorter than this many seconds.
	MinDuration float64
	Logger      *slog.Logger
}

// ProbeReport summarizes a probe pass.
type ProbeReport struct {
	Kept     []Entry
	Failed   int
	TooShort int
}

// Probe fills in missing durations and filters out entries that failed to
// probe or are too short. Input order is preserved. Individual probe failures
// are logged and counted; only context cancellation aborts the pass.
func Probe(ctx context.Context, entries []Entry, prober DurationProber, opts ProbeOptions) (ProbeReport, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	workers := max(opts.Workers, 1)

	probed := make([]Entry, len(entries))
	copy(probed, entries)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range probed {
		if probed[i].Duration > 0 && !opts.Reprobe {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			seconds, err := prober.Duration(gctx, probed[i].AudioFilepath)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				logging.WarnWithContext(logger, "error audio", "probe_failed",
					logging.AudioPath(probed[i].AudioFilepath),
					logging.Int("line", probed[i].Line),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check the file exists and decodes with ffprobe"),
				)
				seconds = -1
			}
			probed[i].Duration = seconds
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return ProbeReport{}, err
	}

	report := ProbeReport{Kept: make([]Entry, 0, len(probed))}
	for _, entry := range probed {
		switch {
		case entry.Duration <= 0:
			report.Failed++
		case entry.Duration < opts.MinDuration:
			report.TooShort++
		default:
			report.Kept = append(report.Kept, entry)
		}
	}
	logger.Debug("manifest probed",
		logging.Int("entries", len(entries)),
		logging.Int("kept", len(report.Kept)),
		logging.Int("failed_probes", report.Failed),
		logging.Int("too_short", report.TooShort),
	)
	return report, nil
}

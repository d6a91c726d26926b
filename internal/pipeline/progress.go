package pipeline

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"sttbatch/internal/logging"
)

// Progress reports utterances processed against a known total.
type Progress interface {
	Advance(n int)
	Finish()
}

// ProgressFactory builds a Progress for a run of total utterances.
type ProgressFactory func(logger *slog.Logger, total int) Progress

// LogProgress reports through the logger, emitting a line whenever the
// completed share crosses a 5% bucket.
func LogProgress(logger *slog.Logger, total int) Progress {
	return &logProgress{
		logger:  logger,
		total:   total,
		sampler: logging.NewProgressSampler(total, 5),
	}
}

type logProgress struct {
	logger  *slog.Logger
	total   int
	done    int
	sampler *logging.ProgressSampler
}

func (p *logProgress) Advance(n int) {
	p.done += n
	percent, ok := p.sampler.Observe(p.done)
	if !ok {
		return
	}
	p.logger.Info("progress",
		logging.Event("progress"),
		logging.Int("done", p.done),
		logging.Int("total", p.total),
		logging.Float64("percent", percent),
	)
}

func (p *logProgress) Finish() {}

// BarProgress draws a terminal progress bar on w.
func BarProgress(w io.Writer) ProgressFactory {
	return func(_ *slog.Logger, total int) Progress {
		bar := progressbar.NewOptions(total,
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetDescription("transcribing"),
			progressbar.OptionSetTheme(progressbar.ThemeASCII),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("utt"),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		)
		return &barProgress{bar: bar}
	}
}

type barProgress struct {
	once sync.Once
	bar  *progressbar.ProgressBar
}

func (p *barProgress) Advance(n int) {
	_ = p.bar.Add(n)
}

func (p *barProgress) Finish() {
	p.once.Do(func() { _ = p.bar.Finish() })
}

package pipeline

import (
	"fmt"
	"strings"
	"time"

	"sttbatch/internal/config"
	"sttbatch/internal/language"
	"sttbatch/internal/manifest"
	"sttbatch/internal/services"
)

// Options describes one rank's run.
type Options struct {
	RunID string
	// Resume skips utterances already recorded under RunID and appends to the
	// existing output.
	Resume bool

	ManifestPath string
	OutputPath   string

	Model      string
	Language   language.Language
	Task       string
	Device     string
	BatchSize  int
	SampleRate int

	NormalizeLogits bool
	NormalizeText   bool

	Rank      int
	WorldSize int

	Probe manifest.ProbeOptions
}

// OptionsFromConfig seeds Options from configuration. Callers fill in the run
// id and the manifest and output paths.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	lang, err := language.Resolve(cfg.Model.Language)
	if err != nil {
		return Options{}, services.Wrap(services.ErrConfiguration, "config", "resolve language", "", err)
	}
	return Options{
		Model:           cfg.Model.ID,
		Language:        lang,
		Task:            cfg.Model.Task,
		Device:          cfg.Inference.Device,
		BatchSize:       cfg.Model.BatchSize,
		SampleRate:      cfg.Model.SampleRate,
		NormalizeLogits: cfg.Model.NormalizeLogits,
		NormalizeText:   cfg.Model.NormalizeText,
		Rank:            cfg.Distributed.LocalRank,
		WorldSize:       cfg.Distributed.WorldSize,
		Probe: manifest.ProbeOptions{
			Workers:     cfg.Manifest.ProbeWorkers,
			Reprobe:     cfg.Manifest.Reprobe,
			MinDuration: cfg.Manifest.MinDuration,
		},
	}, nil
}

func (o Options) validate() error {
	var problems []string
	if strings.TrimSpace(o.RunID) == "" {
		problems = append(problems, "run id is required")
	}
	if strings.TrimSpace(o.ManifestPath) == "" {
		problems = append(problems, "manifest path is required")
	}
	if strings.TrimSpace(o.OutputPath) == "" {
		problems = append(problems, "output path is required")
	}
	if o.Language.Code == "" {
		problems = append(problems, "language is required")
	}
	if o.BatchSize <= 0 {
		problems = append(problems, fmt.Sprintf("batch size must be positive, got %d", o.BatchSize))
	}
	if o.WorldSize <= 0 || o.Rank < 0 || o.Rank >= o.WorldSize {
		problems = append(problems, fmt.Sprintf("rank %d outside world size %d", o.Rank, o.WorldSize))
	}
	if len(problems) > 0 {
		return services.Wrap(services.ErrConfiguration, "run", "validate options", strings.Join(problems, "; "), nil)
	}
	return nil
}

// Summary reports what one rank did.
type Summary struct {
	RunID    string
	Rank     int
	Manifest int
	// FailedProbes counts utterances dropped because their duration could not
	// be read. TooShort counts those under the minimum duration.
	FailedProbes int
	TooShort     int
	Shard        int
	Resumed      int
	Batches      int
	Utterances   int
	Tokens       int
	AudioSeconds float64
	BytesWritten int64
	Elapsed      time.Duration
}

// ElapsedHours mirrors the "time taken" figure printed at the end of a run.
func (s Summary) ElapsedHours() float64 {
	return s.Elapsed.Hours()
}

package pipeline_test

import (
	"errors"
	"testing"

	"sttbatch/internal/pipeline"
	"sttbatch/internal/services"
	"sttbatch/internal/testsupport"
)

func TestOptionsFromConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithModel("vasista22/whisper-tamil-medium", "tamil"),
		testsupport.WithBatchSize(8),
		testsupport.WithRank(1, 4),
	)
	cfg.Manifest.Reprobe = true

	opts, err := pipeline.OptionsFromConfig(cfg)
	if err != nil {
		t.Fatalf("OptionsFromConfig: %v", err)
	}
	if opts.Model != "vasista22/whisper-tamil-medium" || opts.Language.Code != "ta" {
		t.Fatalf("unexpected model or language: %q %+v", opts.Model, opts.Language)
	}
	if opts.BatchSize != 8 || opts.Rank != 1 || opts.WorldSize != 4 {
		t.Fatalf("unexpected batching: %+v", opts)
	}
	if !opts.NormalizeLogits || opts.Task != "transcribe" || opts.Device != "cpu" {
		t.Fatalf("unexpected defaults: %+v", opts)
	}
	if !opts.Probe.Reprobe || opts.Probe.Workers != 4 {
		t.Fatalf("unexpected probe options: %+v", opts.Probe)
	}
}

func TestOptionsFromConfigRejectsUnknownLanguage(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithModel("openai/whisper-small", "elvish"))

	_, err := pipeline.OptionsFromConfig(cfg)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

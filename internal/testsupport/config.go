package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"sttbatch/internal/config"
)

// ConfigOption customizes the config built by NewConfig.
type ConfigOption func(t testing.TB, base string, cfg *config.Config)

// NewConfig returns defaults rooted in a fresh temp directory, with CPU
// inference and a small probe pool, then applies opts in order.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths = config.Paths{
		LogDir:    filepath.Join(base, "logs"),
		StateDir:  filepath.Join(base, "state"),
		OutputDir: filepath.Join(base, "output"),
	}
	cfg.Inference.Device = "cpu"
	cfg.Manifest.ProbeWorkers = 4

	for _, opt := range opts {
		opt(t, base, &cfg)
	}
	return &cfg
}

// BaseDir returns the temp directory NewConfig rooted cfg in.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}

// WithModel sets the checkpoint id and language.
func WithModel(id, language string) ConfigOption {
	return func(_ testing.TB, _ string, cfg *config.Config) {
		cfg.Model.ID = id
		cfg.Model.Language = language
	}
}

// WithRank sets the distributed layout.
func WithRank(rank, worldSize int) ConfigOption {
	return func(_ testing.TB, _ string, cfg *config.Config) {
		cfg.Distributed.LocalRank = rank
		cfg.Distributed.WorldSize = worldSize
	}
}

func WithBatchSize(size int) ConfigOption {
	return func(_ testing.TB, _ string, cfg *config.Config) {
		cfg.Model.BatchSize = size
	}
}

// WithStubbedBinaries puts no-op executables with the given names first on
// PATH. With no names, ffprobe and the inference command are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(t testing.TB, base string, cfg *config.Config) {
		if len(names) == 0 {
			names = []string{cfg.FFprobeBinary(), cfg.Inference.Command}
		}
		dir := mkdir(t, filepath.Join(base, "bin"))
		for _, name := range names {
			if err := os.WriteFile(filepath.Join(dir, name), []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
				t.Fatalf("write stub %s: %v", name, err)
			}
		}
		t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
}

// WithEmptyPath leaves PATH pointing at an empty directory.
func WithEmptyPath() ConfigOption {
	return func(t testing.TB, base string, _ *config.Config) {
		t.Setenv("PATH", mkdir(t, filepath.Join(base, "empty-bin")))
	}
}

func mkdir(t testing.TB, dir string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	return dir
}

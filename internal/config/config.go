package config

import "strings"

// Paths contains directory configuration.
type Paths struct {
	LogDir    string `toml:"log_dir"`
	StateDir  string `toml:"state_dir"`
	OutputDir string `toml:"output_dir"`
}

// Model describes which checkpoint to run and how its output is post-processed.
type Model struct {
	ID              string `toml:"id"`
	Language        string `toml:"language"`
	Task            string `toml:"task"`
	BatchSize       int    `toml:"batch_size"`
	SampleRate      int    `toml:"sample_rate"`
	NormalizeLogits bool   `toml:"normalize_logits"`
	NormalizeText   bool   `toml:"normalize_text"`
}

// Inference configures the external process that loads the model and runs
// generation.
type Inference struct {
	Command        string   `toml:"command"`
	Args           []string `toml:"args"`
	Device         string   `toml:"device"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
	HFToken        string   `toml:"hf_token"`
}

// Distributed mirrors the rank layout exported by torchrun-style launchers.
type Distributed struct {
	LocalRank int `toml:"local_rank"`
	WorldSize int `toml:"world_size"`
}

// Manifest controls manifest loading and audio duration probing.
type Manifest struct {
	ProbeWorkers  int     `toml:"probe_workers"`
	FFprobeBinary string  `toml:"ffprobe_binary"`
	MinDuration   float64 `toml:"min_duration"`
	Reprobe       bool    `toml:"reprobe"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for sttbatch.
//
// Configuration sections by subsystem:
//   - Paths: log, ledger state, and default output directories
//   - Model: checkpoint id, language, batch size, score normalization
//   - Inference: external generation command and its runtime settings
//   - Distributed: rank and world size for sharding the manifest
//   - Manifest: duration probing workers and filters
//   - Logging: log format and level
type Config struct {
	Paths       Paths       `toml:"paths"`
	Model       Model       `toml:"model"`
	Inference   Inference   `toml:"inference"`
	Distributed Distributed `toml:"distributed"`
	Manifest    Manifest    `toml:"manifest"`
	Logging     Logging     `toml:"logging"`
}

// FFprobeBinary returns the ffprobe executable used for duration probing.
func (c *Config) FFprobeBinary() string {
	if bin := strings.TrimSpace(c.Manifest.FFprobeBinary); bin != "" {
		return bin
	}
	return defaultFFprobeBinary
}

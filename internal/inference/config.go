package inference

import (
	"time"

	"sttbatch/internal/config"
)

// Config captures runtime settings for the inference command.
type Config struct {
	// Command is the executable that loads the model and serves one batch per run.
	Command string
	// Args are passed before any request data.
	Args []string
	// Model is the model identifier handed to the command.
	Model string
	// Device selects "cuda" or "cpu".
	Device string
	// Timeout bounds a single batch. Zero disables the limit.
	Timeout time.Duration
	// HFToken is exported as HF_TOKEN for gated model downloads.
	HFToken   string
	LocalRank int
	WorldSize int
}

// ConfigFromApp derives the inference settings from the application config.
func ConfigFromApp(cfg *config.Config) Config {
	return Config{
		Command:   cfg.Inference.Command,
		Args:      append([]string(nil), cfg.Inference.Args...),
		Model:     cfg.Model.ID,
		Device:    cfg.Inference.Device,
		Timeout:   time.Duration(cfg.Inference.TimeoutSeconds) * time.Second,
		HFToken:   cfg.Inference.HFToken,
		LocalRank: cfg.Distributed.LocalRank,
		WorldSize: cfg.Distributed.WorldSize,
	}
}

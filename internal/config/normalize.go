package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Launcher environment variables. torchrun and deepspeed set the first two per
// process.
const (
	envLocalRank  = "LOCAL_RANK"
	envWorldSize  = "WORLD_SIZE"
	envHFHubToken = "HUGGING_FACE_HUB_TOKEN"
	envHFToken    = "HF_TOKEN"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}

	c.Model.ID = orDefault(c.Model.ID, defaultModelID)
	c.Model.Language = strings.TrimSpace(c.Model.Language)
	c.Model.Task = orDefault(strings.ToLower(c.Model.Task), defaultTask)
	if c.Model.SampleRate == 0 {
		c.Model.SampleRate = defaultSampleRate
	}

	c.Inference.Command = orDefault(c.Inference.Command, defaultInferenceCommand)
	c.Inference.Device = orDefault(strings.ToLower(c.Inference.Device), defaultInferenceDevice)
	if c.Inference.TimeoutSeconds == 0 {
		c.Inference.TimeoutSeconds = defaultInferenceTimeout
	}
	c.Inference.HFToken = strings.TrimSpace(c.Inference.HFToken)
	if c.Inference.HFToken == "" {
		c.Inference.HFToken = firstEnv(envHFHubToken, envHFToken)
	}

	if err := c.applyLauncherEnv(); err != nil {
		return err
	}

	if c.Manifest.ProbeWorkers == 0 {
		c.Manifest.ProbeWorkers = defaultProbeWorkers
	}
	c.Manifest.FFprobeBinary = orDefault(c.Manifest.FFprobeBinary, defaultFFprobeBinary)

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format != "json" {
		c.Logging.Format = "console"
	}
	c.Logging.Level = orDefault(strings.ToLower(c.Logging.Level), defaultLogLevel)
	return nil
}

func (c *Config) normalizePaths() error {
	dirs := []struct {
		key      string
		value    *string
		fallback string
	}{
		{"paths.log_dir", &c.Paths.LogDir, defaultLogDir},
		{"paths.state_dir", &c.Paths.StateDir, defaultStateDir},
		{"paths.output_dir", &c.Paths.OutputDir, defaultOutputDir},
	}
	for _, dir := range dirs {
		expanded, err := expandPath(orDefault(*dir.value, dir.fallback))
		if err != nil {
			return fmt.Errorf("%s: %w", dir.key, err)
		}
		*dir.value = expanded
	}
	return nil
}

// applyLauncherEnv lets LOCAL_RANK and WORLD_SIZE override the file.
func (c *Config) applyLauncherEnv() error {
	overrides := []struct {
		name   string
		target *int
	}{
		{envLocalRank, &c.Distributed.LocalRank},
		{envWorldSize, &c.Distributed.WorldSize},
	}
	for _, o := range overrides {
		raw := strings.TrimSpace(os.Getenv(o.name))
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%s: invalid integer %q", o.name, raw)
		}
		*o.target = n
	}
	if c.Distributed.WorldSize == 0 {
		c.Distributed.WorldSize = defaultWorldSize
	}
	return nil
}

func orDefault(value, fallback string) string {
	if value = strings.TrimSpace(value); value != "" {
		return value
	}
	return fallback
}

func firstEnv(names ...string) string {
	for _, name := range names {
		if value := strings.TrimSpace(os.Getenv(name)); value != "" {
			return value
		}
	}
	return ""
}

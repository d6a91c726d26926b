package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var logLevels = []string{"debug", "info", "warn", "warning", "error"}

// Validate reports the first invalid setting, naming its key.
func (c *Config) Validate() error {
	checks := []func() error{
		c.validateModel,
		c.validateInference,
		c.validateDistributed,
		c.validateManifest,
		c.validateLogging,
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

func oneOf(key, got string, allowed ...string) error {
	if slices.Contains(allowed, got) {
		return nil
	}
	quoted := make([]string, len(allowed))
	for i, value := range allowed {
		quoted[i] = fmt.Sprintf("%q", value)
	}
	return fmt.Errorf("%s must be one of %s, got %q", key, strings.Join(quoted, ", "), got)
}

func positive(key string, value int) error {
	if value <= 0 {
		return fmt.Errorf("%s must be positive", key)
	}
	return nil
}

func (c *Config) validateModel() error {
	if c.Model.ID == "" {
		return errors.New("model.id must be set")
	}
	if err := positive("model.batch_size", c.Model.BatchSize); err != nil {
		return err
	}
	if err := positive("model.sample_rate", c.Model.SampleRate); err != nil {
		return err
	}
	return oneOf("model.task", c.Model.Task, taskTranscribe, taskTranslate)
}

func (c *Config) validateInference() error {
	if c.Inference.Command == "" {
		return errors.New("inference.command must be set")
	}
	if err := positive("inference.timeout_seconds", c.Inference.TimeoutSeconds); err != nil {
		return err
	}
	return oneOf("inference.device", c.Inference.Device, deviceCUDA, deviceCPU)
}

func (c *Config) validateDistributed() error {
	d := c.Distributed
	if err := positive("distributed.world_size", d.WorldSize); err != nil {
		return err
	}
	if d.LocalRank < 0 || d.LocalRank >= d.WorldSize {
		return fmt.Errorf("distributed.local_rank %d out of range for world size %d", d.LocalRank, d.WorldSize)
	}
	return nil
}

func (c *Config) validateManifest() error {
	if err := positive("manifest.probe_workers", c.Manifest.ProbeWorkers); err != nil {
		return err
	}
	if c.Manifest.MinDuration < 0 {
		return errors.New("manifest.min_duration must be >= 0")
	}
	return nil
}

func (c *Config) validateLogging() error {
	return oneOf("logging.level", c.Logging.Level, logLevels...)
}

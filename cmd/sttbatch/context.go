package main

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"sttbatch/internal/config"
	"sttbatch/internal/ledger"
)

const skipConfigAnnotation = "skipConfigLoad"

// commandContext loads configuration once per invocation, on first use.
type commandContext struct {
	configFlag *string

	once       sync.Once
	config     *config.Config
	configPath string
	configSeen bool
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.once.Do(func() {
		var flag string
		if c.configFlag != nil {
			flag = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(flag)
		if err == nil {
			err = cfg.EnsureDirectories()
		}
		c.config, c.configPath, c.configSeen, c.configErr = cfg, resolved, exists, err
		if err != nil {
			c.config = nil
		}
	})
	return c.config, c.configErr
}

// openLedger opens the run ledger named by the loaded configuration.
func (c *commandContext) openLedger() (*ledger.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	store, err := ledger.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	return store, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[skipConfigAnnotation] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

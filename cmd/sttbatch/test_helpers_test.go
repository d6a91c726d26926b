package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"sttbatch/internal/config"
	"sttbatch/internal/testsupport"
)

// stubGeneration answers a one-utterance batch with two greedy steps.
const stubGeneration = `{"vocab_size":3,"sequences":[[50258,0,1]],"scores":[[[2,1,0]],[[0,2,1]]],"texts":["namaste duniya"]}`

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	t.Setenv("LOCAL_RANK", "0")
	t.Setenv("WORLD_SIZE", "1")
	t.Setenv(runIDEnv, "")

	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries("ffprobe"))
	base := testsupport.BaseDir(cfg)
	t.Setenv("HOME", filepath.Join(base, "home"))

	script := filepath.Join(base, "infer", "generate.sh")
	if err := os.MkdirAll(filepath.Dir(script), 0o755); err != nil {
		t.Fatalf("mkdir infer dir: %v", err)
	}
	body := "#!/bin/sh\ncat > /dev/null\nprintf '%s\\n' '" + stubGeneration + "'\n"
	if err := os.WriteFile(script, []byte(body), 0o755); err != nil {
		t.Fatalf("write inference stub: %v", err)
	}
	cfg.Inference.Command = script
	cfg.Model.BatchSize = 1

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

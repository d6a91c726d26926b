package main

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"sttbatch/internal/testsupport"
)

func TestScoreCommandNormalizesGeneration(t *testing.T) {
	input := filepath.Join(t.TempDir(), "generation.json")
	if err := os.WriteFile(input, []byte(stubGeneration), 0o644); err != nil {
		t.Fatalf("write generation: %v", err)
	}

	out, _, err := runCLI(t, []string{"score", "--input", input, "--normalize"}, "")
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	var result scoreResult
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode score output %q: %v", out, err)
	}
	if result.VocabSize != 3 || result.Steps != 2 || len(result.Rows) != 1 {
		t.Fatalf("unexpected score result: %+v", result)
	}
	if result.Rows[0].Text != "namaste duniya" {
		t.Fatalf("unexpected text: %q", result.Rows[0].Text)
	}
	for _, score := range result.Rows[0].Scores {
		if math.Abs(score-(-0.4076)) > 1e-4 {
			t.Fatalf("unexpected scores: %v", result.Rows[0].Scores)
		}
	}
}

func TestScoreCommandRawLogits(t *testing.T) {
	input := filepath.Join(t.TempDir(), "generation.json")
	if err := os.WriteFile(input, []byte(stubGeneration), 0o644); err != nil {
		t.Fatalf("write generation: %v", err)
	}

	out, _, err := runCLI(t, []string{"score", "-i", input}, "")
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	requireContains(t, out, `"scores": [`)
	var result scoreResult
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode score output: %v", err)
	}
	if got := []float64(result.Rows[0].Scores); len(got) != 2 || got[0] != 2 || got[1] != 2 {
		t.Fatalf("expected raw logits [2 2], got %v", got)
	}
}

func TestScoreCommandRejectsBadShapes(t *testing.T) {
	input := filepath.Join(t.TempDir(), "generation.json")
	bad := `{"vocab_size":4,"sequences":[[0]],"scores":[[[1,2,3]]]}`
	if err := os.WriteFile(input, []byte(bad), 0o644); err != nil {
		t.Fatalf("write generation: %v", err)
	}

	if _, _, err := runCLI(t, []string{"score", "--input", input}, ""); err == nil {
		t.Fatal("expected contract violation")
	}
}

func TestLanguagesCommandListsIndicTable(t *testing.T) {
	out, _, err := runCLI(t, []string{"languages", "--indic"}, "")
	if err != nil {
		t.Fatalf("languages: %v", err)
	}
	for _, name := range []string{"Hindi", "Sanskrit", "Odia", "Urdu"} {
		requireContains(t, out, name)
	}
	if strings.Contains(out, "English") {
		t.Fatalf("expected --indic to hide English:\n%s", out)
	}
}

func TestStatusCommandShowsRuns(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "No runs recorded")

	manifestPath := testsupport.WriteManifest(t, env.baseDir, []testsupport.ManifestLine{
		{AudioFilepath: "/audio/one.wav", Duration: 1800},
		{AudioFilepath: "/audio/two.wav", Duration: 1800},
	})
	if _, _, err := runCLI(t, []string{"run", "-m", manifestPath, "--run-id", "status-run"}, env.configPath); err != nil {
		t.Fatalf("run: %v", err)
	}

	out, _, err = runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "status-run")
	requireContains(t, out, "completed")
	requireContains(t, out, "1/1")

	out, _, err = runCLI(t, []string{"status", "status-run", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("status --json: %v", err)
	}
	var views []runView
	if err := json.Unmarshal([]byte(out), &views); err != nil {
		t.Fatalf("decode status json: %v", err)
	}
	if len(views) != 1 || views[0].Utterances != 2 || views[0].AudioSeconds != 3600 || views[0].FinishedAt == nil {
		t.Fatalf("unexpected status view: %+v", views)
	}

	if _, _, err := runCLI(t, []string{"status", "missing"}, env.configPath); err == nil {
		t.Fatal("expected error for unknown run")
	}
}

func TestCheckCommandReportsEnvironment(t *testing.T) {
	env := setupCLITestEnv(t)
	manifestPath := testsupport.WriteManifest(t, env.baseDir, []testsupport.ManifestLine{{AudioFilepath: "/a.wav"}})

	out, _, err := runCLI(t, []string{"check", "--manifest", manifestPath}, env.configPath)
	if err != nil {
		t.Fatalf("check: %v\n%s", err, out)
	}
	requireContains(t, out, "Configuration")
	requireContains(t, out, "Environment")
	requireContains(t, out, "FFprobe")
	requireContains(t, out, "Inference")
	requireContains(t, out, "Manifest")
}

func TestCheckCommandFailsWithoutInferenceCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Inference.Command = filepath.Join(env.baseDir, "nope")
	writeTestConfig(t, env.configPath, env.cfg)

	out, _, err := runCLI(t, []string{"check"}, env.configPath)
	if err == nil {
		t.Fatalf("expected check failure:\n%s", out)
	}
	requireContains(t, err.Error(), "Inference")
}

func TestConfigInitValidateShow(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("LOCAL_RANK", "")
	t.Setenv("WORLD_SIZE", "")
	t.Setenv("HF_TOKEN", "hf_secret")
	target := filepath.Join(t.TempDir(), "sttbatch.toml")

	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, target)

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected init to refuse overwriting")
	}

	out, _, err = runCLI(t, []string{"config", "validate"}, target)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")

	out, _, err = runCLI(t, []string{"config", "show"}, target)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "<redacted>")
	if strings.Contains(out, "hf_secret") {
		t.Fatalf("expected token to be redacted:\n%s", out)
	}
}

func TestLogsCommandFiltersRankLog(t *testing.T) {
	env := setupCLITestEnv(t)
	manifestPath := testsupport.WriteManifest(t, env.baseDir, []testsupport.ManifestLine{{AudioFilepath: "/a.wav", Duration: 1}})
	if _, _, err := runCLI(t, []string{"run", "-m", manifestPath, "--run-id", "log-run"}, env.configPath); err != nil {
		t.Fatalf("run: %v", err)
	}

	out, _, err := runCLI(t, []string{"logs", "--event", "run_complete", "--raw"}, env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one run_complete line, got %q", out)
	}
	requireContains(t, lines[0], `"run_id":"log-run"`)

	out, _, err = runCLI(t, []string{"logs", "--run-id", "log-run"}, env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, out, "(run_start)")
	requireContains(t, out, "[rank 0]")

	if _, _, err := runCLI(t, []string{"logs", "--level", "loud"}, env.configPath); err == nil {
		t.Fatal("expected invalid level error")
	}
}

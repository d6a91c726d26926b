package deps

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}

	if !results[0].Available {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}

	if results[1].Available {
		t.Fatalf("expected missing binary to be unavailable")
	}
	if results[1].Detail == "" {
		t.Fatalf("expected detail message for missing binary")
	}

	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}

	if results[0].Detail != "" {
		t.Fatalf("unexpected detail for available dependency: %s", results[0].Detail)
	}
}

func TestCheckInferenceCommandWithScript(t *testing.T) {
	tmp := t.TempDir()
	interpreter := filepath.Join(tmp, executableName("python3"))
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(interpreter, script, 0o755); err != nil {
		t.Fatalf("write interpreter stub: %v", err)
	}
	generate := filepath.Join(tmp, "generate.py")
	if err := os.WriteFile(generate, []byte("print('ok')\n"), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}

	status := CheckInferenceCommand(interpreter, []string{generate, "--fp16"})
	if !status.Available {
		t.Fatalf("expected inference command available, got detail %q", status.Detail)
	}
	if status.Command != interpreter+" "+generate {
		t.Fatalf("unexpected command %q", status.Command)
	}

	status = CheckInferenceCommand(interpreter, []string{filepath.Join(tmp, "missing.py")})
	if status.Available {
		t.Fatal("expected missing script to fail")
	}
	if status.Detail == "" {
		t.Fatal("expected detail for missing script")
	}
}

func TestCheckInferenceCommandFlagsAreNotScripts(t *testing.T) {
	tmp := t.TempDir()
	binary := filepath.Join(tmp, executableName("sttbatch-infer"))
	if err := os.WriteFile(binary, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	status := CheckInferenceCommand(binary, []string{"--device", "cuda"})
	if !status.Available {
		t.Fatalf("expected available, got detail %q", status.Detail)
	}
}

func TestCheckInferenceCommandMissing(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	status := CheckInferenceCommand("sttbatch-infer", nil)
	if status.Available {
		t.Fatal("expected missing command to fail")
	}
	if status := CheckInferenceCommand("  ", nil); status.Detail != "command not configured" {
		t.Fatalf("unexpected detail for empty command: %q", status.Detail)
	}
}

func TestResolveFFprobePath(t *testing.T) {
	binDir := t.TempDir()
	ffprobe := filepath.Join(binDir, executableName("ffprobe"))
	if err := os.WriteFile(ffprobe, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	t.Setenv("PATH", binDir)

	if got := ResolveFFprobePath(""); got != ffprobe {
		t.Fatalf("expected resolved ffprobe %q, got %q", ffprobe, got)
	}
	if got := ResolveFFprobePath("ffprobe-custom"); got != "ffprobe-custom" {
		t.Fatalf("expected fallback to configured name, got %q", got)
	}
}

func executableName(base string) string {
	if runtime.GOOS == "windows" {
		return base + ".exe"
	}
	return base
}

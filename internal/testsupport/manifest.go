package testsupport

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// ManifestLine is one manifest row written by WriteManifest.
type ManifestLine struct {
	AudioFilepath string  `json:"audio_filepath"`
	Duration      float64 `json:"duration,omitempty"`
	Text          string  `json:"text,omitempty"`
}

// WriteManifest writes a JSON-lines manifest under dir and returns its path.
func WriteManifest(t testing.TB, dir string, lines []ManifestLine) string {
	t.Helper()

	path := filepath.Join(dir, "manifest.jsonl")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for _, line := range lines {
		if err := enc.Encode(line); err != nil {
			t.Fatalf("encode manifest line: %v", err)
		}
	}
	return path
}

package pipeline_test

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"sttbatch/internal/pipeline"
)

func TestLogProgressSamplesBuckets(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	progress := pipeline.LogProgress(logger, 100)
	for _, n := range []int{1, 1, 4, 1, 93} {
		progress.Advance(n)
	}
	progress.Finish()

	// 1% and 2% share the first bucket; 6% and 7% share the second.
	if got := strings.Count(buf.String(), `"msg":"progress"`); got != 3 {
		t.Fatalf("expected 3 progress lines, got %d:\n%s", got, buf.String())
	}
	if !strings.Contains(buf.String(), `"done":100`) {
		t.Fatalf("expected final progress line, got:\n%s", buf.String())
	}
}

func TestBarProgressWritesToWriter(t *testing.T) {
	var buf bytes.Buffer
	progress := pipeline.BarProgress(&buf)(nil, 4)
	progress.Advance(2)
	progress.Advance(2)
	progress.Finish()
	progress.Finish()

	if buf.Len() == 0 {
		t.Fatal("expected the bar to render")
	}
}

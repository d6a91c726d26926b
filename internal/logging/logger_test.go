package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"sttbatch/internal/config"
	"sttbatch/internal/logging"
	"sttbatch/internal/services"
)

func TestNewFromConfigWritesRankLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Distributed.WorldSize = 2
	cfg.Distributed.LocalRank = 1
	cfg.Logging.Level = "debug"

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("rank file message", logging.String("model", "whisper"))

	path := logging.LogFilePath(cfg.Paths.LogDir, 1)
	if filepath.Base(path) != "sttbatch-rank1.log" {
		t.Fatalf("unexpected log file name: %q", path)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(content), &entry); err != nil {
		t.Fatalf("expected JSON log line, got %q: %v", content, err)
	}
	if entry["msg"] != "rank file message" || entry["model"] != "whisper" || entry["level"] != "info" {
		t.Fatalf("unexpected entry: %v", entry)
	}
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-info.log")

	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("message without caller")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if strings.Contains(string(content), ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", content)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-debug.log")

	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("message with caller")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), ".go:") {
		t.Fatalf("expected caller information in debug logs, got %q", content)
	}
}

func TestConsoleLoggerFormatsSubjectAndFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithBatch(services.WithRank(context.Background(), 0), 4)
	ctx = services.WithStep(ctx, "write")
	component := logging.NewComponentLogger(logger, "pipeline")
	logging.WithContext(ctx, component).Info("batch written",
		logging.Event("batch_complete"),
		logging.Int64("output_bytes", 2048),
		logging.Duration("elapsed", 1500*time.Millisecond),
		logging.Bool("resumed", true),
	)

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	text := string(content)
	for _, fragment := range []string{
		"INFO [pipeline] Rank 0 · Batch #4 (write) – batch written",
		"- Event: batch_complete",
		"- Written: 2.0 KiB",
		"- Elapsed: 2s",
		"- Resumed: yes",
	} {
		if !strings.Contains(text, fragment) {
			t.Fatalf("expected %q in console output:\n%s", fragment, text)
		}
	}
	if strings.Contains(text, "Rank: 0") {
		t.Fatalf("rank belongs in the header only:\n%s", text)
	}
}

func TestConsoleLoggerCapsInfoFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	attrs := []logging.Attr{logging.String(logging.FieldRunID, "run-1")}
	for _, key := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i"} {
		attrs = append(attrs, logging.Int(key, 1))
	}
	attrs = append(attrs, logging.Int("utterances", 12345))
	logger.Info("run complete", logging.Args(attrs...)...)

	text := buf.String()
	lines := strings.Split(strings.TrimSpace(text), "\n")
	if len(lines) < 2 || !strings.Contains(lines[1], "- Utterances: 12,345") {
		t.Fatalf("expected utterances first among fields:\n%s", text)
	}
	if !strings.Contains(text, "+ 3 more fields hidden") {
		t.Fatalf("expected run id and two extra fields hidden:\n%s", text)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewInvalidLevelDefaultsToInfo(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "level.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "invalid", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("shown")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if strings.Contains(string(content), "hidden") || !strings.Contains(string(content), "shown") {
		t.Fatalf("expected info threshold, got %q", content)
	}
}

func TestWithContextAddsFields(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-xyz")
	ctx = services.WithRank(ctx, 3)
	ctx = services.WithBatch(ctx, 12)

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	logging.WithContext(ctx, logger).Info("contextual log")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode entry: %v", err)
	}
	if entry[logging.FieldRunID] != "run-xyz" {
		t.Fatalf("run id = %v", entry[logging.FieldRunID])
	}
	if entry[logging.FieldRank] != float64(3) {
		t.Fatalf("rank = %v", entry[logging.FieldRank])
	}
	if entry[logging.FieldBatch] != float64(12) {
		t.Fatalf("batch = %v", entry[logging.FieldBatch])
	}

	if got := logging.WithContext(context.Background(), logger); got != logger {
		t.Fatal("expected bare context to return the logger unchanged")
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	logging.WarnWithContext(logger, "error audio", "probe_failed", logging.Error(errors.New("exit status 1")))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode entry: %v", err)
	}
	for _, key := range []string{logging.FieldEventType, logging.FieldErrorHint, logging.FieldImpact} {
		if _, ok := entry[key]; !ok {
			t.Fatalf("expected %s in %v", key, entry)
		}
	}
	if entry[logging.FieldEventType] != "probe_failed" {
		t.Fatalf("unexpected event type: %v", entry[logging.FieldEventType])
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := logging.NewNop()
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Fatal("nop logger should not be enabled")
	}
	logging.NewComponentLogger(nil, "x").Info("ignored")
}

package output

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

const lockRetryDelay = 50 * time.Millisecond

// Writer appends records for one run.
type Writer struct {
	path  string
	runID string
	lock  *flock.Flock

	mu      sync.Mutex
	written int64
	lines   int
}

// LockPath returns the advisory lock file guarding path.
func LockPath(path string) string { return path + ".lock" }

// RunMarkerPath returns the sidecar recording which run owns path.
func RunMarkerPath(path string) string { return path + ".run" }

// Open prepares path for runID. When the sidecar names a different run (or is
// missing) the output file is truncated and the sidecar rewritten.
func Open(ctx context.Context, path, runID string) (*Writer, error) {
	path = strings.TrimSpace(path)
	runID = strings.TrimSpace(runID)
	if path == "" {
		return nil, errors.New("output: path is required")
	}
	if runID == "" {
		return nil, errors.New("output: run id is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("output: ensure directory: %w", err)
	}

	w := &Writer{path: path, runID: runID, lock: flock.New(LockPath(path))}
	if err := w.withLock(ctx, w.claim); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *Writer) claim() error {
	marker := RunMarkerPath(w.path)
	owner, err := os.ReadFile(marker)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("output: read run marker: %w", err)
	}
	if strings.TrimSpace(string(owner)) == w.runID {
		return nil
	}
	if err := os.WriteFile(w.path, nil, 0o644); err != nil {
		return fmt.Errorf("output: truncate %s: %w", w.path, err)
	}
	if err := os.WriteFile(marker, []byte(w.runID+"\n"), 0o644); err != nil {
		return fmt.Errorf("output: write run marker: %w", err)
	}
	return nil
}

// WriteBatch appends records as consecutive lines. The whole batch is encoded
// before the lock is taken and written with a single append.
func (w *Writer) WriteBatch(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	for i := range records {
		if err := enc.Encode(&records[i]); err != nil {
			return fmt.Errorf("output: encode %s: %w", records[i].AudioFilepath, err)
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	return w.withLock(ctx, func() error {
		file, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("output: open %s: %w", w.path, err)
		}
		n, err := file.Write(buf.Bytes())
		w.written += int64(n)
		if err != nil {
			_ = file.Close()
			return fmt.Errorf("output: append %s: %w", w.path, err)
		}
		if err := file.Close(); err != nil {
			return fmt.Errorf("output: close %s: %w", w.path, err)
		}
		w.lines += len(records)
		return nil
	})
}

func (w *Writer) withLock(ctx context.Context, fn func() error) error {
	ok, err := w.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("output: acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("output: lock %s not acquired", LockPath(w.path))
	}
	defer func() { _ = w.lock.Unlock() }()
	return fn()
}

// Path returns the output file path.
func (w *Writer) Path() string { return w.path }

// RunID returns the run this writer appends for.
func (w *Writer) RunID() string { return w.runID }

// BytesWritten returns the bytes appended by this writer.
func (w *Writer) BytesWritten() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.written
}

// Lines returns the number of records appended by this writer.
func (w *Writer) Lines() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lines
}

// ReadRecords decodes every line of a prediction file.
func ReadRecords(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []Record
	dec := json.NewDecoder(bytes.NewReader(data))
	for dec.More() {
		var rec Record
		if err := dec.Decode(&rec); err != nil {
			return nil, fmt.Errorf("output: decode %s: %w", path, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

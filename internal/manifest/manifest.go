package manifest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"sttbatch/internal/services"
)

const maxLineBytes = 16 << 20

// Entry is one utterance from the manifest.
type Entry struct {
	AudioFilepath string
	// Duration in seconds. Zero means unknown; negative marks a failed probe.
	Duration float64
	// Line is the 1-based manifest line the entry came from.
	Line int
	// Extra carries every other key on the line untouched.
	Extra map[string]json.RawMessage
}

// Load reads the manifest at path.
func Load(path string) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, services.Wrap(services.ErrNotFound, "manifest", "open", path, err)
		}
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer file.Close()

	entries, err := Read(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return entries, nil
}

// Read decodes JSON lines from r. Blank lines are skipped.
func Read(r io.Reader) ([]Entry, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var entries []Entry
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		entry, err := decodeLine(raw)
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "manifest", fmt.Sprintf("line %d", line), "", err)
		}
		entry.Line = line
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return entries, nil
}

func decodeLine(raw []byte) (Entry, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Entry{}, fmt.Errorf("decode: %w", err)
	}

	var entry Entry
	path, ok := fields["audio_filepath"]
	if !ok {
		return Entry{}, errors.New("missing audio_filepath")
	}
	if err := json.Unmarshal(path, &entry.AudioFilepath); err != nil {
		return Entry{}, fmt.Errorf("audio_filepath: %w", err)
	}
	entry.AudioFilepath = strings.TrimSpace(entry.AudioFilepath)
	if entry.AudioFilepath == "" {
		return Entry{}, errors.New("empty audio_filepath")
	}
	delete(fields, "audio_filepath")

	if duration, ok := fields["duration"]; ok {
		if err := json.Unmarshal(duration, &entry.Duration); err != nil {
			return Entry{}, fmt.Errorf("duration: %w", err)
		}
		delete(fields, "duration")
	}
	if len(fields) > 0 {
		entry.Extra = fields
	}
	return entry, nil
}

// Shard returns the entries rank owns when worldSize ranks split the manifest
// round-robin. Every entry lands on exactly one rank.
func Shard(entries []Entry, rank, worldSize int) ([]Entry, error) {
	if worldSize <= 0 {
		return nil, services.Wrap(services.ErrConfiguration, "manifest", "shard", fmt.Sprintf("world size %d must be positive", worldSize), nil)
	}
	if rank < 0 || rank >= worldSize {
		return nil, services.Wrap(services.ErrConfiguration, "manifest", "shard", fmt.Sprintf("rank %d outside world of %d", rank, worldSize), nil)
	}
	if worldSize == 1 {
		return entries, nil
	}
	out := make([]Entry, 0, len(entries)/worldSize+1)
	for i := rank; i < len(entries); i += worldSize {
		out = append(out, entries[i])
	}
	return out, nil
}

// Batches splits entries into consecutive groups of at most size entries.
// The returned slices share the backing array of entries.
func Batches(entries []Entry, size int) [][]Entry {
	if size <= 0 || len(entries) == 0 {
		return nil
	}
	out := make([][]Entry, 0, (len(entries)+size-1)/size)
	for start := 0; start < len(entries); start += size {
		end := min(start+size, len(entries))
		out = append(out, entries[start:end:end])
	}
	return out
}

// TotalDuration sums the durations of entries with a known length.
func TotalDuration(entries []Entry) float64 {
	var total float64
	for _, e := range entries {
		if e.Duration > 0 {
			total += e.Duration
		}
	}
	return total
}

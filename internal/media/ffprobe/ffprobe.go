package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

// ErrNoAudio is returned when the file has no decodable audio stream.
var ErrNoAudio = errors.New("ffprobe: no audio stream")

const defaultBinary = "ffprobe"

// probeArgs precede the input path on every invocation.
var probeArgs = []string{"-v", "error", "-hide_banner", "-select_streams", "a", "-show_format", "-show_streams", "-of", "json"}

// Decimal is a numeric field ffprobe reports as a JSON string.
type Decimal string

// Seconds parses d. Blank is (0, true); garbage is (NaN, false).
func (d Decimal) Seconds() (float64, bool) {
	raw := strings.TrimSpace(string(d))
	if raw == "" {
		return 0, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return math.NaN(), false
	}
	return v, true
}

// Stream is one entry of ffprobe's "streams" array.
type Stream struct {
	Index     int     `json:"index"`
	CodecName string  `json:"codec_name"`
	CodecType string  `json:"codec_type"`
	Duration  Decimal `json:"duration"`
}

// Result is the subset of ffprobe's JSON report used for duration probing.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  struct {
		Filename   string  `json:"filename"`
		FormatName string  `json:"format_name"`
		Duration   Decimal `json:"duration"`
	} `json:"format"`
}

// AudioStreams returns the audio entries of r.Streams.
func (r Result) AudioStreams() []Stream {
	var audio []Stream
	for _, s := range r.Streams {
		if strings.EqualFold(s.CodecType, "audio") {
			audio = append(audio, s)
		}
	}
	return audio
}

// DurationSeconds prefers the container duration and falls back to the first
// audio stream that reports one, as raw streams carry no container duration.
// It returns 0 when nothing is reported and NaN when the value is unparseable.
func (r Result) DurationSeconds() float64 {
	candidates := []Decimal{r.Format.Duration}
	for _, s := range r.AudioStreams() {
		candidates = append(candidates, s.Duration)
	}
	for _, c := range candidates {
		if strings.TrimSpace(string(c)) == "" {
			continue
		}
		v, _ := c.Seconds()
		return v
	}
	return 0
}

// Runner executes a command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Prober runs ffprobe against audio files.
type Prober struct {
	binary string
	run    Runner
}

// NewProber creates a prober. An empty binary means "ffprobe" on PATH.
func NewProber(binary string) *Prober {
	if binary = strings.TrimSpace(binary); binary == "" {
		binary = defaultBinary
	}
	return &Prober{
		binary: binary,
		run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).CombinedOutput() //nolint:gosec
		},
	}
}

// WithRunner replaces the command runner.
func (p *Prober) WithRunner(run Runner) *Prober {
	if run != nil {
		p.run = run
	}
	return p
}

// Inspect decodes ffprobe's audio-stream report for path.
func (p *Prober) Inspect(ctx context.Context, path string) (Result, error) {
	if strings.TrimSpace(path) == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}
	args := append(append([]string(nil), probeArgs...), "--", path)
	out, err := p.run(ctx, p.binary, args...)
	if err != nil {
		return Result{}, fmt.Errorf("ffprobe inspect %s: %w: %s", path, err, strings.TrimSpace(string(out)))
	}
	var result Result
	if err := json.Unmarshal(out, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse %s: %w", path, err)
	}
	return result, nil
}

// Duration returns the playable length of path in seconds.
func (p *Prober) Duration(ctx context.Context, path string) (float64, error) {
	result, err := p.Inspect(ctx, path)
	if err != nil {
		return 0, err
	}
	if len(result.AudioStreams()) == 0 {
		return 0, fmt.Errorf("%w: %s", ErrNoAudio, path)
	}
	if seconds := result.DurationSeconds(); seconds > 0 {
		return seconds, nil
	}
	return 0, fmt.Errorf("ffprobe: %s reports no usable duration", path)
}

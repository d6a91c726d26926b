package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// Generator produces token sequences and per-step scores for a batch of audio.
type Generator interface {
	// VocabSize returns the vocabulary size of the loaded model, or zero when
	// it is not known yet.
	VocabSize() int
	Generate(ctx context.Context, req Request) (Generation, error)
}

// Request describes one batch. Language and Task form the forced decoder
// prompt.
type Request struct {
	Model          string   `json:"model"`
	Language       string   `json:"language"`
	Task           string   `json:"task"`
	SampleRate     int      `json:"sample_rate"`
	Device         string   `json:"device"`
	AudioFilepaths []string `json:"audio_filepaths"`
}

// Generation is the decoded output for one batch.
type Generation struct {
	VocabSize int
	// Sequences is [rows][length] including the decoder prompt.
	Sequences [][]int
	// Scores is [steps][rows or rows*beams][vocab].
	Scores [][][]float64
	// BeamIndices is nil for greedy decoding.
	BeamIndices [][]int
	// Texts holds one decoded transcript per input row.
	Texts []string
}

// Rows returns the number of kept sequences.
func (g Generation) Rows() int { return len(g.Sequences) }

// Steps returns the number of generation steps scored.
func (g Generation) Steps() int { return len(g.Scores) }

type generationWire struct {
	VocabSize   int            `json:"vocab_size"`
	Sequences   [][]int        `json:"sequences"`
	Scores      [][][]logit    `json:"scores"`
	BeamIndices [][]int        `json:"beam_indices"`
	Texts       []string       `json:"texts"`
	Error       *responseError `json:"error,omitempty"`
}

type responseError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// DecodeGeneration parses a generation document as printed by the inference
// command (and saved by "sttbatch score" users).
func DecodeGeneration(data []byte) (Generation, error) {
	var wire generationWire
	if err := json.Unmarshal(quoteNonFinite(data), &wire); err != nil {
		return Generation{}, fmt.Errorf("decode generation: %w", err)
	}
	if wire.Error != nil {
		msg := strings.TrimSpace(wire.Error.Message)
		if wire.Error.Type != "" {
			msg = wire.Error.Type + ": " + msg
		}
		return Generation{}, fmt.Errorf("inference reported error: %s", msg)
	}
	gen := Generation{
		VocabSize:   wire.VocabSize,
		Sequences:   wire.Sequences,
		BeamIndices: wire.BeamIndices,
		Texts:       wire.Texts,
	}
	if len(wire.Scores) > 0 {
		gen.Scores = make([][][]float64, len(wire.Scores))
		for step, tensor := range wire.Scores {
			gen.Scores[step] = make([][]float64, len(tensor))
			for row, dist := range tensor {
				values := make([]float64, len(dist))
				for i, v := range dist {
					values[i] = float64(v)
				}
				gen.Scores[step][row] = values
			}
		}
	}
	return gen, nil
}

// nonFinite lists the bare literals Python's json.dumps writes for IEEE
// specials. They are not JSON, so they are quoted before decoding.
var nonFinite = [][]byte{[]byte("-Infinity"), []byte("Infinity"), []byte("NaN")}

// quoteNonFinite wraps bare NaN, Infinity and -Infinity tokens outside string
// literals in quotes. Input without them is returned as is.
func quoteNonFinite(data []byte) []byte {
	if !bytes.Contains(data, []byte("Infinity")) && !bytes.Contains(data, []byte("NaN")) {
		return data
	}
	out := make([]byte, 0, len(data)+16)
	inString, escaped := false, false
	for i := 0; i < len(data); i++ {
		c := data[i]
		if inString {
			out = append(out, c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		if c == '"' {
			inString = true
			out = append(out, c)
			continue
		}
		if lit := matchNonFinite(data[i:]); lit != nil {
			out = append(out, '"')
			out = append(out, lit...)
			out = append(out, '"')
			i += len(lit) - 1
			continue
		}
		out = append(out, c)
	}
	return out
}

func matchNonFinite(rest []byte) []byte {
	for _, lit := range nonFinite {
		if !bytes.HasPrefix(rest, lit) {
			continue
		}
		if len(rest) > len(lit) && isIdentByte(rest[len(lit)]) {
			return nil
		}
		return lit
	}
	return nil
}

func isIdentByte(c byte) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}

// logit accepts JSON numbers plus the encodings inference scripts use for
// values JSON cannot represent: null, "-Infinity" or "-inf" mean a suppressed
// token. Bare json.dumps literals reach here quoted by quoteNonFinite.
type logit float64

func (l *logit) UnmarshalJSON(data []byte) error {
	text := strings.TrimSpace(string(data))
	switch text {
	case "null", `"-Infinity"`, `"-inf"`:
		*l = logit(math.Inf(-1))
		return nil
	case `"Infinity"`, `"inf"`:
		*l = logit(math.Inf(1))
		return nil
	case `"NaN"`, `"nan"`:
		*l = logit(math.NaN())
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*l = logit(v)
	return nil
}

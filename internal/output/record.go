package output

import (
	"bytes"
	"encoding/json"
	"math"
)

// Record is one prediction line.
type Record struct {
	AudioFilepath string     `json:"audio_filepath"`
	Duration      float64    `json:"duration"`
	PredText      string     `json:"pred_text"`
	Scores        ScoreSlice `json:"scores"`
}

// ScoreSlice encodes transition scores. Non-finite values, which JSON cannot
// carry, are written as null.
type ScoreSlice []float64

func (s ScoreSlice) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	var buf bytes.Buffer
	buf.Grow(len(s) * 12)
	buf.WriteByte('[')
	for i, v := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			buf.WriteString("null")
			continue
		}
		encoded, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		buf.Write(encoded)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func (s *ScoreSlice) UnmarshalJSON(data []byte) error {
	var raw []*float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(ScoreSlice, len(raw))
	for i, v := range raw {
		if v == nil {
			out[i] = math.Inf(-1)
			continue
		}
		out[i] = *v
	}
	*s = out
	return nil
}

package scoring

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// LogSumExp returns log(sum(exp(x))) for a non-empty slice, shifting by the
// maximum first. An all -Inf input yields -Inf.
func LogSumExp(x []float64) float64 {
	if len(x) == 0 {
		return math.Inf(-1)
	}
	return floats.LogSumExp(x)
}

// LogSoftmax writes the log-softmax of src into dst and returns dst. When dst
// is nil or too short a new slice is allocated. Entries of -Inf stay -Inf; a
// distribution whose entries are all -Inf is returned unchanged.
func LogSoftmax(dst, src []float64) []float64 {
	if len(dst) < len(src) {
		dst = make([]float64, len(src))
	}
	dst = dst[:len(src)]
	if len(src) == 0 {
		return dst
	}
	lse := LogSumExp(src)
	for i, v := range src {
		dst[i] = normalizedValue(v, lse)
	}
	return dst
}

func normalizedValue(v, lse float64) float64 {
	if math.IsInf(lse, -1) || math.IsInf(v, -1) {
		return math.Inf(-1)
	}
	return v - lse
}

// checkFinite rejects values that make a normalised distribution undefined.
// -Inf is allowed because logits processors use it to suppress tokens.
func checkFinite(row []float64) (int, bool) {
	for i, v := range row {
		if math.IsNaN(v) || math.IsInf(v, 1) {
			return i, false
		}
	}
	return -1, true
}

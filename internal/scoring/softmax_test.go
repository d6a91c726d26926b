package scoring_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sttbatch/internal/scoring"
)

func TestLogSoftmaxSumsToOne(t *testing.T) {
	cases := map[string][]float64{
		"small":      {2.0, 1.0, 0.0},
		"large":      {1000, 999, 998, 10},
		"tiny":       {-1000, -1001, -999.5},
		"mixed":      {1e4, -1e4, 0, 3},
		"suppressed": {math.Inf(-1), 0.5, 0.25, math.Inf(-1)},
		"uniform":    {7, 7, 7, 7, 7},
	}
	for name, logits := range cases {
		t.Run(name, func(t *testing.T) {
			out := scoring.LogSoftmax(nil, logits)
			require.Len(t, out, len(logits))
			sum := 0.0
			for _, v := range out {
				require.False(t, math.IsNaN(v))
				sum += math.Exp(v)
			}
			assert.InDelta(t, 1.0, sum, 1e-9)
		})
	}
}

func TestLogSoftmaxReusesDestination(t *testing.T) {
	dst := make([]float64, 8)
	out := scoring.LogSoftmax(dst, []float64{0, 0})
	require.Len(t, out, 2)
	assert.Same(t, &dst[0], &out[0])
	assert.InDelta(t, math.Log(0.5), out[0], 1e-12)
}

func TestLogSoftmaxAllSuppressed(t *testing.T) {
	out := scoring.LogSoftmax(nil, []float64{math.Inf(-1), math.Inf(-1)})
	for _, v := range out {
		assert.True(t, math.IsInf(v, -1))
	}
}

func TestLogSumExpEmpty(t *testing.T) {
	assert.True(t, math.IsInf(scoring.LogSumExp(nil), -1))
}

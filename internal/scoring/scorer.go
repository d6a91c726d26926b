package scoring

import "math"

// Options tunes ComputeTransitionScores.
type Options struct {
	// BeamIndices maps, per kept sequence row and generation step, the row of
	// that step's score tensor the kept token came from. Negative entries mark
	// beams that had already finished. Nil means greedy decoding: every row
	// reads its own row at every step.
	BeamIndices [][]int
	// NormalizeLogits applies log-softmax over the vocabulary to each step's
	// distribution before tokens are gathered.
	NormalizeLogits bool
}

// TransitionScores holds one row per kept sequence and one column per step of
// the longest surviving beam.
type TransitionScores [][]float64

// Rows returns the number of sequences scored.
func (t TransitionScores) Rows() int { return len(t) }

// Width returns the number of step columns, which is the same for every row.
func (t TransitionScores) Width() int {
	if len(t) == 0 {
		return 0
	}
	return len(t[0])
}

// ComputeTransitionScores returns, for every row of sequences, the score each
// generated token received at the step it was chosen.
//
// scores holds one tensor per generation step, each shaped
// [rows or rows*beams][vocabSize]. sequences is [rows][length] and includes any
// prompt tokens; the trailing columns line up with the generation steps.
//
// The result is shaped [rows][maxBeamLength], where maxBeamLength is the
// largest number of non-negative beam indices in any row. Positions whose beam
// index is negative are exactly zero.
func ComputeTransitionScores(vocabSize int, sequences [][]int, scores [][][]float64, opts Options) (TransitionScores, error) {
	if vocabSize <= 0 {
		return nil, violation("vocab size must be positive, got %d", vocabSize)
	}
	seqLen, err := sequenceLength(sequences)
	if err != nil {
		return nil, err
	}
	scoreRows, err := checkScores(vocabSize, scores)
	if err != nil {
		return nil, err
	}
	steps := len(scores)

	beams := opts.BeamIndices
	if beams == nil {
		if steps > 0 && scoreRows != len(sequences) {
			return nil, violation("greedy scores have %d rows but sequences have %d", scoreRows, len(sequences))
		}
		beams = identityBeams(len(sequences), steps)
	} else if err := checkBeams(beams, len(sequences), steps, scoreRows); err != nil {
		return nil, err
	}

	width := maxBeamLength(beams)
	if width > seqLen {
		return nil, violation("sequences have %d columns but %d generation steps must be scored", seqLen, width)
	}
	cut := seqLen - width

	var norm *normalizer
	if opts.NormalizeLogits {
		norm = newNormalizer(scores)
	}

	out := make(TransitionScores, len(sequences))
	for row, seq := range sequences {
		out[row] = make([]float64, width)
		for step := 0; step < width; step++ {
			beam := beams[row][step]
			if beam < 0 {
				// Finished beam: stays zero.
				continue
			}
			token := seq[cut+step]
			if token < 0 || token >= vocabSize {
				return nil, violation("token %d at row %d column %d outside vocabulary of %d", token, row, cut+step, vocabSize)
			}
			value := scores[step][beam][token]
			if norm != nil {
				lse, err := norm.logSumExp(step, beam)
				if err != nil {
					return nil, err
				}
				value = normalizedValue(value, lse)
			}
			out[row][step] = value
		}
	}
	return out, nil
}

func sequenceLength(sequences [][]int) (int, error) {
	if len(sequences) == 0 {
		return 0, nil
	}
	length := len(sequences[0])
	for i, seq := range sequences {
		if len(seq) != length {
			return 0, violation("sequence row %d has %d tokens, row 0 has %d", i, len(seq), length)
		}
	}
	return length, nil
}

func checkScores(vocabSize int, scores [][][]float64) (int, error) {
	if len(scores) == 0 {
		return 0, nil
	}
	rows := len(scores[0])
	for step, tensor := range scores {
		if len(tensor) != rows {
			return 0, violation("score step %d has %d rows, step 0 has %d", step, len(tensor), rows)
		}
		for row, dist := range tensor {
			if len(dist) != vocabSize {
				return 0, violation("score step %d row %d has %d entries, vocab size is %d", step, row, len(dist), vocabSize)
			}
		}
	}
	return rows, nil
}

func checkBeams(beams [][]int, rows, steps, scoreRows int) error {
	if len(beams) != rows {
		return violation("beam indices have %d rows but sequences have %d", len(beams), rows)
	}
	for row, indices := range beams {
		if len(indices) != steps {
			return violation("beam indices row %d has %d steps, scores have %d", row, len(indices), steps)
		}
		for step, beam := range indices {
			if beam >= scoreRows {
				return violation("beam index %d at row %d step %d exceeds %d score rows", beam, row, step, scoreRows)
			}
		}
	}
	return nil
}

func identityBeams(rows, steps int) [][]int {
	beams := make([][]int, rows)
	for row := range beams {
		beams[row] = make([]int, steps)
		for step := range beams[row] {
			beams[row][step] = row
		}
	}
	return beams
}

// maxBeamLength counts the valid entries of each row and returns the largest
// count. Columns beyond it belong to no surviving beam and are dropped.
func maxBeamLength(beams [][]int) int {
	longest := 0
	for _, indices := range beams {
		valid := 0
		for _, beam := range indices {
			if beam >= 0 {
				valid++
			}
		}
		if valid > longest {
			longest = valid
		}
	}
	return longest
}

// normalizer caches log-sum-exp per (step, score row) so each distribution
// is reduced once no matter how many kept sequences read from it.
type normalizer struct {
	scores [][][]float64
	cache  [][]float64
}

func newNormalizer(scores [][][]float64) *normalizer {
	cache := make([][]float64, len(scores))
	for step, tensor := range scores {
		cache[step] = make([]float64, len(tensor))
		for row := range cache[step] {
			cache[step][row] = math.NaN()
		}
	}
	return &normalizer{scores: scores, cache: cache}
}

func (n *normalizer) logSumExp(step, row int) (float64, error) {
	if cached := n.cache[step][row]; !math.IsNaN(cached) {
		return cached, nil
	}
	dist := n.scores[step][row]
	if idx, ok := checkFinite(dist); !ok {
		return 0, violation("score step %d row %d has non-finite logit %v at token %d", step, row, dist[idx], idx)
	}
	lse := LogSumExp(dist)
	n.cache[step][row] = lse
	return lse, nil
}

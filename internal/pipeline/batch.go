package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sttbatch/internal/inference"
	"sttbatch/internal/ledger"
	"sttbatch/internal/logging"
	"sttbatch/internal/manifest"
	"sttbatch/internal/output"
	"sttbatch/internal/scoring"
	"sttbatch/internal/services"
	"sttbatch/internal/textnorm"
)

type batchResult struct {
	tokens int
}

func (p *Pipeline) processBatch(ctx context.Context, opts Options, writer *output.Writer, batch []manifest.Entry) (batchResult, error) {
	logger := logging.WithContext(ctx, p.logger)
	started := time.Now()

	paths := make([]string, len(batch))
	for i, entry := range batch {
		paths[i] = entry.AudioFilepath
	}

	genCtx := services.WithStep(ctx, "generate")
	gen, err := p.generator.Generate(genCtx, inference.Request{
		Model:          opts.Model,
		Language:       opts.Language.Code,
		Task:           opts.Task,
		SampleRate:     opts.SampleRate,
		Device:         opts.Device,
		AudioFilepaths: paths,
	})
	if err != nil {
		return batchResult{}, err
	}
	if err := checkGeneration(gen, len(batch)); err != nil {
		return batchResult{}, err
	}

	vocab := gen.VocabSize
	if vocab <= 0 {
		vocab = p.generator.VocabSize()
	}
	scores, err := scoring.ComputeTransitionScores(vocab, gen.Sequences, gen.Scores, scoring.Options{
		BeamIndices:     gen.BeamIndices,
		NormalizeLogits: opts.NormalizeLogits,
	})
	if err != nil {
		return batchResult{}, services.Wrap(services.ErrValidation, "score", "compute transition scores", "", err)
	}

	records := make([]output.Record, len(batch))
	utterances := make([]ledger.Utterance, len(batch))
	tokens := 0
	for i, entry := range batch {
		text := gen.Texts[i]
		if opts.NormalizeText {
			text = textnorm.Normalize(text, opts.Language.Indic())
		}
		count := tokenCount(gen, i)
		tokens += count
		records[i] = output.Record{
			AudioFilepath: entry.AudioFilepath,
			Duration:      entry.Duration,
			PredText:      text,
			Scores:        output.ScoreSlice(scores[i]),
		}
		utterances[i] = ledger.Utterance{
			AudioFilepath: entry.AudioFilepath,
			Rank:          opts.Rank,
			Duration:      entry.Duration,
			TokenCount:    count,
			MeanScore:     ledger.MeanScore(scores[i][:min(count, len(scores[i]))]),
		}
	}

	// Output first, ledger second: a crash in between repeats the batch on
	// resume rather than losing it.
	if err := writer.WriteBatch(ctx, records); err != nil {
		return batchResult{}, services.Wrap(services.ErrTransient, "write", "append batch", writer.Path(), err)
	}
	if err := p.ledger.RecordUtterances(ctx, opts.RunID, utterances); err != nil {
		return batchResult{}, fmt.Errorf("record batch in ledger: %w", err)
	}

	logger.Debug("batch completed",
		logging.Event("batch_complete"),
		logging.Int("utterances", len(batch)),
		logging.Int("steps", gen.Steps()),
		logging.Int("tokens", tokens),
		logging.Bool("beam_search", gen.BeamIndices != nil),
		logging.Duration("batch_duration", time.Since(started)),
	)
	return batchResult{tokens: tokens}, nil
}

// checkGeneration verifies the generator answered for every utterance in the
// batch.
func checkGeneration(gen inference.Generation, want int) error {
	var problems []error
	if gen.Rows() != want {
		problems = append(problems, fmt.Errorf("%d sequences for %d utterances", gen.Rows(), want))
	}
	if len(gen.Texts) != want {
		problems = append(problems, fmt.Errorf("%d texts for %d utterances", len(gen.Texts), want))
	}
	if len(problems) == 0 {
		return nil
	}
	return services.Wrap(services.ErrValidation, "generate", "check batch shape", "", errors.Join(problems...))
}

// tokenCount is the number of scored generation steps for row: every step for
// greedy decoding, the surviving beam steps otherwise.
func tokenCount(gen inference.Generation, row int) int {
	if gen.BeamIndices == nil {
		return gen.Steps()
	}
	count := 0
	for _, beam := range gen.BeamIndices[row] {
		if beam >= 0 {
			count++
		}
	}
	return count
}

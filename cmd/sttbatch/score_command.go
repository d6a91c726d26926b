package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"sttbatch/internal/inference"
	"sttbatch/internal/output"
	"sttbatch/internal/scoring"
)

type scoreResult struct {
	VocabSize int        `json:"vocab_size"`
	Steps     int        `json:"steps"`
	Rows      []scoreRow `json:"rows"`
}

type scoreRow struct {
	Text   string            `json:"text,omitempty"`
	Scores output.ScoreSlice `json:"scores"`
}

func newScoreCommand() *cobra.Command {
	var (
		inputPath string
		normalize bool
		vocabSize int
	)

	cmd := &cobra.Command{
		Use:         "score",
		Short:       "Compute transition scores for a saved generation dump",
		Long:        "Read a generation document in the inference response format (use - for stdin) and print per-token scores as JSON.",
		Annotations: map[string]string{skipConfigAnnotation: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, inputPath)
			if err != nil {
				return err
			}
			gen, err := inference.DecodeGeneration(data)
			if err != nil {
				return err
			}
			vocab := gen.VocabSize
			if vocabSize > 0 {
				vocab = vocabSize
			}
			scores, err := scoring.ComputeTransitionScores(vocab, gen.Sequences, gen.Scores, scoring.Options{
				BeamIndices:     gen.BeamIndices,
				NormalizeLogits: normalize,
			})
			if err != nil {
				return err
			}

			result := scoreResult{VocabSize: vocab, Steps: scores.Width(), Rows: make([]scoreRow, scores.Rows())}
			for i := range scores {
				row := scoreRow{Scores: output.ScoreSlice(scores[i])}
				if i < len(gen.Texts) {
					row.Text = gen.Texts[i]
				}
				result.Rows[i] = row
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "Generation JSON file, or - for stdin (required)")
	cmd.Flags().BoolVar(&normalize, "normalize", false, "Apply log-softmax to each step before gathering")
	cmd.Flags().IntVar(&vocabSize, "vocab-size", 0, "Override the vocabulary size from the document")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	path = strings.TrimSpace(path)
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read generation: %w", err)
	}
	return data, nil
}

package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"sttbatch/internal/config"
	"sttbatch/internal/deps"
	"sttbatch/internal/inference"
	"sttbatch/internal/language"
	"sttbatch/internal/ledger"
	"sttbatch/internal/logging"
	"sttbatch/internal/media/ffprobe"
	"sttbatch/internal/pipeline"
	"sttbatch/internal/preflight"
	"sttbatch/internal/services"
	"sttbatch/internal/textnorm"
)

// runIDEnv lets a launcher hand every rank the same run id.
const runIDEnv = "STTBATCH_RUN_ID"

type runFlags struct {
	manifest      string
	model         string
	language      string
	batchSize     int
	output        string
	runID         string
	resume        bool
	skipPreflight bool
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Transcribe this rank's share of a manifest",
		Long: `Transcribe this rank's share of a manifest.

Launch one process per rank with LOCAL_RANK and WORLD_SIZE set, and give every
rank the same --run-id (or STTBATCH_RUN_ID). The manifest is split round-robin,
so each rank's inference command sees a disjoint slice of it; a command that
expects every rank to see the full data (tensor-parallel serving) must be
launched with WORLD_SIZE=1. Ranks append to one output file.

Resume is at-least-once: a batch is appended to the output before it is
recorded in the ledger, so a batch interrupted between the two steps is
transcribed again by --resume and its lines appear twice. Deduplicate on
audio_filepath, keeping the last line, when that matters.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			cfg := *base
			if err := applyRunFlags(&cfg, cmd, flags); err != nil {
				return err
			}
			return executeRun(cmd, &cfg, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.manifest, "manifest", "m", "", "JSON-lines manifest with audio_filepath per line (required)")
	cmd.Flags().StringVar(&flags.model, "model", "", "Model identifier (overrides model.id)")
	cmd.Flags().StringVarP(&flags.language, "language", "l", "", "Language name or code (overrides model.language)")
	cmd.Flags().IntVarP(&flags.batchSize, "batch-size", "b", 0, "Utterances per batch (overrides model.batch_size)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Prediction file (default <model>_<lang>.jsonl in paths.output_dir)")
	cmd.Flags().StringVar(&flags.runID, "run-id", "", "Run identifier shared by all ranks (default $"+runIDEnv+" or a new id)")
	cmd.Flags().BoolVar(&flags.resume, "resume", false, "Skip utterances already recorded for --run-id (at-least-once; see above)")
	cmd.Flags().BoolVar(&flags.skipPreflight, "skip-preflight", false, "Do not check tools and directories before starting")
	_ = cmd.MarkFlagRequired("manifest")
	return cmd
}

func applyRunFlags(cfg *config.Config, cmd *cobra.Command, flags runFlags) error {
	if cmd.Flags().Changed("model") {
		cfg.Model.ID = strings.TrimSpace(flags.model)
	}
	if cmd.Flags().Changed("language") {
		cfg.Model.Language = strings.TrimSpace(flags.language)
	}
	if cmd.Flags().Changed("batch-size") {
		cfg.Model.BatchSize = flags.batchSize
	}
	return cfg.Validate()
}

func resolveRunID(flags runFlags, worldSize int) (string, error) {
	id := strings.TrimSpace(flags.runID)
	if id == "" {
		id = strings.TrimSpace(os.Getenv(runIDEnv))
	}
	switch {
	case id != "":
		return id, nil
	case flags.resume:
		return "", services.Wrap(services.ErrConfiguration, "run", "resolve run id", "--resume needs --run-id", nil)
	case worldSize > 1:
		return "", services.Wrap(services.ErrConfiguration, "run", "resolve run id",
			fmt.Sprintf("world size is %d; pass the same --run-id (or %s) to every rank", worldSize, runIDEnv), nil)
	}
	return uuid.NewString(), nil
}

func resolveOutputPath(cfg *config.Config, flags runFlags, lang language.Language) (string, error) {
	target := strings.TrimSpace(flags.output)
	if target == "" {
		target = textnorm.OutputName(cfg.Model.ID, lang.Code)
	}
	return cfg.ResolveOutputPath(target)
}

func executeRun(cmd *cobra.Command, cfg *config.Config, flags runFlags) error {
	opts, err := pipeline.OptionsFromConfig(cfg)
	if err != nil {
		return err
	}
	opts.RunID, err = resolveRunID(flags, cfg.Distributed.WorldSize)
	if err != nil {
		return err
	}
	opts.Resume = flags.resume
	opts.ManifestPath, err = config.ExpandPath(flags.manifest)
	if err != nil {
		return err
	}
	opts.OutputPath, err = resolveOutputPath(cfg, flags, opts.Language)
	if err != nil {
		return err
	}

	if !flags.skipPreflight {
		if failed := preflight.Failed(preflight.RunAll(cmd.Context(), cfg)); len(failed) > 0 {
			details := make([]string, len(failed))
			for i, r := range failed {
				details[i] = r.Name + ": " + r.Detail
			}
			return services.Wrap(services.ErrConfiguration, "preflight", "", strings.Join(details, "; "), nil)
		}
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}

	store, err := ledger.Open(cfg)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer store.Close()

	generator := inference.NewCommandGenerator(inference.ConfigFromApp(cfg), logger)
	prober := ffprobe.NewProber(deps.ResolveFFprobePath(cfg.FFprobeBinary()))
	p := pipeline.New(generator, prober, store, logger)
	if isTerminal(cmd.ErrOrStderr()) {
		p.WithProgress(pipeline.BarProgress(cmd.ErrOrStderr()))
	}

	summary, err := p.Run(cmd.Context(), opts)
	printSummary(cmd, opts, summary)
	if err != nil {
		if errors.Is(err, services.ErrConfiguration) || errors.Is(err, services.ErrValidation) {
			return err
		}
		if services.Retryable(err) {
			return fmt.Errorf("%w (resume with: sttbatch run --manifest %s --run-id %s --resume)", err, flags.manifest, opts.RunID)
		}
		return err
	}
	return nil
}

func printSummary(cmd *cobra.Command, opts pipeline.Options, summary pipeline.Summary) {
	if summary.RunID == "" {
		return
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s rank %d of %d\n", summary.RunID, summary.Rank, opts.WorldSize)
	fmt.Fprintf(out, "  Utterances: %s in %s batches (%s audio)\n",
		humanize.Comma(int64(summary.Utterances)), humanize.Comma(int64(summary.Batches)), formatAudioHours(summary.AudioSeconds))
	if summary.Resumed > 0 {
		fmt.Fprintf(out, "  Resumed:    %s already recorded\n", humanize.Comma(int64(summary.Resumed)))
	}
	if summary.FailedProbes > 0 || summary.TooShort > 0 {
		fmt.Fprintf(out, "  Dropped:    %d unreadable, %d too short\n", summary.FailedProbes, summary.TooShort)
	}
	fmt.Fprintf(out, "  Output:     %s (+%s)\n", opts.OutputPath, humanize.IBytes(uint64(summary.BytesWritten)))
	fmt.Fprintf(out, "  Time taken: %.4f h\n", summary.ElapsedHours())
}

func formatAudioHours(seconds float64) string {
	return humanize.FormatFloat("#,###.##", seconds/3600) + " h"
}

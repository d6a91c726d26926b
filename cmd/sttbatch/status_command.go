package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"sttbatch/internal/ledger"
)

type runView struct {
	ID           string     `json:"id"`
	Status       string     `json:"status"`
	Model        string     `json:"model"`
	Language     string     `json:"language"`
	Manifest     string     `json:"manifest"`
	Output       string     `json:"output"`
	WorldSize    int        `json:"world_size"`
	RanksDone    int        `json:"ranks_done"`
	Utterances   int        `json:"utterances"`
	AudioSeconds float64    `json:"audio_seconds"`
	MeanScore    float64    `json:"mean_score"`
	CreatedAt    time.Time  `json:"created_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
	Errors       []string   `json:"errors,omitempty"`
}

func newRunView(run ledger.Run) runView {
	view := runView{
		ID:           run.ID,
		Status:       string(run.Status()),
		Model:        run.Model,
		Language:     run.Language,
		Manifest:     run.Manifest,
		Output:       run.Output,
		WorldSize:    run.WorldSize,
		Utterances:   run.Utterances,
		AudioSeconds: run.AudioSeconds,
		MeanScore:    run.MeanScore,
		CreatedAt:    run.CreatedAt,
	}
	if finished := run.FinishedAt(); !finished.IsZero() {
		view.FinishedAt = &finished
	}
	for _, rank := range run.Ranks {
		if rank.Status == ledger.StatusCompleted {
			view.RanksDone++
		}
		if rank.ErrorMessage != "" {
			view.Errors = append(view.Errors, fmt.Sprintf("rank %d (%s): %s", rank.Rank, rank.ErrorKind, rank.ErrorMessage))
		}
	}
	return view
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "status [run-id]",
		Short: "Show recent runs recorded in the ledger",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openLedger()
			if err != nil {
				return err
			}
			defer store.Close()

			var runs []ledger.Run
			if len(args) == 1 {
				run, err := store.GetRun(cmd.Context(), strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				runs = []ledger.Run{*run}
			} else {
				runs, err = store.ListRuns(cmd.Context(), limit)
				if err != nil {
					return err
				}
			}

			views := make([]runView, len(runs))
			for i, run := range runs {
				views[i] = newRunView(run)
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), views)
			}

			out := cmd.OutOrStdout()
			if len(views) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			fmt.Fprintln(out, renderRunsTable(views))
			for _, view := range views {
				for _, msg := range view.Errors {
					fmt.Fprintf(out, "%s: %s\n", view.ID, msg)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print runs as JSON")
	return cmd
}

func renderRunsTable(views []runView) string {
	rows := make([][]string, 0, len(views))
	var (
		totalUtterances int
		totalSeconds    float64
	)
	for _, v := range views {
		mean := "-"
		if v.Utterances > 0 {
			mean = strconv.FormatFloat(v.MeanScore, 'f', 3, 64)
		}
		rows = append(rows, []string{
			v.ID,
			v.Status,
			humanize.Time(v.CreatedAt),
			v.Model,
			v.Language,
			fmt.Sprintf("%d/%d", v.RanksDone, v.WorldSize),
			humanize.Comma(int64(v.Utterances)),
			formatAudioHours(v.AudioSeconds),
			mean,
		})
		totalUtterances += v.Utterances
		totalSeconds += v.AudioSeconds
	}
	return renderTable(tableSpec{
		headers: []string{"Run", "Status", "Started", "Model", "Lang", "Ranks", "Utterances", "Audio", "Mean score"},
		rows:    rows,
		aligns:  []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight},
		footer:  []string{"", "", "", "", "", "Total", humanize.Comma(int64(totalUtterances)), formatAudioHours(totalSeconds), ""},
	})
}

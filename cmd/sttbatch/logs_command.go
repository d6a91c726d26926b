package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"sttbatch/internal/logging"
	"sttbatch/internal/logs"
)

const followWait = 5 * time.Second

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var (
		rank   int
		lines  int
		follow bool
		raw    bool
		filter logs.Filter
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show a rank's log file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := filter.Validate(); err != nil {
				return err
			}
			if !cmd.Flags().Changed("rank") {
				rank = cfg.Distributed.LocalRank
			}
			path := logging.LogFilePath(cfg.Paths.LogDir, rank)
			return streamLog(cmd.Context(), cmd.OutOrStdout(), path, lines, follow, raw, filter)
		},
	}

	cmd.Flags().IntVarP(&rank, "rank", "r", 0, "Rank whose log to show (default LOCAL_RANK)")
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines until interrupted")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print JSON lines as written")
	cmd.Flags().StringVar(&filter.RunID, "run-id", "", "Only show entries for this run")
	cmd.Flags().StringVar(&filter.MinLevel, "level", "", "Minimum level (debug, info, warn, error)")
	cmd.Flags().StringVar(&filter.EventType, "event", "", "Only show entries with this event_type")
	cmd.Flags().StringVar(&filter.Component, "component", "", "Only show entries from this component")
	cmd.Flags().StringVar(&filter.Search, "search", "", "Only show messages containing this text")
	return cmd
}

func streamLog(ctx context.Context, out io.Writer, path string, limit int, follow, raw bool, filter logs.Filter) error {
	result, err := logs.Tail(ctx, path, logs.TailOptions{Offset: -1, Limit: limit})
	if err != nil {
		return err
	}
	printLogLines(out, filter.Apply(result.Lines), raw)
	if !follow {
		return nil
	}

	offset := result.Offset
	for {
		result, err := logs.Tail(ctx, path, logs.TailOptions{Offset: offset, Follow: true, Wait: followWait})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		if err != nil {
			return err
		}
		printLogLines(out, filter.Apply(result.Lines), raw)
		offset = result.Offset
		if ctx.Err() != nil {
			return nil
		}
	}
}

func printLogLines(out io.Writer, lines []string, raw bool) {
	for _, line := range lines {
		if raw {
			fmt.Fprintln(out, line)
			continue
		}
		fmt.Fprintln(out, formatLogLine(line))
	}
}

func formatLogLine(line string) string {
	entry, err := logs.ParseEntry(line)
	if err != nil {
		return line
	}
	var b strings.Builder
	b.WriteString(entry.Time)
	b.WriteByte(' ')
	b.WriteString(fmt.Sprintf("%-5s", strings.ToUpper(entry.Level)))
	if entry.Rank != nil {
		fmt.Fprintf(&b, " [rank %d]", *entry.Rank)
	}
	if entry.Component != "" {
		b.WriteString(" " + entry.Component + ":")
	}
	b.WriteString(" " + entry.Message)
	if entry.EventType != "" {
		b.WriteString(" (" + entry.EventType + ")")
	}
	if entry.Error != "" {
		b.WriteString(" error=" + entry.Error)
	}
	return b.String()
}

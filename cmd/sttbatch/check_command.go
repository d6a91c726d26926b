package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"sttbatch/internal/config"
	"sttbatch/internal/language"
	"sttbatch/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var manifestPath string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify tools, directories and the ledger before launching ranks",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := isTerminal(out)

			lines := renderSectionHeader("Configuration", colorize)
			lines = append(lines, renderStatusLine("Config file", statusInfo, ctx.configPath, colorize))
			lines = append(lines, configLines(cfg, colorize)...)
			lines = append(lines, "")

			results := preflight.RunAll(cmd.Context(), cfg)
			if strings.TrimSpace(manifestPath) != "" {
				path, err := config.ExpandPath(manifestPath)
				if err != nil {
					return err
				}
				results = append(results, preflight.CheckManifest(path))
			}

			lines = append(lines, renderSectionHeader("Environment", colorize)...)
			for _, r := range results {
				kind := statusOK
				if !r.Passed {
					kind = statusError
				}
				lines = append(lines, renderStatusLine(r.Name, kind, r.Detail, colorize))
			}
			for _, status := range preflight.CheckSystemDeps(cfg) {
				if !status.Optional {
					continue
				}
				kind, detail := statusOK, status.Command
				if !status.Available {
					kind, detail = statusWarn, status.Detail+" ("+status.Description+")"
				}
				lines = append(lines, renderStatusLine(status.Name, kind, detail, colorize))
			}
			fmt.Fprintln(out, strings.Join(lines, "\n"))

			if failed := preflight.Failed(results); len(failed) > 0 {
				names := make([]string, len(failed))
				for i, r := range failed {
					names[i] = r.Name
				}
				return fmt.Errorf("%d check(s) failed: %s", len(failed), strings.Join(names, ", "))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&manifestPath, "manifest", "m", "", "Also validate this manifest")
	return cmd
}

func configLines(cfg *config.Config, colorize bool) []string {
	langDetail := cfg.Model.Language
	kind := statusOK
	if lang, err := language.Resolve(cfg.Model.Language); err != nil {
		kind = statusError
		langDetail = err.Error()
	} else {
		langDetail = fmt.Sprintf("%s (%s)", lang.Name, lang.Code)
	}
	return []string{
		renderStatusLine("Model", statusInfo, cfg.Model.ID, colorize),
		renderStatusLine("Language", kind, langDetail, colorize),
		renderStatusLine("Batch size", statusInfo, fmt.Sprint(cfg.Model.BatchSize), colorize),
		renderStatusLine("Normalize logits", statusInfo, yesNo(cfg.Model.NormalizeLogits), colorize),
		renderStatusLine("Normalize text", statusInfo, yesNo(cfg.Model.NormalizeText), colorize),
		renderStatusLine("Rank", statusInfo, fmt.Sprintf("%d of %d", cfg.Distributed.LocalRank, cfg.Distributed.WorldSize), colorize),
	}
}

package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"hopper/internal/report"
)

func newReportCommand(ctx *commandContext) *cobra.Command {
	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Inspect pipeline run reports",
	}

	reportCmd.AddCommand(newReportShowCommand(ctx))
	return reportCmd
}

func newReportShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show [path]",
		Short: "Show a run report (defaults to the most recent)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				latest, err := report.Latest(cfg.Paths.ReportDir)
				if err != nil {
					return fmt.Errorf("locate latest report: %w", err)
				}
				path = latest
			}

			rep, err := report.Read(path)
			if err != nil {
				return fmt.Errorf("read report %s: %w", path, err)
			}

			if jsonOutput {
				return writeJSON(cmd, rep)
			}
			pretty := isatty.IsTerminal(os.Stdout.Fd())
			fmt.Fprintln(cmd.OutOrStdout(), report.Render(rep, pretty))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the report as JSON")
	return cmd
}

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"hopper/internal/logging"
	"hopper/internal/pipeline"
	"hopper/internal/report"
	"hopper/internal/warehouse"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var outputPath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute one pipeline run",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("configure logging: %w", err)
			}

			store, err := warehouse.Open(cfg)
			if err != nil {
				return fmt.Errorf("open warehouse: %w", err)
			}
			defer store.Close()

			runner, err := pipeline.NewRunner(cfg, store, logger)
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rep, artifactPath, runErr := runner.Run(runCtx)
			out := cmd.OutOrStdout()
			if rep != nil {
				if jsonOutput {
					if err := writeJSON(cmd, rep); err != nil {
						return err
					}
				} else {
					pretty := isatty.IsTerminal(os.Stdout.Fd())
					fmt.Fprintln(out, report.Render(rep, pretty))
				}
				if artifactPath != "" {
					fmt.Fprintf(out, "Report written to %s\n", artifactPath)
				}
				if outputPath != "" {
					data, marshalErr := report.Marshal(rep)
					if marshalErr != nil {
						return marshalErr
					}
					if writeErr := os.WriteFile(outputPath, data, 0o644); writeErr != nil {
						return fmt.Errorf("write report copy: %w", writeErr)
					}
				}
			}
			if runErr != nil {
				return fmt.Errorf("pipeline run failed: %w", runErr)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the run report as JSON")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Also write the report JSON to this path")
	return cmd
}

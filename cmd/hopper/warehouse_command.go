package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"hopper/internal/warehouse"
)

func newWarehouseCommand(ctx *commandContext) *cobra.Command {
	warehouseCmd := &cobra.Command{
		Use:   "warehouse",
		Short: "Inspect the warehouse database",
	}

	warehouseCmd.AddCommand(newWarehouseStatsCommand(ctx))
	warehouseCmd.AddCommand(newWarehouseHealthCommand(ctx))
	return warehouseCmd
}

func newWarehouseStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show row counts by source",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			store, err := warehouse.Open(cfg)
			if err != nil {
				return fmt.Errorf("open warehouse: %w", err)
			}
			defer store.Close()

			total, err := store.Count(cmd.Context())
			if err != nil {
				return err
			}
			bySource, err := store.CountBySource(cmd.Context())
			if err != nil {
				return err
			}

			sources := make([]string, 0, len(bySource))
			for src := range bySource {
				sources = append(sources, src)
			}
			sort.Strings(sources)

			tw := table.NewWriter()
			tw.SetStyle(table.StyleRounded)
			tw.AppendHeader(table.Row{"Source", "Rows"})
			for _, src := range sources {
				tw.AppendRow(table.Row{src, strconv.Itoa(bySource[src])})
			}
			tw.AppendFooter(table.Row{"Total", strconv.Itoa(total)})
			tw.SetColumnConfigs([]table.ColumnConfig{
				{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
			})

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Warehouse: %s\n", store.Path())
			fmt.Fprintln(out, tw.Render())
			return nil
		},
	}
}

func newWarehouseHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Run warehouse diagnostics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			store, err := warehouse.Open(cfg)
			if err != nil {
				return fmt.Errorf("open warehouse: %w", err)
			}
			defer store.Close()

			health, err := store.CheckHealth(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd, health)
		},
	}
}

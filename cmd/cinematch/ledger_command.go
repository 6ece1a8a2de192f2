package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"cinematch/internal/ledger"
	"cinematch/internal/matching"
)

func newLedgerCommand(ctx *commandContext) *cobra.Command {
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect and convert enrichment ledgers",
	}
	ledgerCmd.AddCommand(newLedgerExportCommand(ctx))
	ledgerCmd.AddCommand(newLedgerSummaryCommand(ctx))
	return ledgerCmd
}

func newLedgerExportCommand(ctx *commandContext) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "export <ledger.csv>",
		Short: "Convert a ledger to an Excel workbook for review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := args[0]
			kind, rows, err := ledger.ReadFile(src)
			if err != nil {
				return err
			}
			target := strings.TrimSpace(outPath)
			if target == "" {
				target = strings.TrimSuffix(src, filepath.Ext(src)) + ".xlsx"
			}
			if err := ledger.ExportXLSX(target, kind, rows); err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, map[string]any{"source": src, "output": target, "rows": len(rows)})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %s %s rows to %s\n", count(len(rows)), ledger.KindLabel(kind), target)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Destination .xlsx (default: next to the ledger)")
	return cmd
}

type ledgerSummary struct {
	Path     string                  `json:"path"`
	Kind     matching.Kind           `json:"kind"`
	Rows     int                     `json:"rows"`
	ByStatus map[matching.Status]int `json:"by_status"`
}

func newLedgerSummaryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "summary <ledger.csv>",
		Short: "Count ledger rows by status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, rows, err := ledger.ReadFile(args[0])
			if err != nil {
				return err
			}
			summary := ledgerSummary{Path: args[0], Kind: kind, Rows: len(rows), ByStatus: make(map[matching.Status]int)}
			for _, row := range rows {
				summary.ByStatus[row.Status]++
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, summary)
			}
			table := make([][]string, 0, len(matching.Statuses)+1)
			for _, status := range matching.Statuses {
				table = append(table, []string{string(status), count(summary.ByStatus[status])})
			}
			table = append(table, []string{"total", count(summary.Rows)})
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s ledger %s\n", ledger.KindLabel(kind), args[0])
			fmt.Fprintln(out, renderTable([]string{"Status", "Rows"}, table, []columnAlignment{alignLeft, alignRight}))
			return nil
		},
	}
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"cinematch/internal/enrich"
	"cinematch/internal/ledger"
	"cinematch/internal/matching"
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

func count(n int) string {
	return humanize.Comma(int64(n))
}

func elapsed(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(time.Second).String()
}

// printRunSummary renders an enrichment summary as a two-column table.
func printRunSummary(out io.Writer, summary enrich.Summary) {
	rows := [][]string{
		{"Fetched", count(summary.Fetched)},
		{"Already checkpointed", count(summary.Skipped)},
		{"Processed", count(summary.Processed)},
	}
	for _, status := range matching.Statuses {
		rows = append(rows, []string{"  " + string(status), count(summary.ByStatus[status])})
	}
	rows = append(rows,
		[]string{"Applied", count(summary.Applied)},
		[]string{"Apply errors", count(summary.ApplyErrors)},
		[]string{"Match errors", count(summary.MatchErrors)},
		[]string{"Elapsed", elapsed(summary.Elapsed)},
	)

	fmt.Fprintf(out, "%s enrichment (%s), run %s\n", ledger.KindLabel(summary.Kind), summary.Mode, summary.RunID)
	fmt.Fprintln(out, renderTable([]string{"Outcome", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
	if summary.LedgerPath != "" {
		fmt.Fprintf(out, "Ledger: %s\n", summary.LedgerPath)
	}
	if summary.Interrupted {
		fmt.Fprintln(out, "Interrupted: progress was saved, run the same command again to resume")
	}
}

// printApplySummary renders an apply pass summary.
func printApplySummary(out io.Writer, path string, summary enrich.ApplySummary) {
	rows := [][]string{
		{"Ledger rows", count(summary.Rows)},
		{"Eligible", count(summary.Eligible)},
		{"Filtered out", count(summary.Filtered)},
		{"Already applied", count(summary.AlreadyApplied)},
		{"Applied", count(summary.Applied)},
		{"Errors", count(summary.Errors)},
		{"Elapsed", elapsed(summary.Elapsed)},
	}
	fmt.Fprintf(out, "Apply %s from %s\n", ledger.KindLabel(summary.Kind), path)
	fmt.Fprintln(out, renderTable([]string{"Outcome", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
	if summary.Interrupted {
		fmt.Fprintln(out, "Interrupted: progress was saved, run the same command again to resume")
	}
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

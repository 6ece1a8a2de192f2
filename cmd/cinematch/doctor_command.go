package main

import (
	"context"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"cinematch/internal/preflight"
)

const statusLabelWidth = 20

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check directories, database, TMDB and the name oracle",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			runCtx := cmd.Context()

			var targets preflight.Targets
			if cfg.RequireDatabase() == nil {
				st, err := ctx.openStore(runCtx)
				if err != nil {
					targets.Store = failingPinger{err: err}
				} else {
					defer st.Close()
					targets.Store = st
				}
			}
			if cfg.TMDBConfigured() {
				cat, err := ctx.newCatalog()
				if err != nil {
					targets.Catalog = failingPinger{err: err}
				} else {
					targets.Catalog = cat
				}
			}

			results := preflight.RunAll(runCtx, cfg, targets)
			if ctx.jsonOutput() {
				if err := writeJSON(cmd, results); err != nil {
					return err
				}
			} else {
				printPreflight(cmd.OutOrStdout(), results, isTerminal(cmd.OutOrStdout()))
			}
			if failed := preflight.Failed(results); failed > 0 {
				return fmt.Errorf("%d check(s) failed", failed)
			}
			return nil
		},
	}
}

// failingPinger reports a connection error raised before any ping was sent.
type failingPinger struct {
	err error
}

func (p failingPinger) Ping(context.Context) error { return p.err }

func printPreflight(out io.Writer, results []preflight.Result, colorize bool) {
	for _, result := range results {
		fmt.Fprintln(out, renderStatusLine(result.Name, result.Passed, result.Detail, colorize))
	}
}

func renderStatusLine(label string, passed bool, message string, colorize bool) string {
	status, color := "OK", text.Colors{text.FgGreen}
	if !passed {
		status, color = "FAIL", text.Colors{text.FgRed}
	}
	statusText := fmt.Sprintf("[%s]", status)
	if message != "" {
		statusText = fmt.Sprintf("[%s] %s", status, message)
	}
	line := fmt.Sprintf("  %-*s %s", statusLabelWidth, label+":", statusText)
	if colorize {
		return color.Sprint(line)
	}
	return line
}

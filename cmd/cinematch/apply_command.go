package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cinematch/internal/checkpoint"
	"cinematch/internal/enrich"
	"cinematch/internal/ledger"
	"cinematch/internal/matching"
)

type applyFlags struct {
	file     string
	statuses []string
	minScore int
	reset    bool
}

func newApplyCommand(ctx *commandContext) *cobra.Command {
	var flags applyFlags

	cmd := &cobra.Command{
		Use:       "apply <movies|people>",
		Short:     "Write reviewed ledger matches to the database",
		ValidArgs: kindArgs,
		Long: `Read a ledger (the latest one by default) and write the selected matches to
the database. Films apply auto_accept and review rows unless --statuses says
otherwise; people apply auto_accept only. Applied ids are checkpointed so a
rerun skips them.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := kindArg(args[0])
			if err != nil {
				return err
			}
			return runApply(cmd, ctx, kind, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.file, "file", "f", "", "Ledger CSV to apply (default: latest ledger)")
	cmd.Flags().StringSliceVar(&flags.statuses, "statuses", nil, "Statuses to apply (auto_accept, review, multiple)")
	cmd.Flags().IntVar(&flags.minScore, "min-score", 0, "Skip rows scoring below this value")
	cmd.Flags().BoolVar(&flags.reset, "reset-apply-progress", false, "Forget previously applied ids")
	return cmd
}

func parseStatuses(values []string) ([]matching.Status, error) {
	var statuses []matching.Status
	for _, value := range values {
		if strings.TrimSpace(value) == "" {
			continue
		}
		status, ok := matching.ParseStatus(value)
		if !ok {
			return nil, fmt.Errorf("unknown status %q", value)
		}
		if status == matching.StatusNoMatch {
			return nil, fmt.Errorf("%s rows have no candidate to apply", status)
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

func runApply(cmd *cobra.Command, ctx *commandContext, kind matching.Kind, flags applyFlags) error {
	statuses, err := parseStatuses(flags.statuses)
	if err != nil {
		return err
	}
	if flags.minScore < 0 {
		return fmt.Errorf("--min-score must not be negative")
	}
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return err
	}

	path := strings.TrimSpace(flags.file)
	if path == "" {
		path = ledger.LatestPath(cfg.Paths.ReportsDir, kind)
	}
	ledgerKind, rows, err := ledger.ReadFile(path)
	if err != nil {
		return err
	}
	if ledgerKind != kind {
		return fmt.Errorf("%s is a %s ledger, not %s", path, ledgerKind, kind)
	}

	runCtx := cmd.Context()
	st, err := ctx.openStore(runCtx)
	if err != nil {
		return err
	}
	defer st.Close()

	var source enrich.Source = enrich.MovieSource{Store: st}
	if kind == matching.KindPerson {
		source = enrich.PersonSource{Store: st}
	}

	label := ledger.KindLabel(kind)
	cp, err := checkpoint.Open(checkpoint.ApplyPath(cfg.Paths.StateDir, label), checkpoint.ModeApplied, checkpoint.WithLogger(logger))
	if err != nil {
		return err
	}
	defer cp.Close()

	summary, runErr := enrich.ApplyLedger(runCtx, rows, source, cp, logger, enrich.ApplyOptions{
		Statuses:   statuses,
		MinScore:   flags.minScore,
		Reset:      flags.reset,
		FlushEvery: cfg.Batch.FlushEvery,
	})
	if runErr != nil && !summary.Interrupted {
		return runErr
	}

	if ctx.jsonOutput() {
		if err := writeJSON(cmd, summary); err != nil {
			return err
		}
	} else {
		printApplySummary(cmd.OutOrStdout(), path, summary)
	}
	return runErr
}

package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"cinematch/internal/checkpoint"
	"cinematch/internal/enrich"
	"cinematch/internal/ledger"
	"cinematch/internal/logging"
	"cinematch/internal/matching"
	"cinematch/internal/store"
)

type enrichFlags struct {
	apply     bool
	dryRun    bool
	limit     int
	offset    int
	minMovies int
	reset     bool
}

func newEnrichCommand(ctx *commandContext) *cobra.Command {
	enrichCmd := &cobra.Command{
		Use:   "enrich",
		Short: "Match unmatched local records against TMDB",
	}
	enrichCmd.AddCommand(newEnrichKindCommand(ctx, matching.KindMovie))
	enrichCmd.AddCommand(newEnrichKindCommand(ctx, matching.KindPerson))
	return enrichCmd
}

func newEnrichKindCommand(ctx *commandContext, kind matching.Kind) *cobra.Command {
	var flags enrichFlags
	label := ledger.KindLabel(kind)

	cmd := &cobra.Command{
		Use:   label,
		Short: fmt.Sprintf("Match unmatched %s and write a ledger", label),
		Long: fmt.Sprintf(`Search TMDB for every local %s without a TMDB link, score the candidates and
record one ledger row per record. Without --apply nothing is written to the
database. Processed ids are checkpointed so an interrupted run resumes where it
stopped; --reset starts over.`, kind),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnrich(cmd, ctx, kind, flags)
		},
	}

	cmd.Flags().BoolVar(&flags.apply, "apply", false, "Write auto_accept matches to the database")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Only write the ledger (default)")
	cmd.Flags().IntVar(&flags.limit, "limit", 0, "Maximum number of records to fetch (0 = all)")
	cmd.Flags().IntVar(&flags.offset, "offset", 0, "Number of records to skip")
	cmd.Flags().BoolVar(&flags.reset, "reset", false, "Discard the checkpoint before running")
	if kind == matching.KindPerson {
		cmd.Flags().IntVar(&flags.minMovies, "min-movies", 1, "Only people credited in at least this many films")
	}
	cmd.MarkFlagsMutuallyExclusive("apply", "dry-run")
	return cmd
}

func runEnrich(cmd *cobra.Command, ctx *commandContext, kind matching.Kind, flags enrichFlags) error {
	if flags.limit < 0 || flags.offset < 0 || flags.minMovies < 0 {
		return errors.New("--limit, --offset and --min-movies must not be negative")
	}
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return err
	}
	runCtx := cmd.Context()

	cat, err := ctx.newCatalog()
	if err != nil {
		return err
	}
	matcher, err := ctx.newMatcher(cat)
	if err != nil {
		return err
	}
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
	cp, err := checkpoint.Open(checkpoint.ProgressPath(cfg.Paths.StateDir, label), checkpoint.ModeProcessed, checkpoint.WithLogger(logger))
	if err != nil {
		return err
	}
	defer cp.Close()

	led, err := ledger.Create(cfg.Paths.ReportsDir, kind, time.Now())
	if err != nil {
		return err
	}

	mode := enrich.ModeDryRun
	if flags.apply {
		mode = enrich.ModeApply
	}
	progress := newProgressReporter(cmd.ErrOrStderr(), logger, label)
	driver := enrich.NewDriver(source, matcher, led, cp, cat, logger, enrich.Options{
		Mode:       mode,
		Page:       store.Page{Limit: flags.limit, Offset: flags.offset, MinMovies: flags.minMovies},
		Reset:      flags.reset,
		FlushEvery: cfg.Batch.FlushEvery,
		OnProgress: progress.update,
	})

	summary, runErr := driver.Run(runCtx)
	progress.finish()
	if runErr != nil && !summary.Interrupted {
		return runErr
	}

	if ctx.jsonOutput() {
		if err := writeJSON(cmd, summary); err != nil {
			return err
		}
	} else {
		printRunSummary(cmd.OutOrStdout(), summary)
	}
	if runErr != nil {
		logging.WarnWithContext(logger, "enrichment interrupted", "run_interrupted",
			logging.String(logging.FieldErrorHint, "rerun the same command to resume"),
			logging.String(logging.FieldImpact, "remaining records were not processed"),
			logging.Int("processed", summary.Processed),
		)
	}
	return runErr
}

package enrich

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cinematch/internal/ledger"
	"cinematch/internal/logging"
	"cinematch/internal/matching"
)

// ApplyOptions selects which ledger rows the apply pass writes.
type ApplyOptions struct {
	// Statuses defaults to DefaultApplyStatuses for the ledger kind.
	Statuses   []matching.Status
	MinScore   int
	Reset      bool
	FlushEvery int
}

// ApplySummary aggregates an apply pass.
type ApplySummary struct {
	Kind           matching.Kind `json:"kind"`
	Rows           int           `json:"rows"`
	Eligible       int           `json:"eligible"`
	Applied        int           `json:"applied"`
	AlreadyApplied int           `json:"already_applied"`
	Filtered       int           `json:"filtered"`
	Errors         int           `json:"errors"`
	Elapsed        time.Duration `json:"elapsed"`
	Interrupted    bool          `json:"interrupted"`
}

// DefaultApplyStatuses returns the statuses applied when none are given:
// films apply auto_accept and review rows, people only auto_accept.
func DefaultApplyStatuses(kind matching.Kind) []matching.Status {
	if kind == matching.KindPerson {
		return []matching.Status{matching.StatusAutoAccept}
	}
	return []matching.Status{matching.StatusAutoAccept, matching.StatusReview}
}

// ApplyLedger writes reviewed ledger rows back to the store. Rows without a
// candidate, no_match rows, rows outside the selected statuses or below the
// minimum score are skipped, as are ids already in the apply checkpoint.
func ApplyLedger(ctx context.Context, rows []ledger.Row, source Source, cp Checkpoint, logger *slog.Logger, opts ApplyOptions) (summary ApplySummary, err error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "apply")
	if opts.FlushEvery <= 0 {
		opts.FlushEvery = DefaultFlushEvery
	}
	kind := source.Kind()
	statuses := opts.Statuses
	if len(statuses) == 0 {
		statuses = DefaultApplyStatuses(kind)
	}
	allowed := make(map[matching.Status]bool, len(statuses))
	for _, status := range statuses {
		allowed[status] = true
	}

	started := time.Now()
	summary = ApplySummary{Kind: kind, Rows: len(rows)}
	defer func() {
		if flushErr := cp.Flush(); flushErr != nil {
			err = errors.Join(err, fmt.Errorf("flush apply checkpoint: %w", flushErr))
		}
		summary.Elapsed = time.Since(started)
		logger.Info("apply pass finished",
			logging.String("record_kind", string(kind)),
			logging.Int("applied", summary.Applied),
			logging.Int("already_applied", summary.AlreadyApplied),
			logging.Int("filtered", summary.Filtered),
			logging.Int("errors", summary.Errors),
			logging.Duration("elapsed", summary.Elapsed))
	}()

	if opts.Reset {
		if resetErr := cp.Reset(); resetErr != nil {
			return summary, fmt.Errorf("reset apply checkpoint: %w", resetErr)
		}
	}

	for _, row := range rows {
		if ctx.Err() != nil {
			summary.Interrupted = true
			return summary, ctx.Err()
		}
		if row.CandidateID <= 0 || row.Status == matching.StatusNoMatch || !allowed[row.Status] || row.Score < opts.MinScore {
			summary.Filtered++
			continue
		}
		summary.Eligible++
		if cp.Contains(row.LocalID) {
			summary.AlreadyApplied++
			continue
		}
		if applyErr := source.Apply(ctx, row.LocalID, row.CandidateID, Extra{IMDbID: row.IMDbID}); applyErr != nil {
			if ctx.Err() != nil {
				summary.Interrupted = true
				return summary, ctx.Err()
			}
			summary.Errors++
			logging.WarnWithContext(logger, "apply failed", "apply_failed",
				logging.Int64("local_id", row.LocalID),
				logging.Int64("tmdb_id", row.CandidateID),
				logging.Error(&ApplyError{LocalID: row.LocalID, Err: applyErr}),
				logging.String(logging.FieldErrorHint, "fix the row in the ledger and rerun apply"),
				logging.String(logging.FieldImpact, "row not written; it will be retried on the next apply"))
			continue
		}
		cp.Mark(row.LocalID)
		summary.Applied++
		logger.Debug("ledger row applied",
			logging.Int64("local_id", row.LocalID),
			logging.Int64("tmdb_id", row.CandidateID),
			logging.String("status", string(row.Status)))
		if cp.Pending() >= opts.FlushEvery {
			if flushErr := cp.Flush(); flushErr != nil {
				return summary, fmt.Errorf("flush apply checkpoint: %w", flushErr)
			}
		}
	}
	return summary, nil
}

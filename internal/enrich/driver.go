package enrich

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"cinematch/internal/ledger"
	"cinematch/internal/logging"
	"cinematch/internal/matching"
	"cinematch/internal/services"
	"cinematch/internal/store"
)

// Mode selects whether accepted matches are written to the local store.
type Mode string

const (
	ModeDryRun Mode = "dry-run"
	ModeApply  Mode = "apply"
)

// DefaultFlushEvery is how many records pass between checkpoint flushes.
const DefaultFlushEvery = 10

// State is a step of the per-record state machine.
type State string

const (
	StateIdle        State = "idle"
	StateLoading     State = "loading"
	StateScoring     State = "scoring"
	StateClassifying State = "classifying"
	StateRecording   State = "recording"
)

// Matcher resolves one record.
type Matcher interface {
	MatchMovie(ctx context.Context, movie store.Movie) (matching.Result, error)
	MatchPerson(ctx context.Context, person store.Person) (matching.Result, error)
}

// Ledger records every outcome for review.
type Ledger interface {
	Append(row ledger.Row) error
	Close() error
	Path() string
}

// Checkpoint remembers processed record ids.
type Checkpoint interface {
	Contains(id int64) bool
	Mark(id int64) bool
	Pending() int
	Flush() error
	Reset() error
}

// Pinger checks that the catalog is reachable before a run.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Progress is reported after every record.
type Progress struct {
	Done   int
	Total  int
	Label  string
	Status matching.Status
}

// Options configures a run.
type Options struct {
	Mode       Mode
	Page       store.Page
	Reset      bool
	FlushEvery int
	OnProgress func(Progress)
}

// Summary aggregates a run.
type Summary struct {
	RunID       string                  `json:"run_id"`
	Kind        matching.Kind           `json:"kind"`
	Mode        Mode                    `json:"mode"`
	Fetched     int                     `json:"fetched"`
	Processed   int                     `json:"processed"`
	Skipped     int                     `json:"skipped"`
	ByStatus    map[matching.Status]int `json:"by_status"`
	Applied     int                     `json:"applied"`
	ApplyErrors int                     `json:"apply_errors"`
	MatchErrors int                     `json:"match_errors"`
	Elapsed     time.Duration           `json:"elapsed"`
	LedgerPath  string                  `json:"ledger_path,omitempty"`
	Interrupted bool                    `json:"interrupted"`
}

// Driver runs one enrichment batch.
type Driver struct {
	source     Source
	matcher    Matcher
	ledger     Ledger
	checkpoint Checkpoint
	catalog    Pinger
	logger     *slog.Logger
	opts       Options
	runID      string
	now        func() time.Time
	state      State
}

// NewDriver wires a driver. catalog may be nil to skip the connection test.
func NewDriver(source Source, matcher Matcher, led Ledger, cp Checkpoint, catalog Pinger, logger *slog.Logger, opts Options) *Driver {
	if logger == nil {
		logger = logging.NewNop()
	}
	if opts.Mode == "" {
		opts.Mode = ModeDryRun
	}
	if opts.FlushEvery <= 0 {
		opts.FlushEvery = DefaultFlushEvery
	}
	return &Driver{
		source:     source,
		matcher:    matcher,
		ledger:     led,
		checkpoint: cp,
		catalog:    catalog,
		logger:     logging.NewComponentLogger(logger, "enrich"),
		opts:       opts,
		runID:      uuid.NewString(),
		now:        time.Now,
		state:      StateIdle,
	}
}

// RunID returns the identifier stamped on this run's logs.
func (d *Driver) RunID() string {
	return d.runID
}

// Run processes the batch. The ledger is closed and the checkpoint flushed
// before Run returns, including when ctx is cancelled; in that case the
// partial summary is returned together with the context error. Per-record
// failures never abort the run.
func (d *Driver) Run(ctx context.Context) (summary Summary, err error) {
	ctx = services.WithRunID(ctx, d.runID)
	logger := logging.WithContext(ctx, d.logger)
	kind := d.source.Kind()
	started := d.now()
	summary = Summary{
		RunID:      d.runID,
		Kind:       kind,
		Mode:       d.opts.Mode,
		ByStatus:   make(map[matching.Status]int, len(matching.Statuses)),
		LedgerPath: d.ledger.Path(),
	}

	defer func() {
		if flushErr := d.checkpoint.Flush(); flushErr != nil {
			err = errors.Join(err, fmt.Errorf("flush checkpoint: %w", flushErr))
		}
		if closeErr := d.ledger.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
		summary.Elapsed = d.now().Sub(started)
		logger.Info("enrichment run finished",
			logging.String("record_kind", string(kind)),
			logging.Int("processed", summary.Processed),
			logging.Int("skipped", summary.Skipped),
			logging.Int("applied", summary.Applied),
			logging.Int("apply_errors", summary.ApplyErrors),
			logging.Int("match_errors", summary.MatchErrors),
			logging.Bool("interrupted", summary.Interrupted),
			logging.Duration("elapsed", summary.Elapsed),
			logging.String("ledger_path", summary.LedgerPath))
	}()

	if d.catalog != nil {
		if pingErr := d.catalog.Ping(ctx); pingErr != nil {
			return summary, services.Wrap(services.ErrExternalTool, "enrich", "connection test", "catalog unreachable", pingErr)
		}
	}
	if d.opts.Reset {
		if resetErr := d.checkpoint.Reset(); resetErr != nil {
			return summary, fmt.Errorf("reset checkpoint: %w", resetErr)
		}
	}

	d.transition(ctx, StateLoading)
	records, fetched, skipped, fetchErr := d.loadPending(ctx)
	if fetchErr != nil {
		d.transition(ctx, StateIdle)
		return summary, fmt.Errorf("fetch unmatched %s records: %w", kind, fetchErr)
	}
	summary.Fetched = fetched
	summary.Skipped = skipped
	logger.Info("enrichment run started",
		logging.String("record_kind", string(kind)),
		logging.String("mode", string(d.opts.Mode)),
		logging.Int("records", len(records)),
		logging.Int("skipped", skipped),
		logging.Int("limit", d.opts.Page.Limit),
		logging.Int("offset", d.opts.Page.Offset))

	for idx, record := range records {
		if ctx.Err() != nil {
			summary.Interrupted = true
			break
		}
		status, recErr := d.process(ctx, record, &summary)
		if recErr != nil {
			if ctx.Err() != nil {
				summary.Interrupted = true
				break
			}
			d.transition(ctx, StateIdle)
			return summary, recErr
		}
		d.report(idx+1, len(records), record, status)
		if d.checkpoint.Pending() >= d.opts.FlushEvery {
			if flushErr := d.checkpoint.Flush(); flushErr != nil {
				logging.WarnWithContext(logger, "checkpoint flush failed", "checkpoint_flush_failed",
					logging.Error(flushErr),
					logging.String(logging.FieldErrorHint, "check state_dir permissions"),
					logging.String(logging.FieldImpact, "an interrupted run may reprocess recent records"))
			}
		}
	}
	d.transition(ctx, StateIdle)
	if summary.Interrupted {
		return summary, ctx.Err()
	}
	return summary, nil
}

// loadPending fetches unmatched records and drops the ids the checkpoint
// already holds. With a limit, further pages are read until limit pending
// records are collected or the source runs dry, so a resumed run always
// makes progress.
func (d *Driver) loadPending(ctx context.Context) (pending []Record, fetched, skipped int, err error) {
	page := d.opts.Page
	for {
		records, fetchErr := d.source.FetchUnmatched(ctx, page)
		if fetchErr != nil {
			return nil, fetched, skipped, fetchErr
		}
		fetched += len(records)
		for _, record := range records {
			if page.Limit > 0 && len(pending) == page.Limit {
				break
			}
			if d.checkpoint.Contains(record.ID()) {
				skipped++
				continue
			}
			pending = append(pending, record)
		}
		if page.Limit <= 0 || len(records) < page.Limit || len(pending) >= page.Limit {
			return pending, fetched, skipped, nil
		}
		if ctx.Err() != nil {
			return nil, fetched, skipped, ctx.Err()
		}
		page.Offset += len(records)
	}
}

// process runs one record through the state machine. The returned error is
// fatal to the run (ledger failure or cancellation); match and apply
// failures are absorbed into the summary.
func (d *Driver) process(ctx context.Context, record Record, summary *Summary) (matching.Status, error) {
	id := record.ID()
	ctx = services.WithRecord(ctx, string(record.Kind), id)
	logger := logging.WithContext(ctx, d.logger)

	d.transition(ctx, StateScoring)
	result, err := d.match(ctx, record)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		summary.MatchErrors++
		logging.WarnWithContext(logger, "match failed", "match_failed",
			logging.String("label", record.Label()),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "the record is recorded as no_match; rerun with --reset to retry"),
			logging.String(logging.FieldImpact, "record left unmatched"))
		result = matching.Result{Kind: record.Kind, LocalID: id, Status: matching.StatusNoMatch, Detail: "Error: " + err.Error()}
	}

	d.transition(ctx, StateClassifying)
	summary.ByStatus[result.Status]++

	d.transition(ctx, StateRecording)
	if err := d.ledger.Append(d.row(record, result)); err != nil {
		return result.Status, fmt.Errorf("record ledger row for %d: %w", id, err)
	}
	if d.opts.Mode == ModeApply && result.Status == matching.StatusAutoAccept && result.Matched() {
		if err := d.source.Apply(ctx, id, result.CandidateID, Extra{IMDbID: result.IMDbID}); err != nil {
			applyErr := &ApplyError{LocalID: id, Err: err}
			summary.ApplyErrors++
			logging.WarnWithContext(logger, "apply failed", "apply_failed",
				logging.Int64("tmdb_id", result.CandidateID),
				logging.Error(applyErr),
				logging.String(logging.FieldErrorHint, "apply the ledger later with the apply command"),
				logging.String(logging.FieldImpact, "accepted match not written to the database"))
		} else {
			summary.Applied++
			logger.Info("match applied",
				logging.Int64("tmdb_id", result.CandidateID),
				logging.String("imdb_id", result.IMDbID))
		}
	}
	d.checkpoint.Mark(id)
	summary.Processed++
	d.transition(ctx, StateIdle)
	return result.Status, nil
}

func (d *Driver) match(ctx context.Context, record Record) (matching.Result, error) {
	if record.Kind == matching.KindPerson {
		return d.matcher.MatchPerson(ctx, record.Person)
	}
	return d.matcher.MatchMovie(ctx, record.Movie)
}

func (d *Driver) row(record Record, result matching.Result) ledger.Row {
	if record.Kind == matching.KindPerson {
		return ledger.PersonRow(record.Person, result)
	}
	return ledger.MovieRow(record.Movie, result)
}

func (d *Driver) transition(ctx context.Context, next State) {
	if d.state == next {
		return
	}
	d.logger.DebugContext(ctx, "state transition",
		logging.String("from", string(d.state)),
		logging.String("to", string(next)))
	d.state = next
}

func (d *Driver) report(done, total int, record Record, status matching.Status) {
	if d.opts.OnProgress == nil {
		return
	}
	d.opts.OnProgress(Progress{Done: done, Total: total, Label: record.Label(), Status: status})
}

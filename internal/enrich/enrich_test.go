package enrich_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"cinematch/internal/checkpoint"
	"cinematch/internal/enrich"
	"cinematch/internal/ledger"
	"cinematch/internal/matching"
	"cinematch/internal/services"
	"cinematch/internal/store"
)

type fakeMovieStore struct {
	movies    []store.Movie
	applied   map[int64]int64
	failApply map[int64]bool
}

func (f *fakeMovieStore) FetchUnmatchedMovies(_ context.Context, page store.Page) ([]store.Movie, error) {
	movies := f.movies
	if page.Offset >= len(movies) {
		return nil, nil
	}
	movies = movies[page.Offset:]
	if page.Limit > 0 && page.Limit < len(movies) {
		movies = movies[:page.Limit]
	}
	return movies, nil
}

func (f *fakeMovieStore) ApplyMovie(_ context.Context, id, tmdbID int64, _ string) error {
	if f.failApply[id] {
		return errors.New("database is read-only")
	}
	if f.applied == nil {
		f.applied = make(map[int64]int64)
	}
	f.applied[id] = tmdbID
	return nil
}

type fakePersonStore struct {
	applied map[int64]int64
}

func (f *fakePersonStore) FetchUnmatchedPeople(context.Context, store.Page) ([]store.Person, error) {
	return nil, nil
}

func (f *fakePersonStore) ApplyPerson(_ context.Context, id, tmdbID int64, _ string) error {
	if f.applied == nil {
		f.applied = make(map[int64]int64)
	}
	f.applied[id] = tmdbID
	return nil
}

type fakeMatcher struct {
	results map[int64]matching.Result
	errs    map[int64]error
	calls   []int64
	onCall  func(id int64)
}

func (f *fakeMatcher) MatchMovie(ctx context.Context, movie store.Movie) (matching.Result, error) {
	f.calls = append(f.calls, movie.ID)
	if f.onCall != nil {
		f.onCall(movie.ID)
	}
	if err := ctx.Err(); err != nil {
		return matching.Result{}, err
	}
	if err := f.errs[movie.ID]; err != nil {
		return matching.Result{}, err
	}
	result := f.results[movie.ID]
	result.LocalID = movie.ID
	if result.Status == "" {
		result.Status = matching.StatusNoMatch
	}
	return result, nil
}

func (f *fakeMatcher) MatchPerson(context.Context, store.Person) (matching.Result, error) {
	return matching.Result{Status: matching.StatusNoMatch}, nil
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

type harness struct {
	dir        string
	store      *fakeMovieStore
	matcher    *fakeMatcher
	ledger     *ledger.Writer
	checkpoint *checkpoint.Checkpoint
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	h := &harness{
		dir: dir,
		store: &fakeMovieStore{movies: []store.Movie{
			{ID: 1, Title: "Zama", Year: 2017},
			{ID: 2, Title: "El viaje", Year: 1992},
			{ID: 3, Title: "Perceptio", Year: 2009},
		}},
		matcher: &fakeMatcher{
			results: map[int64]matching.Result{
				1: {CandidateID: 100, CandidateTitle: "Zama", Score: 85, Status: matching.StatusAutoAccept, IMDbID: "tt1"},
				2: {CandidateID: 200, CandidateTitle: "El viaje", Score: 65, Status: matching.StatusReview},
			},
			errs: map[int64]error{3: errors.New("tmdb /search/movie returned 500")},
		},
	}
	h.openLedgerAndCheckpoint(t)
	return h
}

func (h *harness) openLedgerAndCheckpoint(t *testing.T) {
	t.Helper()
	h.openLedgerAndCheckpointAt(t, time.Now())
}

// openLedgerAndCheckpointAt starts a fresh run: a new timestamped ledger and
// the checkpoint reloaded from disk.
func (h *harness) openLedgerAndCheckpointAt(t *testing.T, at time.Time) {
	t.Helper()
	if h.checkpoint != nil {
		if err := h.checkpoint.Close(); err != nil {
			t.Fatalf("close checkpoint: %v", err)
		}
	}
	led, err := ledger.Create(h.dir, matching.KindMovie, at)
	if err != nil {
		t.Fatalf("ledger: %v", err)
	}
	cp, err := checkpoint.Open(checkpoint.ProgressPath(h.dir, "movies"), checkpoint.ModeProcessed)
	if err != nil {
		t.Fatalf("checkpoint: %v", err)
	}
	t.Cleanup(func() { _ = cp.Close() })
	h.ledger = led
	h.checkpoint = cp
}

func (h *harness) driver(opts enrich.Options, pinger enrich.Pinger) *enrich.Driver {
	return enrich.NewDriver(enrich.MovieSource{Store: h.store}, h.matcher, h.ledger, h.checkpoint, pinger, nil, opts)
}

func readLedger(t *testing.T, dir string) []ledger.Row {
	t.Helper()
	_, rows, err := ledger.ReadFile(ledger.LatestPath(dir, matching.KindMovie))
	if err != nil {
		t.Fatalf("read ledger: %v", err)
	}
	return rows
}

func TestDryRunRecordsEveryOutcome(t *testing.T) {
	h := newHarness(t)
	summary, err := h.driver(enrich.Options{}, fakePinger{}).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Processed != 3 || summary.MatchErrors != 1 || summary.Applied != 0 {
		t.Fatalf("summary = %+v", summary)
	}
	if summary.ByStatus[matching.StatusAutoAccept] != 1 || summary.ByStatus[matching.StatusReview] != 1 || summary.ByStatus[matching.StatusNoMatch] != 1 {
		t.Fatalf("by status = %v", summary.ByStatus)
	}
	if len(h.store.applied) != 0 {
		t.Fatalf("dry run applied %v", h.store.applied)
	}
	for _, id := range []int64{1, 2, 3} {
		if !h.checkpoint.Contains(id) {
			t.Errorf("id %d not checkpointed", id)
		}
	}
	rows := readLedger(t, h.dir)
	if len(rows) != 3 {
		t.Fatalf("ledger rows = %d", len(rows))
	}
	if rows[2].Status != matching.StatusNoMatch || rows[2].Reason != "Error: tmdb /search/movie returned 500" {
		t.Fatalf("error row = %+v", rows[2])
	}
	if summary.RunID == "" || summary.LedgerPath != h.ledger.Path() {
		t.Fatalf("summary metadata = %+v", summary)
	}
}

func TestApplyModeAppliesAutoAcceptOnly(t *testing.T) {
	h := newHarness(t)
	summary, err := h.driver(enrich.Options{Mode: enrich.ModeApply}, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Applied != 1 || h.store.applied[1] != 100 {
		t.Fatalf("applied = %v summary %+v", h.store.applied, summary)
	}
	if _, ok := h.store.applied[2]; ok {
		t.Fatal("review result must not be applied")
	}
}

func TestApplyFailureIsCountedAndCheckpointed(t *testing.T) {
	h := newHarness(t)
	h.store.failApply = map[int64]bool{1: true}
	summary, err := h.driver(enrich.Options{Mode: enrich.ModeApply}, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.ApplyErrors != 1 || summary.Applied != 0 {
		t.Fatalf("summary = %+v", summary)
	}
	if !h.checkpoint.Contains(1) {
		t.Fatal("failed apply must still be checkpointed")
	}
}

func TestResumeSkipsCheckpointedRecords(t *testing.T) {
	h := newHarness(t)
	h.checkpoint.Mark(1)
	summary, err := h.driver(enrich.Options{}, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Skipped != 1 || summary.Processed != 2 {
		t.Fatalf("summary = %+v", summary)
	}
	for _, id := range h.matcher.calls {
		if id == 1 {
			t.Fatal("checkpointed record was matched again")
		}
	}
}

func TestLimitedResumeReachesNewRecords(t *testing.T) {
	h := newHarness(t)
	h.store.movies = append(h.store.movies, store.Movie{ID: 4, Title: "La ciénaga", Year: 2001})
	opts := enrich.Options{Page: store.Page{Limit: 2}}

	first, err := h.driver(opts, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if first.Processed != 2 || first.Skipped != 0 {
		t.Fatalf("first summary = %+v", first)
	}

	h.openLedgerAndCheckpointAt(t, time.Now().Add(time.Second))
	second, err := h.driver(opts, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if second.Processed != 2 || second.Skipped != 2 {
		t.Fatalf("second summary = %+v", second)
	}
	want := []int64{1, 2, 3, 4}
	if len(h.matcher.calls) != len(want) {
		t.Fatalf("matcher calls = %v, want %v", h.matcher.calls, want)
	}
	for i, id := range want {
		if h.matcher.calls[i] != id {
			t.Fatalf("matcher calls = %v, want %v", h.matcher.calls, want)
		}
	}

	h.openLedgerAndCheckpointAt(t, time.Now().Add(2*time.Second))
	third, err := h.driver(opts, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("third Run: %v", err)
	}
	if third.Processed != 0 || third.Skipped != 4 {
		t.Fatalf("exhausted summary = %+v", third)
	}
}

func TestResumedRunKeepsEarlierRowsForApply(t *testing.T) {
	h := newHarness(t)
	h.store.movies = append(h.store.movies, store.Movie{ID: 4, Title: "La ciénaga", Year: 2001})
	h.matcher.results[1] = matching.Result{CandidateID: 100, CandidateTitle: "Zama", Score: 65, Status: matching.StatusReview}

	if _, err := h.driver(enrich.Options{Page: store.Page{Limit: 2}}, nil).Run(context.Background()); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	h.openLedgerAndCheckpointAt(t, time.Now().Add(time.Second))
	if _, err := h.driver(enrich.Options{}, nil).Run(context.Background()); err != nil {
		t.Fatalf("resumed Run: %v", err)
	}

	rows := readLedger(t, h.dir)
	var ids []int64
	for _, row := range rows {
		ids = append(ids, row.LocalID)
	}
	if len(ids) != 4 || ids[0] != 1 || ids[3] != 4 {
		t.Fatalf("latest ledger ids = %v", ids)
	}

	cp, err := checkpoint.Open(checkpoint.ApplyPath(h.dir, "movies"), checkpoint.ModeApplied)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = cp.Close() })
	summary, err := enrich.ApplyLedger(context.Background(), rows, enrich.MovieSource{Store: h.store}, cp, nil, enrich.ApplyOptions{})
	if err != nil {
		t.Fatalf("ApplyLedger: %v", err)
	}
	if summary.Applied != 2 || h.store.applied[1] != 100 || h.store.applied[2] != 200 {
		t.Fatalf("applied = %v summary %+v", h.store.applied, summary)
	}
}

func TestResetReprocessesEverything(t *testing.T) {
	h := newHarness(t)
	h.checkpoint.Mark(1)
	summary, err := h.driver(enrich.Options{Reset: true}, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Skipped != 0 || summary.Processed != 3 {
		t.Fatalf("summary = %+v", summary)
	}
}

func TestUnreachableCatalogAbortsBeforeAnyRecord(t *testing.T) {
	h := newHarness(t)
	_, err := h.driver(enrich.Options{}, fakePinger{err: errors.New("dial tcp: refused")}).Run(context.Background())
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	if len(h.matcher.calls) != 0 {
		t.Fatalf("matcher called %v", h.matcher.calls)
	}
}

func TestCancellationFlushesAndClosesLedger(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.matcher.onCall = func(id int64) {
		if id == 2 {
			cancel()
		}
	}
	summary, err := h.driver(enrich.Options{}, nil).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if !summary.Interrupted || summary.Processed != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	if !h.checkpoint.Contains(1) || h.checkpoint.Contains(2) {
		t.Fatalf("checkpoint ids = %v", h.checkpoint.IDs())
	}
	if rows := readLedger(t, h.dir); len(rows) != 1 {
		t.Fatalf("ledger rows = %d, want 1", len(rows))
	}
}

type countingCheckpoint struct {
	*checkpoint.Checkpoint
	flushes int
}

func (c *countingCheckpoint) Flush() error {
	c.flushes++
	return c.Checkpoint.Flush()
}

func TestCheckpointFlushCadence(t *testing.T) {
	h := newHarness(t)
	counting := &countingCheckpoint{Checkpoint: h.checkpoint}
	d := enrich.NewDriver(enrich.MovieSource{Store: h.store}, h.matcher, h.ledger, counting, nil, nil, enrich.Options{FlushEvery: 2})
	if _, err := d.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	// One flush after the second record and one at the end.
	if counting.flushes != 2 {
		t.Fatalf("flushes = %d, want 2", counting.flushes)
	}
}

func TestApplyLedgerFiltersAndResumes(t *testing.T) {
	dir := t.TempDir()
	rows := []ledger.Row{
		{LocalID: 1, CandidateID: 10, Score: 90, Status: matching.StatusAutoAccept},
		{LocalID: 2, CandidateID: 20, Score: 60, Status: matching.StatusReview},
		{LocalID: 3, CandidateID: 30, Score: 70, Status: matching.StatusMultiple},
		{LocalID: 4, Score: 0, Status: matching.StatusNoMatch},
		{LocalID: 5, CandidateID: 50, Score: 40, Status: matching.StatusReview},
	}
	movies := &fakeMovieStore{}
	cp, err := checkpoint.Open(checkpoint.ApplyPath(dir, "movies"), checkpoint.ModeApplied)
	if err != nil {
		t.Fatal(err)
	}
	cp.Mark(1)

	summary, err := enrich.ApplyLedger(context.Background(), rows, enrich.MovieSource{Store: movies}, cp, nil, enrich.ApplyOptions{MinScore: 50})
	if err != nil {
		t.Fatalf("ApplyLedger: %v", err)
	}
	if summary.Applied != 1 || summary.AlreadyApplied != 1 || summary.Filtered != 3 {
		t.Fatalf("summary = %+v", summary)
	}
	if movies.applied[2] != 20 || len(movies.applied) != 1 {
		t.Fatalf("applied = %v", movies.applied)
	}
	if err := cp.Close(); err != nil {
		t.Fatal(err)
	}
	ids, _, err := checkpoint.Peek(checkpoint.ApplyPath(dir, "movies"), checkpoint.ModeApplied)
	if err != nil || len(ids) != 2 {
		t.Fatalf("applied ids = %v (%v)", ids, err)
	}
}

func TestApplyLedgerPeopleDefaultsToAutoAccept(t *testing.T) {
	rows := []ledger.Row{
		{LocalID: 1, CandidateID: 10, Score: 90, Status: matching.StatusAutoAccept},
		{LocalID: 2, CandidateID: 20, Score: 60, Status: matching.StatusReview},
	}
	people := &fakePersonStore{}
	cp, err := checkpoint.Open(checkpoint.ApplyPath(t.TempDir(), "people"), checkpoint.ModeApplied)
	if err != nil {
		t.Fatal(err)
	}
	defer cp.Close()
	summary, err := enrich.ApplyLedger(context.Background(), rows, enrich.PersonSource{Store: people}, cp, nil, enrich.ApplyOptions{})
	if err != nil {
		t.Fatalf("ApplyLedger: %v", err)
	}
	if summary.Applied != 1 || people.applied[1] != 10 {
		t.Fatalf("summary %+v applied %v", summary, people.applied)
	}

	statuses := []matching.Status{matching.StatusReview}
	summary, err = enrich.ApplyLedger(context.Background(), rows, enrich.PersonSource{Store: people}, cp, nil, enrich.ApplyOptions{Statuses: statuses})
	if err != nil {
		t.Fatalf("ApplyLedger: %v", err)
	}
	if summary.Applied != 1 || people.applied[2] != 20 {
		t.Fatalf("override statuses: summary %+v applied %v", summary, people.applied)
	}
}

func TestApplyErrorUnwraps(t *testing.T) {
	cause := errors.New("boom")
	err := error(&enrich.ApplyError{LocalID: 7, Err: cause})
	if !errors.Is(err, cause) || err.Error() != "apply match for local id 7: boom" {
		t.Fatalf("err = %v", err)
	}
}

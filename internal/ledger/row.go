package ledger

import (
	"fmt"
	"strconv"
	"strings"

	"cinematch/internal/matching"
	"cinematch/internal/store"
)

// Column names shared by both ledger kinds.
const (
	ColLocalID       = "local_id"
	ColLocalTitle    = "local_title"
	ColLocalYear     = "local_year"
	ColLocalDirector = "local_director"
	ColLocalName     = "local_name"
	ColLocalBirth    = "local_birth"
	ColLocalDeath    = "local_death"
	ColLocalMovies   = "local_movies"
	ColTMDBID        = "tmdb_id"
	ColTMDBTitle     = "tmdb_title"
	ColTMDBYear      = "tmdb_year"
	ColTMDBName      = "tmdb_name"
	ColTMDBBirth     = "tmdb_birth"
	ColTMDBPlace     = "tmdb_place"
	ColIMDbID        = "imdb_id"
	ColScore         = "match_score"
	ColStatus        = "match_status"
	ColReason        = "match_reason"
)

// MovieColumns is the movie ledger header.
var MovieColumns = []string{
	ColLocalID, ColLocalTitle, ColLocalYear, ColLocalDirector,
	ColTMDBID, ColTMDBTitle, ColTMDBYear, ColIMDbID,
	ColScore, ColStatus, ColReason,
}

// PersonColumns is the people ledger header.
var PersonColumns = []string{
	ColLocalID, ColLocalName, ColLocalBirth, ColLocalDeath, ColLocalMovies,
	ColTMDBID, ColTMDBName, ColTMDBBirth, ColTMDBPlace, ColIMDbID,
	ColScore, ColStatus, ColReason,
}

// Columns returns the header for kind.
func Columns(kind matching.Kind) []string {
	if kind == matching.KindPerson {
		return PersonColumns
	}
	return MovieColumns
}

// Row is one ledger line. Movie rows use LocalTitle/LocalYear/LocalDirector
// and CandidateYear; person rows use the birth, death, movies and place
// fields. LocalTitle and CandidateTitle hold the names for people.
type Row struct {
	Kind           matching.Kind
	LocalID        int64
	LocalTitle     string
	LocalYear      int
	LocalDirector  string
	LocalBirth     string
	LocalDeath     string
	LocalMovies    int
	CandidateID    int64
	CandidateTitle string
	CandidateYear  int
	CandidateBirth string
	CandidatePlace string
	IMDbID         string
	Score          int
	Status         matching.Status
	Reason         string
}

// MovieRow builds a ledger row for a film result.
func MovieRow(movie store.Movie, result matching.Result) Row {
	return Row{
		Kind:           matching.KindMovie,
		LocalID:        movie.ID,
		LocalTitle:     movie.Title,
		LocalYear:      movie.Year,
		LocalDirector:  strings.Join(movie.Directors, ", "),
		CandidateID:    result.CandidateID,
		CandidateTitle: result.CandidateTitle,
		CandidateYear:  result.CandidateYear,
		IMDbID:         result.IMDbID,
		Score:          result.Score,
		Status:         result.Status,
		Reason:         result.Detail,
	}
}

// PersonRow builds a ledger row for a person result.
func PersonRow(person store.Person, result matching.Result) Row {
	return Row{
		Kind:           matching.KindPerson,
		LocalID:        person.ID,
		LocalTitle:     person.FullName(),
		LocalBirth:     person.Birth.String(),
		LocalDeath:     person.Death.String(),
		LocalMovies:    person.MovieCount,
		CandidateID:    result.CandidateID,
		CandidateTitle: result.CandidateTitle,
		CandidateBirth: result.CandidateBirth,
		CandidatePlace: result.CandidatePlace,
		IMDbID:         result.IMDbID,
		Score:          result.Score,
		Status:         result.Status,
		Reason:         result.Detail,
	}
}

func (r Row) values() map[string]string {
	return map[string]string{
		ColLocalID:       formatInt64(r.LocalID),
		ColLocalTitle:    r.LocalTitle,
		ColLocalName:     r.LocalTitle,
		ColLocalYear:     formatInt(r.LocalYear),
		ColLocalDirector: r.LocalDirector,
		ColLocalBirth:    r.LocalBirth,
		ColLocalDeath:    r.LocalDeath,
		ColLocalMovies:   formatInt(r.LocalMovies),
		ColTMDBID:        formatInt64(r.CandidateID),
		ColTMDBTitle:     r.CandidateTitle,
		ColTMDBName:      r.CandidateTitle,
		ColTMDBYear:      formatInt(r.CandidateYear),
		ColTMDBBirth:     r.CandidateBirth,
		ColTMDBPlace:     r.CandidatePlace,
		ColIMDbID:        r.IMDbID,
		ColScore:         strconv.Itoa(r.Score),
		ColStatus:        string(r.Status),
		ColReason:        r.Reason,
	}
}

// Record renders the row in header order for its kind.
func (r Row) Record() []string {
	values := r.values()
	columns := Columns(r.Kind)
	record := make([]string, len(columns))
	for i, col := range columns {
		record[i] = values[col]
	}
	return record
}

func formatInt(v int) string {
	if v == 0 {
		return ""
	}
	return strconv.Itoa(v)
}

func formatInt64(v int64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatInt(v, 10)
}

// parseRow reads a record using a header index. Unknown columns are ignored
// and missing numeric values become zero.
func parseRow(kind matching.Kind, index map[string]int, record []string, line int) (Row, error) {
	get := func(col string) string {
		i, ok := index[col]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}
	row := Row{Kind: kind}
	var err error
	if row.LocalID, err = parseInt64(get(ColLocalID)); err != nil {
		return row, fmt.Errorf("line %d: %s: %w", line, ColLocalID, err)
	}
	if row.CandidateID, err = parseInt64(get(ColTMDBID)); err != nil {
		return row, fmt.Errorf("line %d: %s: %w", line, ColTMDBID, err)
	}
	score, err := parseInt64(get(ColScore))
	if err != nil {
		return row, fmt.Errorf("line %d: %s: %w", line, ColScore, err)
	}
	row.Score = int(score)
	if raw := get(ColStatus); raw != "" {
		status, ok := matching.ParseStatus(raw)
		if !ok {
			return row, fmt.Errorf("line %d: unknown status %q", line, raw)
		}
		row.Status = status
	}
	row.IMDbID = get(ColIMDbID)
	row.Reason = get(ColReason)

	if kind == matching.KindPerson {
		row.LocalTitle = get(ColLocalName)
		row.LocalBirth = get(ColLocalBirth)
		row.LocalDeath = get(ColLocalDeath)
		movies, _ := parseInt64(get(ColLocalMovies))
		row.LocalMovies = int(movies)
		row.CandidateTitle = get(ColTMDBName)
		row.CandidateBirth = get(ColTMDBBirth)
		row.CandidatePlace = get(ColTMDBPlace)
		return row, nil
	}
	row.LocalTitle = get(ColLocalTitle)
	year, _ := parseInt64(get(ColLocalYear))
	row.LocalYear = int(year)
	row.LocalDirector = get(ColLocalDirector)
	row.CandidateTitle = get(ColTMDBTitle)
	tmdbYear, _ := parseInt64(get(ColTMDBYear))
	row.CandidateYear = int(tmdbYear)
	return row, nil
}

// parseInt64 accepts spreadsheet renderings such as "123.0".
func parseInt64(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", raw)
	}
	return int64(f), nil
}

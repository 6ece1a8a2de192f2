package matching

import (
	"strings"
)

// Kind identifies the type of local record being matched.
type Kind string

const (
	KindMovie  Kind = "movie"
	KindPerson Kind = "person"
)

// Status is the classifier outcome for a record.
type Status string

const (
	StatusAutoAccept Status = "auto_accept"
	StatusReview     Status = "review"
	StatusMultiple   Status = "multiple"
	StatusNoMatch    Status = "no_match"
)

// Statuses lists every status in report order.
var Statuses = []Status{StatusAutoAccept, StatusReview, StatusMultiple, StatusNoMatch}

// ParseStatus converts a ledger value into a Status.
func ParseStatus(value string) (Status, bool) {
	value = strings.TrimSpace(strings.ToLower(value))
	for _, status := range Statuses {
		if string(status) == value {
			return status, true
		}
	}
	return "", false
}

// ReasonCode names one scoring contribution.
type ReasonCode string

const (
	ReasonExactTitle       ReasonCode = "exact_title"
	ReasonSimilarTitle     ReasonCode = "similar_title"
	ReasonPartialTitle     ReasonCode = "partial_title"
	ReasonYearExact        ReasonCode = "year_exact"
	ReasonYearNear         ReasonCode = "year_near"
	ReasonDirectorMatch    ReasonCode = "director_match"
	ReasonDirectorMismatch ReasonCode = "director_mismatch"
	ReasonCountry          ReasonCode = "country"
	ReasonDuration         ReasonCode = "duration"
	ReasonExactName        ReasonCode = "exact_name"
	ReasonSimilarName      ReasonCode = "similar_name"
	ReasonPartialName      ReasonCode = "partial_name"
	ReasonAliasMatch       ReasonCode = "alias_match"
	ReasonBirthDate        ReasonCode = "birth_date"
	ReasonDeathDate        ReasonCode = "death_date"
	ReasonBirthplace       ReasonCode = "birthplace"
	ReasonSharedFilms      ReasonCode = "shared_films"
)

// Reason is one contribution to a candidate score.
type Reason struct {
	Code   ReasonCode
	Points int
	Count  int
	Detail string
}

// Scored is a hydrated candidate with its score and contributing reasons.
type Scored struct {
	CandidateID int64
	Title       string
	Year        int
	IMDbID      string
	Birth       string
	Place       string
	Score       int
	Reasons     []Reason
}

func (s *Scored) add(code ReasonCode, points int, detail string) {
	s.Score += points
	s.Reasons = append(s.Reasons, Reason{Code: code, Points: points, Detail: detail})
}

// Reason returns the first reason with the given code.
func (s Scored) Reason(code ReasonCode) (Reason, bool) {
	for _, reason := range s.Reasons {
		if reason.Code == code {
			return reason, true
		}
	}
	return Reason{}, false
}

// Has reports whether a reason with the given code was recorded.
func (s Scored) Has(code ReasonCode) bool {
	_, ok := s.Reason(code)
	return ok
}

// DirectorMismatch reports whether both sides listed directors and none matched.
func (s Scored) DirectorMismatch() bool {
	return s.Has(ReasonDirectorMismatch)
}

// HasTitleTier reports whether any title or name similarity tier was reached.
func (s Scored) HasTitleTier() bool {
	for _, code := range []ReasonCode{
		ReasonExactTitle, ReasonSimilarTitle, ReasonPartialTitle,
		ReasonExactName, ReasonSimilarName, ReasonPartialName,
	} {
		if s.Has(code) {
			return true
		}
	}
	return false
}

// Details joins the human readable reason details with "; ".
func (s Scored) Details() string {
	parts := make([]string, 0, len(s.Reasons))
	for _, reason := range s.Reasons {
		if reason.Detail != "" {
			parts = append(parts, reason.Detail)
		}
	}
	return strings.Join(parts, "; ")
}

// Result is the ledger-ready outcome for one local record.
type Result struct {
	Kind           Kind
	LocalID        int64
	CandidateID    int64
	CandidateTitle string
	CandidateYear  int
	CandidateBirth string
	CandidatePlace string
	IMDbID         string
	Score          int
	Reasons        []Reason
	Status         Status
	Detail         string
}

// Matched reports whether the result carries a candidate.
func (r Result) Matched() bool {
	return r.CandidateID > 0
}

// Thresholds configures classification for one record kind.
type Thresholds struct {
	AutoAccept int
	Review     int
	// OverrideSharedFilms is the minimum shared filmography count that lets
	// an exact person name auto-accept below the auto threshold.
	OverrideSharedFilms int
}

// DefaultThresholds returns the film and person defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{AutoAccept: 80, Review: 50, OverrideSharedFilms: 2}
}

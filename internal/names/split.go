package names

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"cinematch/internal/logging"
)

// Oracle answers questions about tokens missing from the cache. Gender
// returns MALE, FEMALE or UNISEX.
type Oracle interface {
	Gender(ctx context.Context, token string) (string, error)
	IsFirstName(ctx context.Context, token string) (bool, error)
}

// OracleError wraps a failed oracle call. Split absorbs it into NeedsReview.
type OracleError struct {
	Token string
	Op    string
	Err   error
}

func (e *OracleError) Error() string {
	return fmt.Sprintf("oracle %s for %q: %v", e.Op, e.Token, e.Err)
}

func (e *OracleError) Unwrap() error { return e.Err }

// SplitResult is the outcome of splitting one full name. LastName is empty
// only for an empty input.
type SplitResult struct {
	FirstName    string
	LastName     string
	Gender       Gender
	NeedsReview  bool
	ReviewReason string
}

// Splitter separates first names from surnames.
type Splitter struct {
	cache  *Cache
	oracle Oracle
	store  Store
	logger *slog.Logger
}

// NewSplitter wires a splitter. oracle and store may be nil: without an oracle
// unknown tokens end the first name; without a store answers stay in memory.
func NewSplitter(cache *Cache, oracle Oracle, store Store, logger *slog.Logger) *Splitter {
	if cache == nil {
		cache = NewCache()
	}
	return &Splitter{
		cache:  cache,
		oracle: oracle,
		store:  store,
		logger: logging.NewComponentLogger(logger, "names"),
	}
}

// Split separates full into first name and surname.
func (s *Splitter) Split(ctx context.Context, full string) SplitResult {
	tokens := Tokenize(full)
	switch len(tokens) {
	case 0:
		return SplitResult{NeedsReview: true, ReviewReason: "empty name"}
	case 1:
		return SplitResult{LastName: tokens[0]}
	}

	var (
		classified int
		detected   Gender
		oracleErr  error
	)
	for _, token := range tokens {
		gender, known, err := s.classify(ctx, token)
		if err != nil {
			oracleErr = err
			break
		}
		if !known {
			break
		}
		classified++
		if detected == "" && gender.Specific() {
			detected = gender
		}
	}

	result := SplitResult{Gender: detected}
	switch {
	case classified == len(tokens):
		result.FirstName = strings.Join(tokens[:len(tokens)-1], " ")
		result.LastName = tokens[len(tokens)-1]
	case classified == 0:
		result.FirstName = tokens[0]
		result.LastName = strings.Join(tokens[1:], " ")
		result.Gender = ""
		result.NeedsReview = true
		result.ReviewReason = fmt.Sprintf("first name %q not found in lookup table", tokens[0])
	default:
		result.FirstName = strings.Join(tokens[:classified], " ")
		result.LastName = strings.Join(tokens[classified:], " ")
	}

	if oracleErr != nil {
		result.NeedsReview = true
		if result.ReviewReason != "" {
			result.ReviewReason += "; "
		}
		result.ReviewReason += oracleErr.Error()
	}
	return result
}

// classify reports whether token is a given name and its gender, consulting
// the oracle and persisting its answer when the cache has no entry.
func (s *Splitter) classify(ctx context.Context, token string) (Gender, bool, error) {
	if gender, ok := s.cache.Lookup(token); ok {
		return gender, true, nil
	}
	if s.oracle == nil {
		return "", false, nil
	}

	name := cleanToken(token)
	if name == "" {
		return "", false, nil
	}
	answer, err := s.oracle.Gender(ctx, name)
	if err != nil {
		return "", false, &OracleError{Token: name, Op: "gender", Err: err}
	}
	if gender := ParseGender(answer); gender.Specific() {
		s.remember(ctx, name, gender)
		return gender, true, nil
	}

	isFirst, err := s.oracle.IsFirstName(ctx, name)
	if err != nil {
		return "", false, &OracleError{Token: name, Op: "is_first_name", Err: err}
	}
	if !isFirst {
		return "", false, nil
	}
	s.remember(ctx, name, GenderUnisex)
	return GenderUnisex, true, nil
}

func (s *Splitter) remember(ctx context.Context, name string, gender Gender) {
	if !s.cache.Add(name, gender) || s.store == nil {
		return
	}
	stored := string(gender)
	if gender == GenderUnisex {
		stored = ""
	}
	if err := s.store.InsertFirstNameGender(ctx, name, stored); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		logging.WarnWithContext(s.logger, "first name not persisted", "first_name_persist_failed",
			logging.String("first_name", name),
			logging.Error(err),
			logging.String(logging.FieldImpact, "the oracle will be asked again on the next run"),
		)
		return
	}
	s.logger.Debug("first name recorded",
		logging.String("first_name", name),
		logging.String("gender", string(gender)),
	)
}

// Cache exposes the splitter's cache.
func (s *Splitter) Cache() *Cache {
	return s.cache
}

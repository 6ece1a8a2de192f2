// Package matching resolves local films and people against catalog
// candidates.
//
// A Matcher runs the search cascade for a record, hydrates the first few
// unique candidates, scores them with weighted heuristics and classifies the
// best one as auto_accept, review, multiple or no_match. Scores are additive
// and every contribution is recorded as a Reason so reviewers can see why a
// candidate ranked where it did.
package matching

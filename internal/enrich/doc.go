// Package enrich drives batch enrichment runs.
//
// A Driver pulls unmatched local records, asks the matcher for a decision,
// appends every outcome to the review ledger, optionally applies accepted
// matches to the local store and checkpoints each record so a rerun resumes
// where the previous one stopped. The apply pass replays a reviewed ledger
// against the store with its own checkpoint.
package enrich

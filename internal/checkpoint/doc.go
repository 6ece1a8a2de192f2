// Package checkpoint persists the set of record ids a batch has already
// handled so an interrupted run can resume where it stopped.
//
// A checkpoint file is JSON ({"processedIds":[...],"lastRun":"..."} for
// enrichment, "appliedIds" for the apply pass) written atomically. A lock
// file next to it keeps two runs from sharing the same checkpoint.
package checkpoint

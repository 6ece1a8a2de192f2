// Package ledger writes and reads the review ledger: one CSV row per
// processed record with the chosen candidate, score, status and reasons.
//
// Each run writes a timestamped file and refreshes the "latest" copy that the
// apply pass reads by default. Reading tolerates spreadsheet round trips (a
// UTF-8 BOM and ";" separators). ExportXLSX renders a ledger for reviewers.
package ledger

// Package main hosts the cinematch CLI entrypoint and command graph.
//
// The Cobra command tree drives the enrichment batches (enrich, apply), the
// name splitter, ledger export, checkpoint maintenance, preflight checks and
// configuration scaffolding. It centralizes configuration resolution, logger
// setup and client wiring so subcommands only describe what to run.
//
// Long runs stop cleanly on SIGINT or SIGTERM: the batch driver closes the
// ledger and flushes its checkpoint, and the partial summary is still printed.
package main

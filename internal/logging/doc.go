// Package logging assembles the slog loggers used by cinematch.
//
// It owns the console and JSON handlers, the level and output plumbing, and
// context helpers that tag log lines with the run id and the movie or person
// currently being matched. NewNop is available for tests and wiring code that
// cannot fail.
package logging

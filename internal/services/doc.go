// Package services defines shared plumbing consumed by the enrichment
// pipeline and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, record kinds, and local record IDs
//     so every log line of a batch can be correlated.
//   - Structured error markers plus the Wrap helper that let callers classify
//     failures (external catalog, validation, configuration, not found) with
//     errors.Is instead of string matching.
//
// The LLM oracle client lives in the llm subpackage.
package services

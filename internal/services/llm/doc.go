// Package llm provides an OpenRouter chat client used as a name oracle.
//
// The name splitter asks it two questions about tokens missing from the
// first-name table: which gender a given name is typically used for, and
// whether a word is a given name at all. Both go through CompleteJSON, which
// requests JSON output and tolerates fenced or prose-wrapped replies.
//
// Requests are throttled with a token-bucket limiter (requests_per_minute) and
// retried on HTTP 408/429/5xx, network timeouts and empty replies with
// exponential backoff. Context cancellation aborts waits and retries
// immediately. HealthCheck verifies the key and model for the doctor command.
package llm

package services

import "context"

type contextKey string

const (
	runIDKey      contextKey = "run_id"
	recordKindKey contextKey = "record_kind"
	recordIDKey   contextKey = "record_id"
)

// WithRunID annotates context with the batch run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the batch run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRecord annotates context with the kind ("movie", "person") and local id
// of the record currently being processed.
func WithRecord(ctx context.Context, kind string, id int64) context.Context {
	if kind != "" {
		ctx = context.WithValue(ctx, recordKindKey, kind)
	}
	return context.WithValue(ctx, recordIDKey, id)
}

// RecordFromContext returns the record kind and id if present.
func RecordFromContext(ctx context.Context) (string, int64, bool) {
	id, ok := ctx.Value(recordIDKey).(int64)
	if !ok {
		return "", 0, false
	}
	kind, _ := ctx.Value(recordKindKey).(string)
	return kind, id, true
}

package checkpoint_test

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cinematch/internal/checkpoint"
)

func fixedClock() time.Time {
	return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
}

func TestMarkFlushAndReload(t *testing.T) {
	path := checkpoint.ProgressPath(t.TempDir(), "movies")
	cp, err := checkpoint.Open(path, checkpoint.ModeProcessed, checkpoint.WithClock(fixedClock))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !cp.Mark(10) || !cp.Mark(11) {
		t.Fatal("first marks should be new")
	}
	if cp.Mark(10) {
		t.Fatal("re-marking an id must be a no-op")
	}
	if cp.Pending() != 2 {
		t.Fatalf("pending = %d", cp.Pending())
	}
	if err := cp.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var state checkpoint.State
	if err := json.Unmarshal(data, &state); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(state.ProcessedIDs) != 2 || !state.LastRun.Equal(fixedClock()) {
		t.Fatalf("state = %+v", state)
	}

	reopened, err := checkpoint.Open(path, checkpoint.ModeProcessed)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if !reopened.Contains(10) || !reopened.Contains(11) || reopened.Contains(12) {
		t.Fatalf("ids = %v", reopened.IDs())
	}
}

func TestOpenFailsWhileLocked(t *testing.T) {
	path := checkpoint.ProgressPath(t.TempDir(), "people")
	first, err := checkpoint.Open(path, checkpoint.ModeProcessed)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer first.Close()
	if _, err := checkpoint.Open(path, checkpoint.ModeProcessed); !errors.Is(err, checkpoint.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
}

func TestResetRemovesFile(t *testing.T) {
	path := checkpoint.ProgressPath(t.TempDir(), "movies")
	cp, err := checkpoint.Open(path, checkpoint.ModeProcessed)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer cp.Close()
	cp.Mark(1)
	if err := cp.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if err := cp.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if cp.Len() != 0 || cp.Contains(1) {
		t.Fatal("reset should forget ids")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("checkpoint file still present: %v", err)
	}
}

func TestApplyModeUsesAppliedIDs(t *testing.T) {
	dir := t.TempDir()
	path := checkpoint.ApplyPath(dir, "people")
	if filepath.Base(path) != ".people-apply-progress.json" {
		t.Fatalf("path = %s", path)
	}
	if err := os.WriteFile(path, []byte(`{"appliedIds":[4,5,4],"lastRun":"2025-12-01T10:00:00Z"}`), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	ids, lastRun, err := checkpoint.Peek(path, checkpoint.ModeApplied)
	if err != nil {
		t.Fatalf("Peek: %v", err)
	}
	if len(ids) != 2 || lastRun.Year() != 2025 {
		t.Fatalf("ids %v lastRun %v", ids, lastRun)
	}

	cp, err := checkpoint.Open(path, checkpoint.ModeApplied)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	cp.Mark(6)
	if err := cp.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	data, _ := os.ReadFile(path)
	var state checkpoint.ApplyState
	if err := json.Unmarshal(data, &state); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(state.AppliedIDs) != 3 {
		t.Fatalf("applied = %v", state.AppliedIDs)
	}
}

func TestCorruptFileFailsOpen(t *testing.T) {
	path := checkpoint.ProgressPath(t.TempDir(), "movies")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := checkpoint.Open(path, checkpoint.ModeProcessed); err == nil {
		t.Fatal("expected parse error")
	}
	// The lock must have been released on failure.
	if err := os.WriteFile(path, []byte(`{"processedIds":[]}`), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	cp, err := checkpoint.Open(path, checkpoint.ModeProcessed)
	if err != nil {
		t.Fatalf("Open after failure: %v", err)
	}
	cp.Close()
}

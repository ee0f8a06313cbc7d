package runlog_test

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"shortforge/internal/runlog"
)

func record(runID string, ts time.Time) runlog.Record {
	return runlog.Record{
		RunID:      runID,
		Status:     "completed",
		ClientID:   "client_a",
		Topic:      "budgeting basics",
		StartedAt:  ts.Add(-30 * time.Second),
		FinishedAt: ts,
		Timestamp:  ts,
		DurationMS: 30000,
	}
}

func TestWriteRecordIsWriteOnce(t *testing.T) {
	dataDir := t.TempDir()
	ts := time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC)

	path, err := runlog.WriteRecord(dataDir, record("2026-08-29T09-00-00", ts))
	if err != nil {
		t.Fatalf("WriteRecord: %v", err)
	}
	want := filepath.Join(dataDir, "clients", "client_a", "runs", "run_2026-08-29T09-00-00.json")
	if path != want {
		t.Fatalf("unexpected path %q, want %q", path, want)
	}

	if _, err := runlog.WriteRecord(dataDir, record("2026-08-29T09-00-00", ts)); err == nil {
		t.Fatal("expected error on duplicate run log write")
	} else if !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestListRunsSortsNewestFirst(t *testing.T) {
	dataDir := t.TempDir()
	base := time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		ts := base.Add(time.Duration(i) * time.Hour)
		runID := ts.Format("2006-01-02T15-04-05")
		if _, err := runlog.WriteRecord(dataDir, record(runID, ts)); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}

	runs, err := runlog.ListRuns(dataDir, "client_a", 2)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if !runs[0].Timestamp.After(runs[1].Timestamp) {
		t.Fatalf("runs not sorted newest first: %v then %v", runs[0].Timestamp, runs[1].Timestamp)
	}
}

func TestListRunsForUnknownClientIsEmpty(t *testing.T) {
	runs, err := runlog.ListRuns(t.TempDir(), "nobody", 10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 0 {
		t.Fatalf("expected no runs, got %d", len(runs))
	}
}

func TestAppendMetricFlattensExtraFields(t *testing.T) {
	dataDir := t.TempDir()
	event := runlog.Event{
		Event:     runlog.EventRunCompleted,
		Timestamp: time.Date(2026, 8, 29, 9, 0, 30, 0, time.UTC),
		ClientID:  "client_a",
		RunID:     "2026-08-29T09-00-00",
		Extra:     map[string]any{"topic": "budgeting basics", "durationMs": float64(30000)},
	}
	if err := runlog.AppendMetric(dataDir, event); err != nil {
		t.Fatalf("AppendMetric: %v", err)
	}

	events, err := runlog.ReadMetrics(dataDir, 10)
	if err != nil {
		t.Fatalf("ReadMetrics: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	got := events[0]
	if got.Event != runlog.EventRunCompleted || got.ClientID != "client_a" || got.RunID != "2026-08-29T09-00-00" {
		t.Fatalf("fixed fields not preserved: %+v", got)
	}
	if got.Extra["topic"] != "budgeting basics" || got.Extra["durationMs"] != float64(30000) {
		t.Fatalf("extra fields not preserved: %v", got.Extra)
	}
}

func TestReadMetricsReturnsNewestFirst(t *testing.T) {
	dataDir := t.TempDir()
	base := time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		event := runlog.Event{
			Event:     runlog.EventRunStarted,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			ClientID:  "client_a",
			RunID:     fmt.Sprintf("run-%d", i),
		}
		if err := runlog.AppendMetric(dataDir, event); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	events, err := runlog.ReadMetrics(dataDir, 3)
	if err != nil {
		t.Fatalf("ReadMetrics: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if events[0].RunID != "run-4" || events[2].RunID != "run-2" {
		t.Fatalf("unexpected order: %s .. %s", events[0].RunID, events[2].RunID)
	}
}

func TestAppendMetricEvictsBeyondCap(t *testing.T) {
	if testing.Short() {
		t.Skip("writes a few thousand events")
	}
	dataDir := t.TempDir()
	base := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 2005; i++ {
		event := runlog.Event{
			Event:     runlog.EventRunStarted,
			Timestamp: base.Add(time.Duration(i) * time.Second),
			RunID:     fmt.Sprintf("run-%04d", i),
		}
		if err := runlog.AppendMetric(dataDir, event); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	events, err := runlog.ReadMetrics(dataDir, 0)
	if err != nil {
		t.Fatalf("ReadMetrics: %v", err)
	}
	if len(events) != 2000 {
		t.Fatalf("expected cap of 2000 events, got %d", len(events))
	}
	// Oldest five were evicted; the oldest survivor is run-0005.
	if events[len(events)-1].RunID != "run-0005" {
		t.Fatalf("unexpected oldest survivor: %s", events[len(events)-1].RunID)
	}
}

package runlog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// maxMetrics bounds the event log; older events are evicted first.
const maxMetrics = 2000

// Metric event names emitted by the pipeline and scheduler.
const (
	EventRunStarted            = "run_started"
	EventUploadAttempted       = "upload_attempted"
	EventRunCompleted          = "run_completed"
	EventRunFailed             = "run_failed"
	EventSchedulerSkippedLock  = "scheduler_skipped_locked"
	EventSchedulerSkippedQuota = "scheduler_skipped_quota"
)

// Event is one metrics entry. Extra fields are flattened into the JSON
// object alongside the fixed keys.
type Event struct {
	Event     string
	Timestamp time.Time
	ClientID  string
	RunID     string
	Extra     map[string]any
}

// MarshalJSON flattens Extra into the top-level object.
func (e Event) MarshalJSON() ([]byte, error) {
	payload := make(map[string]any, len(e.Extra)+4)
	for key, value := range e.Extra {
		payload[key] = value
	}
	payload["event"] = e.Event
	payload["timestamp"] = e.Timestamp.UTC().Format(time.RFC3339Nano)
	if e.ClientID != "" {
		payload["clientId"] = e.ClientID
	}
	if e.RunID != "" {
		payload["runId"] = e.RunID
	}
	return json.Marshal(payload)
}

// UnmarshalJSON restores the fixed keys and keeps the rest in Extra.
func (e *Event) UnmarshalJSON(data []byte) error {
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}
	if name, ok := payload["event"].(string); ok {
		e.Event = name
	}
	if raw, ok := payload["timestamp"].(string); ok {
		if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			e.Timestamp = ts
		}
	}
	if clientID, ok := payload["clientId"].(string); ok {
		e.ClientID = clientID
	}
	if runID, ok := payload["runId"].(string); ok {
		e.RunID = runID
	}
	delete(payload, "event")
	delete(payload, "timestamp")
	delete(payload, "clientId")
	delete(payload, "runId")
	if len(payload) > 0 {
		e.Extra = payload
	}
	return nil
}

// MetricsPath returns the shared metrics file under the data directory.
func MetricsPath(dataDir string) string {
	return filepath.Join(dataDir, "metrics.json")
}

// AppendMetric appends an event to the metrics log, evicting the oldest
// entries beyond the cap. A file lock serializes concurrent writers.
func AppendMetric(dataDir string, event Event) error {
	path := MetricsPath(dataDir)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock metrics file: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	events, err := readAllMetrics(path)
	if err != nil {
		return err
	}
	events = append(events, event)
	if len(events) > maxMetrics {
		events = events[len(events)-maxMetrics:]
	}

	data, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return fmt.Errorf("encode metrics: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write metrics file: %w", err)
	}
	return nil
}

// ReadMetrics returns up to limit events, newest first.
func ReadMetrics(dataDir string, limit int) ([]Event, error) {
	events, err := readAllMetrics(MetricsPath(dataDir))
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(events) > limit {
		events = events[len(events)-limit:]
	}
	// Newest first.
	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}
	return events, nil
}

func readAllMetrics(path string) ([]Event, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read metrics file: %w", err)
	}
	var events []Event
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("decode metrics file: %w", err)
	}
	return events, nil
}

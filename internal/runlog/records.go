// Package runlog persists per-run JSON records and the shared metrics
// event log.
package runlog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"shortforge/internal/jobs"
	"shortforge/internal/media"
)

// RunError captures the failure cause recorded in a run log.
type RunError struct {
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// Record is the durable summary of one pipeline run. Written exactly once
// when the run reaches a terminal state.
type Record struct {
	RunID      string              `json:"runId"`
	Status     string              `json:"status"`
	ClientID   string              `json:"clientId"`
	Topic      string              `json:"topic"`
	StartedAt  time.Time           `json:"startedAt"`
	FinishedAt time.Time           `json:"finishedAt"`
	Timestamp  time.Time           `json:"timestamp"`
	DurationMS int64               `json:"durationMs"`
	Script     *media.Script       `json:"script,omitempty"`
	Audio      *media.AudioAsset   `json:"audio,omitempty"`
	Job        *jobs.Job           `json:"job,omitempty"`
	Video      *media.VideoAsset   `json:"video,omitempty"`
	Upload     *media.UploadResult `json:"upload,omitempty"`
	Error      *RunError           `json:"error,omitempty"`
}

// RunsDir returns the run log directory for a client.
func RunsDir(dataDir, clientID string) string {
	return filepath.Join(dataDir, "clients", clientID, "runs")
}

func runPath(dataDir, clientID, runID string) string {
	return filepath.Join(RunsDir(dataDir, clientID), "run_"+runID+".json")
}

// WriteRecord persists a terminal run record and returns its path. An
// existing record for the same run is never overwritten.
func WriteRecord(dataDir string, record Record) (string, error) {
	if record.RunID == "" || record.ClientID == "" {
		return "", fmt.Errorf("run record needs runId and clientId")
	}

	path := runPath(dataDir, record.ClientID, record.RunID)
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("run log already exists: %s", path)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("stat run log: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create runs directory: %w", err)
	}
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode run record: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("write run log: %w", err)
	}
	return path, nil
}

// ListRuns returns up to limit run records for a client, most recent first.
// A client with no runs yet yields an empty list.
func ListRuns(dataDir, clientID string, limit int) ([]Record, error) {
	entries, err := os.ReadDir(RunsDir(dataDir, clientID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read runs directory: %w", err)
	}

	var records []Record
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, "run_") || !strings.HasSuffix(name, ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(RunsDir(dataDir, clientID), name))
		if err != nil {
			return nil, fmt.Errorf("read run log %s: %w", name, err)
		}
		var record Record
		if err := json.Unmarshal(data, &record); err != nil {
			return nil, fmt.Errorf("decode run log %s: %w", name, err)
		}
		records = append(records, record)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Timestamp.After(records[j].Timestamp)
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

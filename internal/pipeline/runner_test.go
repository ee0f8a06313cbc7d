package pipeline_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"shortforge/internal/config"
	"shortforge/internal/jobs"
	"shortforge/internal/media"
	"shortforge/internal/pipeline"
	"shortforge/internal/providers"
	"shortforge/internal/quota"
	"shortforge/internal/runlog"
	"shortforge/internal/services"
	"shortforge/internal/testsupport"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{t: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Millisecond)
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fixture struct {
	cfg    *config.Config
	jobs   *jobs.Store
	quota  *quota.Store
	runner *pipeline.Runner
	clock  *fakeClock
}

func newFixture(t *testing.T, mutate func(*config.Config)) *fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	if mutate != nil {
		mutate(cfg)
	}
	jobStore := testsupport.OpenJobsStore(t, cfg)
	quotaStore := testsupport.OpenQuotaStore(t, cfg)
	clock := newFakeClock(time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC))

	factory := providers.NewFactory(cfg, jobStore)
	runner := pipeline.NewRunner(cfg, factory, jobStore, quotaStore, nil, nil,
		pipeline.WithClock(clock.Now),
		pipeline.WithSleeper(func(context.Context, time.Duration) error { return nil }),
	)
	return &fixture{cfg: cfg, jobs: jobStore, quota: quotaStore, runner: runner, clock: clock}
}

func metricEvents(t *testing.T, cfg *config.Config) map[string]int {
	t.Helper()
	events, err := runlog.ReadMetrics(cfg.Paths.DataDir, 0)
	if err != nil {
		t.Fatalf("ReadMetrics: %v", err)
	}
	counts := map[string]int{}
	for _, event := range events {
		counts[event.Event]++
	}
	return counts
}

func TestRunOnceCompletesAndRecordsEverything(t *testing.T) {
	f := newFixture(t, nil)
	client := testsupport.Client("client_a")

	result, err := f.runner.RunOnce(context.Background(), client, pipeline.RunOptions{})
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if result.Status != "completed" {
		t.Fatalf("expected completed, got %s", result.Status)
	}
	if result.Script == nil || result.Audio == nil || result.Job == nil || result.Video == nil || result.Upload == nil {
		t.Fatalf("missing artifacts in result: %+v", result)
	}

	if _, err := os.Stat(result.RunLogPath); err != nil {
		t.Fatalf("run log not written: %v", err)
	}
	runs, err := runlog.ListRuns(f.cfg.Paths.DataDir, client.ID, 10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 || runs[0].Status != "completed" {
		t.Fatalf("unexpected run records: %+v", runs)
	}
	if runs[0].Upload == nil || runs[0].Upload.VideoID == "" {
		t.Fatal("run record missing upload result")
	}

	counts := metricEvents(t, f.cfg)
	for _, event := range []string{runlog.EventRunStarted, runlog.EventUploadAttempted, runlog.EventRunCompleted} {
		if counts[event] != 1 {
			t.Errorf("expected exactly one %s metric, got %d", event, counts[event])
		}
	}
	if counts[runlog.EventRunFailed] != 0 {
		t.Errorf("unexpected run_failed metric")
	}

	job, err := f.jobs.Get(context.Background(), result.Job.ID)
	if err != nil {
		t.Fatalf("Get job: %v", err)
	}
	if job.Status != jobs.StatusCompleted {
		t.Fatalf("job not completed in store: %s", job.Status)
	}

	count, err := f.quota.DailyCount(context.Background(), client.ID, quota.DateKey(f.clock.Now()))
	if err != nil {
		t.Fatalf("DailyCount: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected quota count 1, got %d", count)
	}
}

func TestRunOnceHonorsTopicOverride(t *testing.T) {
	f := newFixture(t, nil)
	client := testsupport.Client("client_a")

	result, err := f.runner.RunOnce(context.Background(), client, pipeline.RunOptions{TopicOverride: "a very specific topic"})
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if result.Topic != "a very specific topic" {
		t.Fatalf("override ignored: %q", result.Topic)
	}
	if result.Script.Topic != "a very specific topic" {
		t.Fatalf("script topic mismatch: %q", result.Script.Topic)
	}
}

func TestSecondRunSameDayFailsOnQuota(t *testing.T) {
	f := newFixture(t, nil)
	client := testsupport.Client("client_a")
	ctx := context.Background()

	if _, err := f.runner.RunOnce(ctx, client, pipeline.RunOptions{}); err != nil {
		t.Fatalf("first run: %v", err)
	}

	f.clock.Advance(time.Hour)
	_, err := f.runner.RunOnce(ctx, client, pipeline.RunOptions{})
	if err == nil {
		t.Fatal("expected quota failure on second run")
	}
	if !services.IsQuotaExceeded(err) {
		t.Fatalf("expected quota exceeded error, got %v", err)
	}
	if !strings.Contains(err.Error(), "run log:") {
		t.Fatalf("error does not name the run log: %v", err)
	}

	runs, listErr := runlog.ListRuns(f.cfg.Paths.DataDir, client.ID, 10)
	if listErr != nil {
		t.Fatalf("ListRuns: %v", listErr)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 run records, got %d", len(runs))
	}
	if runs[0].Status != "failed" || runs[0].Error == nil {
		t.Fatalf("newest record should be the failure: %+v", runs[0])
	}

	counts := metricEvents(t, f.cfg)
	if counts[runlog.EventRunFailed] != 1 {
		t.Fatalf("expected one run_failed metric, got %d", counts[runlog.EventRunFailed])
	}
	// The refused run must not have attempted an upload.
	if counts[runlog.EventUploadAttempted] != 1 {
		t.Fatalf("expected one upload_attempted metric, got %d", counts[runlog.EventUploadAttempted])
	}
}

func TestUploadFailureProducesFailedRunAndReleasesQuota(t *testing.T) {
	f := newFixture(t, func(cfg *config.Config) {
		cfg.Stub.FailRate = 1.0
	})
	client := testsupport.Client("client_a")

	_, err := f.runner.RunOnce(context.Background(), client, pipeline.RunOptions{})
	if err == nil {
		t.Fatal("expected upload failure at fail rate 1.0")
	}
	if services.IsQuotaExceeded(err) {
		t.Fatalf("upload failure must not be a quota error: %v", err)
	}

	runs, listErr := runlog.ListRuns(f.cfg.Paths.DataDir, client.ID, 10)
	if listErr != nil {
		t.Fatalf("ListRuns: %v", listErr)
	}
	if len(runs) != 1 || runs[0].Status != "failed" {
		t.Fatalf("expected one failed record, got %+v", runs)
	}
	if runs[0].Error == nil || !strings.Contains(runs[0].Error.Message, "upload") {
		t.Fatalf("failure cause not recorded: %+v", runs[0].Error)
	}
	// Script and video progress up to the failing stage is preserved.
	if runs[0].Script == nil || runs[0].Video == nil {
		t.Fatal("partial artifacts missing from failed record")
	}
	if runs[0].Upload != nil {
		t.Fatal("failed record must not contain an upload result")
	}

	count, err := f.quota.DailyCount(context.Background(), client.ID, quota.DateKey(f.clock.Now()))
	if err != nil {
		t.Fatalf("DailyCount: %v", err)
	}
	if count != 0 {
		t.Fatalf("failed upload must release its quota slot, count=%d", count)
	}
}

func TestRunRecordWriteFailureIsAFailedRun(t *testing.T) {
	f := newFixture(t, nil)
	client := testsupport.Client("client_a")

	// Occupy the record path this run will use so the terminal write
	// cannot succeed.
	runsDir := runlog.RunsDir(f.cfg.Paths.DataDir, client.ID)
	if err := os.MkdirAll(runsDir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	existing := filepath.Join(runsDir, "run_2026-08-29T09-00-00.json")
	if err := os.WriteFile(existing, []byte("{}\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	result, err := f.runner.RunOnce(context.Background(), client, pipeline.RunOptions{})
	if err == nil {
		t.Fatal("expected failure when the run record cannot be written")
	}
	if !strings.Contains(err.Error(), "write run record") {
		t.Fatalf("error does not name the record write failure: %v", err)
	}
	if result.Status != "failed" {
		t.Fatalf("expected failed status, got %s", result.Status)
	}

	counts := metricEvents(t, f.cfg)
	if counts[runlog.EventRunCompleted] != 0 {
		t.Fatalf("run_completed metric emitted for an unrecorded run")
	}
	if counts[runlog.EventRunFailed] != 1 {
		t.Fatalf("expected one run_failed metric, got %d", counts[runlog.EventRunFailed])
	}
}

func TestRunsForDifferentClientsStayIsolated(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	clientA := testsupport.Client("client_a")
	clientB := testsupport.Client("client_b")

	resultA, err := f.runner.RunOnce(ctx, clientA, pipeline.RunOptions{})
	if err != nil {
		t.Fatalf("run for client_a: %v", err)
	}
	f.clock.Advance(time.Minute)
	resultB, err := f.runner.RunOnce(ctx, clientB, pipeline.RunOptions{})
	if err != nil {
		t.Fatalf("run for client_b: %v", err)
	}

	if !strings.Contains(resultA.Audio.Path, "client_a") || !strings.Contains(resultB.Audio.Path, "client_b") {
		t.Fatal("audio artifacts not isolated per client")
	}
	if !strings.Contains(resultA.Video.Path, "client_a") || !strings.Contains(resultB.Video.Path, "client_b") {
		t.Fatal("video artifacts not isolated per client")
	}

	runsA, err := runlog.ListRuns(f.cfg.Paths.DataDir, "client_a", 10)
	if err != nil {
		t.Fatalf("ListRuns client_a: %v", err)
	}
	runsB, err := runlog.ListRuns(f.cfg.Paths.DataDir, "client_b", 10)
	if err != nil {
		t.Fatalf("ListRuns client_b: %v", err)
	}
	if len(runsA) != 1 || len(runsB) != 1 {
		t.Fatalf("expected one run each, got %d and %d", len(runsA), len(runsB))
	}

	jobsA, err := f.jobs.ListRecent(ctx, 10, "client_a")
	if err != nil {
		t.Fatalf("ListRecent client_a: %v", err)
	}
	if len(jobsA) != 1 || jobsA[0].ClientID != "client_a" {
		t.Fatalf("job listing not scoped to client: %+v", jobsA)
	}
}

func TestRunOnceStopsWhenContextCanceled(t *testing.T) {
	f := newFixture(t, func(cfg *config.Config) {
		// Force the stub render to stay processing so the poll loop runs.
		cfg.Stub.RenderDelayMS = 60_000
	})
	client := testsupport.Client("client_a")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.runner.RunOnce(ctx, client, pipeline.RunOptions{})
	if err == nil {
		t.Fatal("expected failure with canceled context")
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled in chain, got %v", err)
	}
}

func TestPrivacyOverrideReachesUploader(t *testing.T) {
	f := newFixture(t, nil)
	client := testsupport.Client("client_a")

	result, err := f.runner.RunOnce(context.Background(), client, pipeline.RunOptions{
		PrivacyOverride: media.PrivacyPublic,
	})
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	manifestPath, ok := result.Upload.Meta["uploadLogPath"].(string)
	if !ok {
		t.Fatalf("missing manifest path: %v", result.Upload.Meta)
	}
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	if !strings.Contains(string(data), `"privacyStatus": "public"`) {
		t.Fatalf("privacy override not applied: %s", data)
	}
}

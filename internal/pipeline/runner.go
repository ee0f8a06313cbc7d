// Package pipeline orchestrates one content run: script, quality gate,
// voice, render, download, and upload, with durable run records and
// metrics.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"shortforge/internal/clients"
	"shortforge/internal/config"
	"shortforge/internal/jobs"
	"shortforge/internal/logging"
	"shortforge/internal/media"
	"shortforge/internal/notifications"
	"shortforge/internal/providers"
	"shortforge/internal/quality"
	"shortforge/internal/quota"
	"shortforge/internal/retry"
	"shortforge/internal/runlog"
	"shortforge/internal/services"
	"shortforge/internal/topics"
)

// runIDFormat renders the start timestamp into a filename-safe run id.
const runIDFormat = "2006-01-02T15-04-05"

// ProviderResolver hands out the provider set for a client.
type ProviderResolver interface {
	ForClient(client clients.Profile) providers.Set
}

// Runner executes content runs for clients.
type Runner struct {
	cfg      *config.Config
	resolver ProviderResolver
	jobs     *jobs.Store
	quota    *quota.Store
	notifier notifications.Service
	logger   *slog.Logger

	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

// Option customizes a Runner.
type Option func(*Runner)

// WithClock replaces the time source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// WithSleeper replaces the poll sleep, used by tests.
func WithSleeper(sleep func(context.Context, time.Duration) error) Option {
	return func(r *Runner) { r.sleep = sleep }
}

// NewRunner wires a Runner from its stores and services.
func NewRunner(cfg *config.Config, resolver ProviderResolver, jobStore *jobs.Store, quotaStore *quota.Store, notifier notifications.Service, logger *slog.Logger, opts ...Option) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	r := &Runner{
		cfg:      cfg,
		resolver: resolver,
		jobs:     jobStore,
		quota:    quotaStore,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
		sleep:    sleepCtx,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunOptions carries per-run overrides.
type RunOptions struct {
	TopicOverride   string
	PrivacyOverride media.PrivacyStatus
}

// Result summarizes a finished run. Status mirrors the run record.
type Result struct {
	Status     string
	RunID      string
	ClientID   string
	Topic      string
	StartedAt  time.Time
	FinishedAt time.Time
	Script     *media.Script
	Audio      *media.AudioAsset
	Job        *jobs.Job
	Video      *media.VideoAsset
	Upload     *media.UploadResult
	RunLogPath string
}

// RunOnce executes the full pipeline for one client. A terminal run record
// and metric are written exactly once whether the run completes or fails;
// on failure the returned error names the run log path.
func (r *Runner) RunOnce(ctx context.Context, client clients.Profile, opts RunOptions) (Result, error) {
	startedAt := r.now().UTC()
	runID := startedAt.Format(runIDFormat)

	ctx = services.WithClientID(ctx, client.ID)
	ctx = services.WithRunID(ctx, runID)
	log := r.logger.With(logging.String(logging.FieldClientID, client.ID), logging.String(logging.FieldRunID, runID))

	topic := opts.TopicOverride
	if topic == "" {
		topic = topics.Select(client, r.todayInTimezone(client))
	}

	result := Result{
		Status:    "failed",
		RunID:     runID,
		ClientID:  client.ID,
		Topic:     topic,
		StartedAt: startedAt,
	}

	log.Info("run started", logging.String("topic", topic))
	r.appendMetric(log, runlog.Event{
		Event:     runlog.EventRunStarted,
		Timestamp: startedAt,
		ClientID:  client.ID,
		RunID:     runID,
		Extra:     map[string]any{"topic": topic},
	})

	runErr := r.execute(ctx, client, opts, log, &result)

	finishedAt := r.now().UTC()
	result.FinishedAt = finishedAt
	durationMS := finishedAt.Sub(startedAt).Milliseconds()

	record := runlog.Record{
		RunID:      runID,
		ClientID:   client.ID,
		Topic:      topic,
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
		Timestamp:  finishedAt,
		DurationMS: durationMS,
		Script:     result.Script,
		Audio:      result.Audio,
		Job:        result.Job,
		Video:      result.Video,
		Upload:     result.Upload,
	}

	if runErr == nil {
		record.Status = "completed"
		path, err := runlog.WriteRecord(r.cfg.Paths.DataDir, record)
		if err == nil {
			result.Status = "completed"
			result.RunLogPath = path

			r.appendMetric(log, runlog.Event{
				Event:     runlog.EventRunCompleted,
				Timestamp: finishedAt,
				ClientID:  client.ID,
				RunID:     runID,
				Extra:     map[string]any{"topic": topic, "durationMs": durationMS},
			})
			log.Info("run completed", logging.String("topic", topic), logging.Int64("duration_ms", durationMS))

			videoURL := ""
			if result.Upload != nil {
				videoURL = result.Upload.URL
			}
			if err := r.notifier.NotifyRunCompleted(ctx, client.ID, topic, videoURL, finishedAt.Sub(startedAt)); err != nil {
				log.Warn("run completion notification failed", logging.Error(err))
			}
			return result, nil
		}
		// A run whose record cannot be persisted is a failed run.
		runErr = fmt.Errorf("write run record: %w", err)
	}

	record.Status = "failed"
	record.Error = &runlog.RunError{Message: runErr.Error()}
	path, writeErr := runlog.WriteRecord(r.cfg.Paths.DataDir, record)
	if writeErr != nil {
		log.Error("failed to write run record", logging.Error(writeErr))
	}
	result.RunLogPath = path

	r.appendMetric(log, runlog.Event{
		Event:     runlog.EventRunFailed,
		Timestamp: finishedAt,
		ClientID:  client.ID,
		RunID:     runID,
		Extra:     map[string]any{"topic": topic, "durationMs": durationMS, "error": runErr.Error()},
	})
	log.Error("run failed", logging.String("topic", topic), logging.Error(runErr))

	if services.IsQuotaExceeded(runErr) {
		if err := r.notifier.NotifyQuotaExhausted(ctx, client.ID, client.MaxUploadsPerDay); err != nil {
			log.Warn("quota notification failed", logging.Error(err))
		}
	} else if err := r.notifier.NotifyRunFailed(ctx, client.ID, topic, runErr); err != nil {
		log.Warn("run failure notification failed", logging.Error(err))
	}

	return result, fmt.Errorf("daily short run failed for client %s (run log: %s): %w", client.ID, path, runErr)
}

// execute walks the stages, filling result as artifacts are produced so
// the terminal record reflects partial progress on failure.
func (r *Runner) execute(ctx context.Context, client clients.Profile, opts RunOptions, log *slog.Logger, result *Result) error {
	set := r.resolver.ForClient(client)

	log.Info("writing script", logging.String(logging.FieldStage, "script"))
	script, err := set.Writer.WriteScript(services.WithStage(ctx, "script"), client, result.Topic)
	if err != nil {
		return fmt.Errorf("write script: %w", err)
	}
	if gate := quality.Validate(script); !gate.OK {
		log.Info("script failed quality gate, applying fixup",
			logging.String(logging.FieldStage, "script"),
			logging.Int("issues", len(gate.Issues)))
		script = quality.Fixup(script, gate.Issues)
	}
	result.Script = &script

	log.Info("synthesizing voice", logging.String(logging.FieldStage, "voice"))
	var audio media.AudioAsset
	err = retry.Do(services.WithStage(ctx, "voice"), retry.Policy{
		Attempts: 3,
		MinDelay: 250 * time.Millisecond,
		MaxDelay: 2 * time.Second,
	}, func(ctx context.Context) error {
		var synthErr error
		audio, synthErr = set.Voice.Synthesize(ctx, client, script)
		return synthErr
	}, retry.WithSleeper(r.sleep))
	if err != nil {
		return fmt.Errorf("synthesize voice: %w", err)
	}
	result.Audio = &audio

	log.Info("submitting render job", logging.String(logging.FieldStage, "render"))
	var job jobs.Job
	err = retry.Do(services.WithStage(ctx, "render"), retry.Policy{
		Attempts: 2,
		MinDelay: 500 * time.Millisecond,
		MaxDelay: 2 * time.Second,
	}, func(ctx context.Context) error {
		var renderErr error
		job, renderErr = set.Renderer.Render(ctx, client, audio, script)
		return renderErr
	}, retry.WithSleeper(r.sleep))
	if err != nil {
		return fmt.Errorf("submit render job: %w", err)
	}
	result.Job = &job

	if err := r.persistJob(ctx, job); err != nil {
		return fmt.Errorf("persist render job: %w", err)
	}

	log.Info("polling render job", logging.String(logging.FieldStage, "render"), logging.String(logging.FieldJobID, job.ID))
	job, err = r.pollForCompletedJob(services.WithStage(ctx, "render"), client, set.Renderer, job.ID)
	if err != nil {
		return err
	}
	result.Job = &job

	log.Info("downloading rendered video", logging.String(logging.FieldStage, "render"), logging.String(logging.FieldJobID, job.ID))
	video, err := set.Renderer.Download(services.WithStage(ctx, "render"), client, job.ID)
	if err != nil {
		return fmt.Errorf("download video: %w", err)
	}
	result.Video = &video

	dateKey := quota.DateKey(r.now())
	count, acquired, err := r.quota.Acquire(ctx, client.ID, dateKey, client.MaxUploadsPerDay)
	if err != nil {
		return fmt.Errorf("reserve upload slot: %w", err)
	}
	if !acquired {
		return services.Wrap(services.ErrQuotaExceeded, "upload", "quota.acquire",
			fmt.Sprintf("quota exceeded for client %s: %d of %d uploads used today", client.ID, count, client.MaxUploadsPerDay), nil)
	}

	log.Info("uploading short", logging.String(logging.FieldStage, "upload"))
	r.appendMetric(log, runlog.Event{
		Event:     runlog.EventUploadAttempted,
		Timestamp: r.now().UTC(),
		ClientID:  client.ID,
		RunID:     result.RunID,
		Extra:     map[string]any{"topic": result.Topic},
	})

	uploadOpts := media.UploadOptions{
		PrivacyStatus: client.PrivacyDefault(),
		MadeForKids:   client.Upload.MadeForKids,
	}
	if opts.PrivacyOverride != "" {
		uploadOpts.PrivacyStatus = opts.PrivacyOverride
	}

	var upload media.UploadResult
	err = retry.Do(services.WithStage(ctx, "upload"), retry.Policy{
		Attempts:    2,
		MinDelay:    500 * time.Millisecond,
		MaxDelay:    2 * time.Second,
		ShouldRetry: services.Retryable,
	}, func(ctx context.Context) error {
		var uploadErr error
		upload, uploadErr = set.Uploader.UploadShort(ctx, client, video, script, uploadOpts)
		return uploadErr
	}, retry.WithSleeper(r.sleep))
	if err != nil {
		if releaseErr := r.quota.Release(ctx, client.ID, dateKey); releaseErr != nil {
			log.Warn("failed to release upload slot", logging.Error(releaseErr))
		}
		return fmt.Errorf("upload short: %w", err)
	}
	result.Upload = &upload
	return nil
}

// persistJob saves a freshly submitted job unless the renderer already
// registered it in the shared store.
func (r *Runner) persistJob(ctx context.Context, job jobs.Job) error {
	_, err := r.jobs.Get(ctx, job.ID)
	if errors.Is(err, services.ErrNotFound) {
		return r.jobs.Save(ctx, job)
	}
	return err
}

func (r *Runner) pollForCompletedJob(ctx context.Context, client clients.Profile, renderer providers.AvatarRenderer, jobID string) (jobs.Job, error) {
	timeout := r.cfg.RenderTimeout()
	interval := r.cfg.RenderPollInterval()
	start := r.now()

	for r.now().Sub(start) <= timeout {
		if err := ctx.Err(); err != nil {
			return jobs.Job{}, err
		}

		job, err := renderer.Status(ctx, client, jobID)
		if err != nil {
			return jobs.Job{}, fmt.Errorf("render status: %w", err)
		}
		if err := r.jobs.Update(ctx, job); err != nil {
			return jobs.Job{}, fmt.Errorf("record render status: %w", err)
		}

		switch job.Status {
		case jobs.StatusCompleted:
			return job, nil
		case jobs.StatusFailed:
			detail := job.ID
			if job.Error != "" {
				detail = fmt.Sprintf("%s (%s)", job.ID, job.Error)
			}
			return jobs.Job{}, services.Wrap(services.ErrRenderFailed, "render", "render.poll",
				"render job failed: "+detail, nil)
		}

		if err := r.sleep(ctx, interval); err != nil {
			return jobs.Job{}, err
		}
	}

	return jobs.Job{}, services.Wrap(services.ErrTimeout, "render", "render.poll",
		fmt.Sprintf("render job timed out after %s: %s", timeout, jobID), nil)
}

// todayInTimezone returns the client's current calendar date as a UTC
// midnight timestamp, so day-based topic selection follows the client's
// local day.
func (r *Runner) todayInTimezone(client clients.Profile) time.Time {
	loc, err := time.LoadLocation(client.TimezoneOr(r.cfg.Scheduler.DefaultTimezone))
	if err != nil {
		loc = time.UTC
	}
	year, month, day := r.now().In(loc).Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func (r *Runner) appendMetric(log *slog.Logger, event runlog.Event) {
	if err := runlog.AppendMetric(r.cfg.Paths.DataDir, event); err != nil {
		log.Warn("failed to append metric", logging.String(logging.FieldEventType, event.Event), logging.Error(err))
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

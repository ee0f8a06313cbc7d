package stub

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"shortforge/internal/clients"
	"shortforge/internal/jobs"
	"shortforge/internal/media"
	"shortforge/internal/services"
)

// Renderer simulates an avatar render provider. Jobs complete after a fixed
// delay measured from submission.
type Renderer struct {
	dataDir         string
	store           *jobs.Store
	completionDelay time.Duration
	now             func() time.Time
}

// NewRenderer returns a stub renderer persisting job state in store.
func NewRenderer(dataDir string, store *jobs.Store, completionDelay time.Duration, opts ...RendererOption) *Renderer {
	r := &Renderer{
		dataDir:         dataDir,
		store:           store,
		completionDelay: completionDelay,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RendererOption customizes a stub renderer.
type RendererOption func(*Renderer)

// WithRendererClock replaces the time source, used by tests.
func WithRendererClock(now func() time.Time) RendererOption {
	return func(r *Renderer) { r.now = now }
}

// Render registers a new processing job and returns it.
func (r *Renderer) Render(ctx context.Context, client clients.Profile, _ media.AudioAsset, _ media.Script) (jobs.Job, error) {
	now := r.now().UTC()
	job := jobs.Job{
		ID:        uuid.NewString(),
		ClientID:  client.ID,
		Provider:  "stub",
		Status:    jobs.StatusProcessing,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.store.Save(ctx, job); err != nil {
		return jobs.Job{}, err
	}
	return job, nil
}

// Status reports the job state, flipping to completed once the completion
// delay has elapsed since submission.
func (r *Renderer) Status(ctx context.Context, client clients.Profile, jobID string) (jobs.Job, error) {
	job, err := r.ownedJob(ctx, client.ID, jobID)
	if err != nil {
		return jobs.Job{}, err
	}

	if job.Status != jobs.StatusCompleted && r.now().Sub(job.CreatedAt) >= r.completionDelay {
		job.Status = jobs.StatusCompleted
		job.UpdatedAt = r.now().UTC()
		if err := r.store.Update(ctx, job); err != nil {
			return jobs.Job{}, err
		}
	}
	return job, nil
}

// Download writes a placeholder video for a completed job and returns it.
func (r *Renderer) Download(ctx context.Context, client clients.Profile, jobID string) (media.VideoAsset, error) {
	job, err := r.ownedJob(ctx, client.ID, jobID)
	if err != nil {
		return media.VideoAsset{}, err
	}

	videoDir := media.VideoDir(r.dataDir, client.ID)
	if err := os.MkdirAll(videoDir, 0o755); err != nil {
		return media.VideoAsset{}, fmt.Errorf("create video directory: %w", err)
	}
	videoPath := filepath.Join(videoDir, "video_"+job.ID+".mp4")
	if err := os.WriteFile(videoPath, []byte("stub video placeholder"), 0o644); err != nil {
		return media.VideoAsset{}, fmt.Errorf("write stub video: %w", err)
	}

	return media.VideoAsset{
		Path:        videoPath,
		MimeType:    "video/mp4",
		Width:       1080,
		Height:      1920,
		DurationSec: 55,
	}, nil
}

// ownedJob fetches a job and enforces that it belongs to the client.
func (r *Renderer) ownedJob(ctx context.Context, clientID, jobID string) (jobs.Job, error) {
	job, err := r.store.Get(ctx, jobID)
	if err != nil {
		return jobs.Job{}, err
	}
	if job.ClientID != clientID {
		return jobs.Job{}, services.Wrap(services.ErrNotFound, "", "stub.renderer",
			fmt.Sprintf("render job not found for client %s: %s", clientID, jobID), nil)
	}
	return job, nil
}

// Package providers defines the provider contracts the pipeline drives:
// script writing, voice synthesis, avatar rendering, and uploading.
package providers

import (
	"context"

	"shortforge/internal/clients"
	"shortforge/internal/jobs"
	"shortforge/internal/media"
)

// ScriptWriter produces a script for a client and topic.
type ScriptWriter interface {
	WriteScript(ctx context.Context, client clients.Profile, topic string) (media.Script, error)
}

// VoiceSynth turns a script into a narration audio asset.
type VoiceSynth interface {
	Synthesize(ctx context.Context, client clients.Profile, script media.Script) (media.AudioAsset, error)
}

// AvatarRenderer submits render jobs and serves their status and output.
type AvatarRenderer interface {
	Render(ctx context.Context, client clients.Profile, audio media.AudioAsset, script media.Script) (jobs.Job, error)
	Status(ctx context.Context, client clients.Profile, jobID string) (jobs.Job, error)
	Download(ctx context.Context, client clients.Profile, jobID string) (media.VideoAsset, error)
}

// Uploader publishes a rendered video.
type Uploader interface {
	UploadShort(ctx context.Context, client clients.Profile, video media.VideoAsset, script media.Script, opts media.UploadOptions) (media.UploadResult, error)
}

// Set bundles the four providers a run needs.
type Set struct {
	Writer   ScriptWriter
	Voice    VoiceSynth
	Renderer AvatarRenderer
	Uploader Uploader
}

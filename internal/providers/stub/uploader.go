package stub

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	mrand "math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"shortforge/internal/clients"
	"shortforge/internal/media"
)

// Uploader simulates an upload provider. Every attempt writes a manifest;
// a configurable fraction of attempts then fail.
type Uploader struct {
	dataDir  string
	failRate float64
	now      func() time.Time
	randf    func() float64
}

// NewUploader returns a stub uploader writing manifests under dataDir.
func NewUploader(dataDir string, failRate float64, opts ...UploaderOption) *Uploader {
	u := &Uploader{
		dataDir:  dataDir,
		failRate: failRate,
		now:      time.Now,
		randf:    mrand.Float64,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// UploaderOption customizes a stub uploader.
type UploaderOption func(*Uploader)

// WithUploaderClock replaces the timestamp source, used by tests.
func WithUploaderClock(now func() time.Time) UploaderOption {
	return func(u *Uploader) { u.now = now }
}

// WithUploaderRand replaces the failure dice, used by tests.
func WithUploaderRand(randf func() float64) UploaderOption {
	return func(u *Uploader) { u.randf = randf }
}

// UploadShort records the manifest and returns a synthetic video id, or a
// simulated failure per the configured rate.
func (u *Uploader) UploadShort(_ context.Context, client clients.Profile, video media.VideoAsset, script media.Script, opts media.UploadOptions) (media.UploadResult, error) {
	uploadsDir := media.UploadsDir(u.dataDir, client.ID)
	if err := os.MkdirAll(uploadsDir, 0o755); err != nil {
		return media.UploadResult{}, fmt.Errorf("create uploads directory: %w", err)
	}

	privacy := opts.PrivacyStatus
	if privacy == "" {
		privacy = media.PrivacyPrivate
	}
	title := "Untitled Short"
	if len(script.TitleSuggestions) > 0 {
		title = script.TitleSuggestions[0]
	}

	manifest := map[string]any{
		"clientId":    client.ID,
		"title":       title,
		"description": script.Description,
		"tags":        script.Tags,
		"videoPath":   video.Path,
		"opts": map[string]any{
			"privacyStatus": privacy,
			"madeForKids":   opts.MadeForKids,
		},
	}

	timestamp := u.now().UTC().Format(time.RFC3339Nano)
	safeTimestamp := strings.NewReplacer(":", "-", ".", "-").Replace(timestamp)
	manifestPath := filepath.Join(uploadsDir, "uploaded_"+safeTimestamp+".json")

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return media.UploadResult{}, fmt.Errorf("encode upload manifest: %w", err)
	}
	if err := os.WriteFile(manifestPath, append(data, '\n'), 0o644); err != nil {
		return media.UploadResult{}, fmt.Errorf("write upload manifest: %w", err)
	}

	if u.randf() < u.failRate {
		return media.UploadResult{}, fmt.Errorf("simulated uploader failure for client %s at fail rate %v", client.ID, u.failRate)
	}

	videoID := "stub_" + randomHex(8)
	return media.UploadResult{
		VideoID:  videoID,
		URL:      "https://youtube.com/watch?v=" + videoID,
		Provider: "stub",
		Meta: map[string]any{
			"uploadLogPath": manifestPath,
		},
	}, nil
}

func randomHex(bytes int) string {
	buf := make([]byte, bytes)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand only fails when the platform entropy source is
		// broken; fall back to a timestamp suffix.
		return fmt.Sprintf("%x", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}

package stub

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"shortforge/internal/clients"
	"shortforge/internal/media"
)

// id3Header is the placeholder MP3 payload written by the stub.
var id3Header = []byte{'I', 'D', '3', 0x04, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}

// Voice writes a placeholder MP3 plus a JSON sidecar describing what a real
// synthesizer would have received.
type Voice struct {
	dataDir string
	now     func() time.Time
}

// NewVoice returns a stub voice synthesizer writing under dataDir.
func NewVoice(dataDir string, opts ...VoiceOption) *Voice {
	v := &Voice{dataDir: dataDir, now: time.Now}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// VoiceOption customizes a stub voice synthesizer.
type VoiceOption func(*Voice)

// WithVoiceClock replaces the timestamp source, used by tests.
func WithVoiceClock(now func() time.Time) VoiceOption {
	return func(v *Voice) { v.now = now }
}

// Synthesize writes the placeholder audio and sidecar for the script.
func (v *Voice) Synthesize(_ context.Context, client clients.Profile, script media.Script) (media.AudioAsset, error) {
	audioDir := media.AudioDir(v.dataDir, client.ID)
	if err := os.MkdirAll(audioDir, 0o755); err != nil {
		return media.AudioAsset{}, fmt.Errorf("create audio directory: %w", err)
	}

	slug := script.Topic
	if slug == "" {
		slug = script.Hook
	}
	if slug == "" {
		slug = "script"
	}
	fileName := fmt.Sprintf("audio_%d_%s.mp3", v.now().UnixMilli(), slugify(slug))
	audioPath := filepath.Join(audioDir, fileName)
	sidecarPath := audioPath + ".json"

	if err := os.WriteFile(audioPath, id3Header, 0o644); err != nil {
		return media.AudioAsset{}, fmt.Errorf("write stub audio: %w", err)
	}

	sidecar := map[string]any{
		"clientId": client.ID,
		"voice": map[string]any{
			"provider": client.Voice.Provider,
			"voiceId":  client.Voice.VoiceID,
		},
		"script": script.Text(),
	}
	data, err := json.MarshalIndent(sidecar, "", "  ")
	if err != nil {
		return media.AudioAsset{}, fmt.Errorf("encode audio sidecar: %w", err)
	}
	if err := os.WriteFile(sidecarPath, append(data, '\n'), 0o644); err != nil {
		return media.AudioAsset{}, fmt.Errorf("write audio sidecar: %w", err)
	}

	return media.AudioAsset{
		Path:     audioPath,
		MimeType: "audio/mpeg",
		Meta: map[string]any{
			"stub":        true,
			"sidecarPath": sidecarPath,
		},
	}, nil
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(value string) string {
	slug := slugPattern.ReplaceAllString(strings.ToLower(value), "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > 80 {
		slug = slug[:80]
	}
	return slug
}

package media

import (
	"strings"
	"time"
)

// Tone describes the narration register a client publishes in.
type Tone string

const (
	ToneEducational  Tone = "educational"
	ToneCasual       Tone = "casual"
	ToneProfessional Tone = "professional"
)

// ParseTone converts a string into a known Tone, defaulting to educational.
func ParseTone(value string) (Tone, bool) {
	normalized := Tone(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case ToneEducational, ToneCasual, ToneProfessional:
		return normalized, true
	}
	return ToneEducational, false
}

// Valid reports whether the tone is one of the known registers.
func (t Tone) Valid() bool {
	switch t {
	case ToneEducational, ToneCasual, ToneProfessional:
		return true
	}
	return false
}

// PrivacyStatus controls upload visibility.
type PrivacyStatus string

const (
	PrivacyPublic   PrivacyStatus = "public"
	PrivacyUnlisted PrivacyStatus = "unlisted"
	PrivacyPrivate  PrivacyStatus = "private"
)

// ParsePrivacyStatus converts a string into a known PrivacyStatus.
func ParsePrivacyStatus(value string) (PrivacyStatus, bool) {
	normalized := PrivacyStatus(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case PrivacyPublic, PrivacyUnlisted, PrivacyPrivate:
		return normalized, true
	}
	return "", false
}

// Valid reports whether the status is one of the known visibilities.
func (p PrivacyStatus) Valid() bool {
	switch p {
	case PrivacyPublic, PrivacyUnlisted, PrivacyPrivate:
		return true
	}
	return false
}

// Script is the narration content produced fresh for each run. It is never
// persisted standalone; the run record embeds a snapshot.
type Script struct {
	Topic             string   `json:"topic"`
	Niche             string   `json:"niche"`
	Language          string   `json:"language"`
	Tone              Tone     `json:"tone"`
	Hook              string   `json:"hook"`
	Body              string   `json:"body"`
	CTA               string   `json:"cta"`
	TitleSuggestions  []string `json:"titleSuggestions"`
	Description       string   `json:"description"`
	Tags              []string `json:"tags"`
	DurationSecTarget int      `json:"durationSecTarget"`
}

// Text returns hook, body, and CTA joined for narration or word counting.
func (s Script) Text() string {
	parts := make([]string, 0, 3)
	for _, part := range []string{s.Hook, s.Body, s.CTA} {
		if strings.TrimSpace(part) != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, "\n\n")
}

// AudioAsset is a synthesized narration file. Owned by the run that created
// it; never shared across runs.
type AudioAsset struct {
	Path        string         `json:"path"`
	MimeType    string         `json:"mimeType"`
	DurationSec float64        `json:"durationSec,omitempty"`
	Meta        map[string]any `json:"meta,omitempty"`
}

// VideoAsset is a rendered video file downloaded from a render provider.
type VideoAsset struct {
	Path        string         `json:"path"`
	MimeType    string         `json:"mimeType"`
	Width       int            `json:"width,omitempty"`
	Height      int            `json:"height,omitempty"`
	DurationSec float64        `json:"durationSec,omitempty"`
	Meta        map[string]any `json:"meta,omitempty"`
}

// UploadOptions carries per-upload publishing settings.
type UploadOptions struct {
	PrivacyStatus PrivacyStatus
	PublishAt     *time.Time
	MadeForKids   bool
}

// UploadResult identifies a published video on the upload provider.
type UploadResult struct {
	VideoID  string         `json:"videoId"`
	URL      string         `json:"url"`
	Provider string         `json:"provider"`
	Meta     map[string]any `json:"meta,omitempty"`
}

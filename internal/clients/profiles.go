package clients

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"shortforge/internal/media"
)

// TopicSelectionMode picks how the daily topic is chosen from the bank.
type TopicSelectionMode string

const (
	// SelectRotate indexes the bank by day of year.
	SelectRotate TopicSelectionMode = "rotate"
	// SelectRandom picks deterministically from a (clientId, date) seed.
	SelectRandom TopicSelectionMode = "random"
	// SelectCalendar matches "YYYY-MM-DD|topic" entries by date, rotating
	// over plain entries when no date matches.
	SelectCalendar TopicSelectionMode = "calendar"
)

// Schedule configures when and how often a client runs.
type Schedule struct {
	RunDailyAt string `json:"runDailyAt"`
	Timezone   string `json:"timezone,omitempty"`
	MaxPerDay  int    `json:"maxPerDay"`
}

// VoiceBinding names the voice provider and its provider-specific voice.
type VoiceBinding struct {
	Provider string `json:"provider"`
	VoiceID  string `json:"voiceId"`
}

// AvatarBinding names the render provider and its provider-specific avatar.
type AvatarBinding struct {
	Provider string `json:"provider"`
	AvatarID string `json:"avatarId"`
}

// UploadBinding names the upload provider, target channel, and publishing
// defaults.
type UploadBinding struct {
	Provider             string              `json:"provider"`
	ChannelID            string              `json:"channelId"`
	DefaultPrivacyStatus media.PrivacyStatus `json:"defaultPrivacyStatus,omitempty"`
	MadeForKids          bool                `json:"madeForKids,omitempty"`
}

// Profile is one configured content pipeline. Profiles are immutable during
// a run; the orchestrator only reads them.
type Profile struct {
	ID                 string             `json:"id"`
	DisplayName        string             `json:"name"`
	Niche              string             `json:"niche"`
	Language           string             `json:"language,omitempty"`
	Tone               media.Tone         `json:"tone,omitempty"`
	TopicBank          []string           `json:"topics"`
	TopicSelectionMode TopicSelectionMode `json:"topicSelectionMode,omitempty"`
	Schedule           Schedule           `json:"schedule"`
	MaxUploadsPerDay   int                `json:"maxUploadsPerDay"`
	Voice              VoiceBinding       `json:"voice"`
	Avatar             AvatarBinding      `json:"avatar"`
	Upload             UploadBinding      `json:"youtube"`
}

// PrivacyDefault returns the configured default privacy, or private.
func (p Profile) PrivacyDefault() media.PrivacyStatus {
	if p.Upload.DefaultPrivacyStatus != "" {
		return p.Upload.DefaultPrivacyStatus
	}
	return media.PrivacyPrivate
}

// TimezoneOr returns the schedule timezone, or fallback when unset.
func (p Profile) TimezoneOr(fallback string) string {
	if p.Schedule.Timezone != "" {
		return p.Schedule.Timezone
	}
	if fallback != "" {
		return fallback
	}
	return "UTC"
}

// Load reads and validates the client profiles file.
func Load(path string) ([]Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read clients file: %w", err)
	}

	var profiles []Profile
	if err := json.Unmarshal(data, &profiles); err != nil {
		return nil, fmt.Errorf("invalid JSON in clients file %s: %w", path, err)
	}

	for i := range profiles {
		applyDefaults(&profiles[i])
		if err := profiles[i].Validate(); err != nil {
			return nil, fmt.Errorf("clients file %s: %w", path, err)
		}
	}
	if err := checkUniqueIDs(profiles); err != nil {
		return nil, fmt.Errorf("clients file %s: %w", path, err)
	}
	return profiles, nil
}

// Save writes the profiles file, creating parent directories as needed.
func Save(path string, profiles []Profile) error {
	for i := range profiles {
		applyDefaults(&profiles[i])
		if err := profiles[i].Validate(); err != nil {
			return err
		}
	}
	if err := checkUniqueIDs(profiles); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create clients directory: %w", err)
	}
	data, err := json.MarshalIndent(profiles, "", "  ")
	if err != nil {
		return fmt.Errorf("encode clients: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write clients file: %w", err)
	}
	return nil
}

// ByID finds a profile by identifier.
func ByID(profiles []Profile, id string) (Profile, bool) {
	for _, profile := range profiles {
		if profile.ID == id {
			return profile, true
		}
	}
	return Profile{}, false
}

// EnsureFile creates an empty clients file when none exists so first runs
// fail with a clear "no clients configured" message instead of a read error.
func EnsureFile(path string) error {
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat clients file: %w", err)
	}
	return Save(path, []Profile{})
}

func applyDefaults(p *Profile) {
	if p.Language == "" {
		p.Language = "en-GB"
	}
	if p.Tone == "" {
		p.Tone = media.ToneEducational
	}
	if p.TopicSelectionMode == "" {
		p.TopicSelectionMode = SelectRotate
	}
	if p.Schedule.MaxPerDay == 0 {
		p.Schedule.MaxPerDay = 1
	}
	if p.MaxUploadsPerDay == 0 {
		p.MaxUploadsPerDay = 1
	}
}

func checkUniqueIDs(profiles []Profile) error {
	seen := make(map[string]struct{}, len(profiles))
	for _, profile := range profiles {
		if _, ok := seen[profile.ID]; ok {
			return fmt.Errorf("duplicate client id %q", profile.ID)
		}
		seen[profile.ID] = struct{}{}
	}
	return nil
}

package clients

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var idPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// Validate checks a profile for the fields a run cannot proceed without.
func (p Profile) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("client id must not be empty")
	}
	if !idPattern.MatchString(p.ID) {
		return fmt.Errorf("client id %q must be lowercase alphanumeric with - or _", p.ID)
	}
	if strings.TrimSpace(p.DisplayName) == "" {
		return fmt.Errorf("client %s: name must not be empty", p.ID)
	}
	if strings.TrimSpace(p.Niche) == "" {
		return fmt.Errorf("client %s: niche must not be empty", p.ID)
	}
	if !p.Tone.Valid() {
		return fmt.Errorf("client %s: unknown tone %q", p.ID, p.Tone)
	}
	switch p.TopicSelectionMode {
	case SelectRotate, SelectRandom, SelectCalendar:
	default:
		return fmt.Errorf("client %s: unknown topic selection mode %q", p.ID, p.TopicSelectionMode)
	}
	if p.Schedule.MaxPerDay < 0 {
		return fmt.Errorf("client %s: schedule maxPerDay must not be negative", p.ID)
	}
	if p.MaxUploadsPerDay < 0 {
		return fmt.Errorf("client %s: maxUploadsPerDay must not be negative", p.ID)
	}
	if p.Schedule.Timezone != "" {
		if _, err := time.LoadLocation(p.Schedule.Timezone); err != nil {
			return fmt.Errorf("client %s: timezone %q: %w", p.ID, p.Schedule.Timezone, err)
		}
	}
	if p.Upload.DefaultPrivacyStatus != "" && !p.Upload.DefaultPrivacyStatus.Valid() {
		return fmt.Errorf("client %s: unknown privacy status %q", p.ID, p.Upload.DefaultPrivacyStatus)
	}
	if p.Voice.Provider == "" {
		return fmt.Errorf("client %s: voice provider must not be empty", p.ID)
	}
	if p.Avatar.Provider == "" {
		return fmt.Errorf("client %s: avatar provider must not be empty", p.ID)
	}
	if p.Upload.Provider == "" {
		return fmt.Errorf("client %s: upload provider must not be empty", p.ID)
	}
	return nil
}

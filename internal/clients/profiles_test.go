package clients_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"shortforge/internal/clients"
	"shortforge/internal/media"
)

func validProfile(id string) clients.Profile {
	return clients.Profile{
		ID:          id,
		DisplayName: "Test Client",
		Niche:       "personal finance",
		TopicBank:   []string{"budgeting basics", "emergency funds"},
		Schedule:    clients.Schedule{RunDailyAt: "0 9 * * *", MaxPerDay: 1},
		Voice:       clients.VoiceBinding{Provider: "stub", VoiceID: "v1"},
		Avatar:      clients.AvatarBinding{Provider: "stub", AvatarID: "a1"},
		Upload:      clients.UploadBinding{Provider: "stub", ChannelID: "c1"},
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clients.json")
	payload := `[{
		"id": "finance_uk",
		"name": "Finance UK",
		"niche": "personal finance",
		"topics": ["a", "b"],
		"schedule": {"runDailyAt": "0 9 * * *"},
		"voice": {"provider": "stub", "voiceId": "v"},
		"avatar": {"provider": "stub", "avatarId": "a"},
		"youtube": {"provider": "stub", "channelId": "c"}
	}]`
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("write clients file: %v", err)
	}

	profiles, err := clients.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(profiles) != 1 {
		t.Fatalf("expected 1 profile, got %d", len(profiles))
	}
	p := profiles[0]
	if p.Language != "en-GB" {
		t.Errorf("expected default language en-GB, got %q", p.Language)
	}
	if p.Tone != media.ToneEducational {
		t.Errorf("expected default tone educational, got %q", p.Tone)
	}
	if p.TopicSelectionMode != clients.SelectRotate {
		t.Errorf("expected default selection mode rotate, got %q", p.TopicSelectionMode)
	}
	if p.MaxUploadsPerDay != 1 {
		t.Errorf("expected default maxUploadsPerDay 1, got %d", p.MaxUploadsPerDay)
	}
	if p.PrivacyDefault() != media.PrivacyPrivate {
		t.Errorf("expected private default privacy, got %q", p.PrivacyDefault())
	}
}

func TestLoadRejectsDuplicateIDs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clients.json")
	if err := clients.Save(path, []clients.Profile{validProfile("dup"), validProfile("other")}); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	profiles := []clients.Profile{validProfile("dup"), validProfile("dup")}
	if err := clients.Save(path, profiles); err == nil {
		t.Fatal("expected duplicate id error, got nil")
	} else if !strings.Contains(err.Error(), "duplicate client id") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRejectsBadFields(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*clients.Profile)
		want   string
	}{
		{"empty id", func(p *clients.Profile) { p.ID = "" }, "id must not be empty"},
		{"uppercase id", func(p *clients.Profile) { p.ID = "Finance" }, "lowercase"},
		{"empty niche", func(p *clients.Profile) { p.Niche = "" }, "niche"},
		{"bad tone", func(p *clients.Profile) { p.Tone = "shouty" }, "tone"},
		{"bad mode", func(p *clients.Profile) { p.TopicSelectionMode = "oracle" }, "selection mode"},
		{"bad timezone", func(p *clients.Profile) { p.Schedule.Timezone = "Mars/Olympus" }, "timezone"},
		{"bad privacy", func(p *clients.Profile) { p.Upload.DefaultPrivacyStatus = "secret" }, "privacy"},
		{"no voice provider", func(p *clients.Profile) { p.Voice.Provider = "" }, "voice provider"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := validProfile("valid")
			p.Language = "en-GB"
			p.Tone = media.ToneEducational
			p.TopicSelectionMode = clients.SelectRotate
			tc.mutate(&p)
			err := p.Validate()
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "clients.json")

	original := validProfile("finance_uk")
	original.Upload.DefaultPrivacyStatus = media.PrivacyUnlisted
	original.Schedule.Timezone = "Europe/London"
	if err := clients.Save(path, []clients.Profile{original}); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	loaded, err := clients.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	got, ok := clients.ByID(loaded, "finance_uk")
	if !ok {
		t.Fatal("ByID did not find saved profile")
	}
	if got.Upload.DefaultPrivacyStatus != media.PrivacyUnlisted {
		t.Errorf("privacy status not preserved: %q", got.Upload.DefaultPrivacyStatus)
	}
	if got.Schedule.Timezone != "Europe/London" {
		t.Errorf("timezone not preserved: %q", got.Schedule.Timezone)
	}
}

func TestEnsureFileCreatesEmptyList(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clients.json")
	if err := clients.EnsureFile(path); err != nil {
		t.Fatalf("EnsureFile returned error: %v", err)
	}
	profiles, err := clients.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(profiles) != 0 {
		t.Fatalf("expected empty profile list, got %d entries", len(profiles))
	}
}

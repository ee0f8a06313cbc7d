// Package testsupport provides shared helpers for package tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"shortforge/internal/clients"
	"shortforge/internal/config"
	"shortforge/internal/jobs"
	"shortforge/internal/media"
	"shortforge/internal/quota"
)

// NewConfig returns a validated configuration rooted in a per-test temp
// directory, with stubs enabled and no simulated render delay.
func NewConfig(t *testing.T) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.ClientsFile = filepath.Join(base, "data", "clients.json")
	cfg.Stub.Enabled = true
	cfg.Stub.RenderDelayMS = 0
	cfg.Stub.FailRate = 0

	if err := cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// OpenJobsStore opens a jobs store under the config's data directory.
func OpenJobsStore(t *testing.T, cfg *config.Config) *jobs.Store {
	t.Helper()
	store, err := jobs.Open(filepath.Join(cfg.Paths.DataDir, "jobs.db"))
	if err != nil {
		t.Fatalf("open jobs store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// OpenQuotaStore opens a quota store under the config's data directory.
func OpenQuotaStore(t *testing.T, cfg *config.Config) *quota.Store {
	t.Helper()
	store, err := quota.Open(filepath.Join(cfg.Paths.DataDir, "quota.db"))
	if err != nil {
		t.Fatalf("open quota store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// Client returns a valid client profile bound to the stub providers.
func Client(id string) clients.Profile {
	return clients.Profile{
		ID:                 id,
		DisplayName:        "Client " + id,
		Niche:              "AI productivity",
		Language:           "en-GB",
		Tone:               media.ToneEducational,
		TopicBank:          []string{"prompt engineering basics", "feature flags", "vector databases"},
		TopicSelectionMode: clients.SelectRotate,
		Schedule:           clients.Schedule{RunDailyAt: "0 9 * * *", MaxPerDay: 1},
		MaxUploadsPerDay:   1,
		Voice:              clients.VoiceBinding{Provider: "stub", VoiceID: "voice-1"},
		Avatar:             clients.AvatarBinding{Provider: "stub", AvatarID: "avatar-1"},
		Upload:             clients.UploadBinding{Provider: "stub", ChannelID: "channel-1"},
	}
}

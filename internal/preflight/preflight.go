package preflight

import (
	"context"
	"path/filepath"

	"shortforge/internal/clients"
	"shortforge/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Failed returns true when any check in results did not pass.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return true
		}
	}
	return false
}

// RunAll executes all applicable preflight checks for the given config.
// Credential checks only run when the stub providers are disabled.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("Data directory", cfg.Paths.DataDir))
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	results = append(results, CheckTimezone("Default timezone", cfg.Scheduler.DefaultTimezone))

	if cfg.Paths.WebhookBind != "" {
		results = append(results, CheckBindAddress("Webhook bind address", cfg.Paths.WebhookBind))
	}

	clientsResult, profiles := CheckClientsFile(cfg.Paths.ClientsFile)
	results = append(results, clientsResult)

	results = append(results, CheckJobsStore(ctx, filepath.Join(cfg.Paths.DataDir, "jobs.db")))
	results = append(results, CheckQuotaStore(ctx, filepath.Join(cfg.Paths.DataDir, "quota.db")))

	if !cfg.Stub.Enabled {
		results = append(results, CheckCredentials(cfg, profiles)...)
	}

	return results
}

// requiredCredentials maps the live bindings in use to the credentials
// they need. The script writer is always live when stubs are off.
func requiredCredentials(cfg *config.Config, profiles []clients.Profile) map[string]string {
	required := map[string]string{
		"OPENAI_API_KEY": cfg.Providers.OpenAIAPIKey,
	}
	for _, client := range profiles {
		switch client.Voice.Provider {
		case "elevenlabs":
			required["ELEVENLABS_API_KEY"] = cfg.Providers.ElevenLabsAPIKey
		}
		switch client.Avatar.Provider {
		case "did":
			required["DID_API_KEY"] = cfg.Providers.DIDAPIKey
		case "heygen":
			required["HEYGEN_API_KEY"] = cfg.Providers.HeyGenAPIKey
		}
		switch client.Upload.Provider {
		case "youtube":
			required["YOUTUBE_REFRESH_TOKEN"] = cfg.Providers.YouTubeToken
		}
	}
	return required
}

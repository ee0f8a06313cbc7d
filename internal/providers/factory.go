package providers

import (
	"shortforge/internal/clients"
	"shortforge/internal/config"
	"shortforge/internal/jobs"
	"shortforge/internal/providers/did"
	"shortforge/internal/providers/elevenlabs"
	"shortforge/internal/providers/heygen"
	"shortforge/internal/providers/openai"
	"shortforge/internal/providers/stub"
	"shortforge/internal/providers/youtube"
)

// Factory hands out the provider set for a client, honoring the global stub
// switch and per-client provider bindings.
type Factory struct {
	cfg   *config.Config
	store *jobs.Store

	stubWriter   *stub.Writer
	stubVoice    *stub.Voice
	stubRenderer *stub.Renderer
	stubUploader *stub.Uploader

	openaiWriter    *openai.Client
	elevenVoice     *elevenlabs.Client
	heygenRenderer  *heygen.Client
	didRenderer     *did.Client
	youtubeUploader *youtube.Client
}

// NewFactory builds the shared provider instances once.
func NewFactory(cfg *config.Config, store *jobs.Store) *Factory {
	dataDir := cfg.Paths.DataDir
	return &Factory{
		cfg:   cfg,
		store: store,

		stubWriter:   stub.NewWriter(),
		stubVoice:    stub.NewVoice(dataDir),
		stubRenderer: stub.NewRenderer(dataDir, store, cfg.StubRenderDelay()),
		stubUploader: stub.NewUploader(dataDir, cfg.Stub.FailRate),

		openaiWriter: openai.NewClient(openai.Config{
			APIKey:         cfg.Providers.OpenAIAPIKey,
			BaseURL:        cfg.Providers.OpenAIBaseURL,
			Model:          cfg.Providers.OpenAIModel,
			TimeoutSeconds: cfg.Providers.RequestTimeout,
		}),
		elevenVoice: elevenlabs.NewClient(elevenlabs.Config{
			APIKey:         cfg.Providers.ElevenLabsAPIKey,
			BaseURL:        cfg.Providers.ElevenLabsBaseURL,
			DataDir:        dataDir,
			TimeoutSeconds: cfg.Providers.RequestTimeout,
		}),
		heygenRenderer: heygen.NewClient(heygen.Config{
			APIKey:         cfg.Providers.HeyGenAPIKey,
			BaseURL:        cfg.Providers.HeyGenBaseURL,
			DataDir:        dataDir,
			TimeoutSeconds: cfg.Providers.RequestTimeout,
		}),
		didRenderer: did.NewClient(did.Config{
			APIKey:         cfg.Providers.DIDAPIKey,
			BaseURL:        cfg.Providers.DIDBaseURL,
			DataDir:        dataDir,
			TimeoutSeconds: cfg.Providers.RequestTimeout,
		}),
		youtubeUploader: youtube.NewClient(youtube.Config{
			AccessToken:    cfg.Providers.YouTubeToken,
			TimeoutSeconds: cfg.Providers.RequestTimeout,
		}),
	}
}

// ForClient resolves the provider set for one client. The global stub
// switch forces stubs everywhere; otherwise a client binding of "stub"
// selects the stub for that slot only.
func (f *Factory) ForClient(client clients.Profile) Set {
	useStubs := f.cfg.Stub.Enabled

	set := Set{
		Writer:   f.stubWriter,
		Voice:    f.stubVoice,
		Renderer: f.stubRenderer,
		Uploader: f.stubUploader,
	}
	if useStubs {
		return set
	}

	set.Writer = f.openaiWriter
	if client.Voice.Provider != "stub" {
		set.Voice = f.elevenVoice
	}
	switch client.Avatar.Provider {
	case "stub":
	case "did":
		set.Renderer = f.didRenderer
	default:
		set.Renderer = f.heygenRenderer
	}
	if client.Upload.Provider != "stub" {
		set.Uploader = f.youtubeUploader
	}
	return set
}

package config

const (
	defaultDataDir            = "~/.local/share/shortforge/data"
	defaultLogDir             = "~/.local/share/shortforge/logs"
	defaultWebhookBind        = "127.0.0.1:8787"
	defaultLogFormat          = "text"
	defaultLogLevel           = "info"
	defaultTimezone           = "Europe/London"
	defaultRenderPollInterval = 1
	defaultRenderTimeout      = 120
	defaultStubRenderDelayMS  = 5000
	defaultNtfyRequestTimeout = 10
	defaultProviderTimeout    = 30
	defaultOpenAIBaseURL      = "https://api.openai.com/v1"
	defaultOpenAIModel        = "gpt-4o-mini"
	defaultElevenLabsBaseURL  = "https://api.elevenlabs.io/v1"
	defaultHeyGenBaseURL      = "https://api.heygen.com/v2"
	defaultDIDBaseURL         = "https://api.d-id.com"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:     defaultDataDir,
			LogDir:      defaultLogDir,
			WebhookBind: defaultWebhookBind,
		},
		Stub: Stub{
			Enabled:       true,
			RenderDelayMS: defaultStubRenderDelayMS,
			FailRate:      0,
		},
		Workflow: Workflow{
			RenderPollInterval: defaultRenderPollInterval,
			RenderTimeout:      defaultRenderTimeout,
		},
		Scheduler: Scheduler{
			DefaultTimezone: defaultTimezone,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyRequestTimeout,
		},
		Providers: Providers{
			OpenAIBaseURL:     defaultOpenAIBaseURL,
			OpenAIModel:       defaultOpenAIModel,
			ElevenLabsBaseURL: defaultElevenLabsBaseURL,
			HeyGenBaseURL:     defaultHeyGenBaseURL,
			DIDBaseURL:        defaultDIDBaseURL,
			RequestTimeout:    defaultProviderTimeout,
		},
	}
}

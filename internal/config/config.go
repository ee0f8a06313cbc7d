package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory, file, and bind address configuration.
type Paths struct {
	DataDir     string `toml:"data_dir"`
	LogDir      string `toml:"log_dir"`
	ClientsFile string `toml:"clients_file"`
	WebhookBind string `toml:"webhook_bind"`
}

// Stub contains configuration for the offline stub providers.
type Stub struct {
	Enabled       bool    `toml:"enabled"`
	RenderDelayMS int     `toml:"render_delay_ms"`
	FailRate      float64 `toml:"fail_rate"`
}

// Workflow contains pipeline timing configuration.
type Workflow struct {
	RenderPollInterval int `toml:"render_poll_interval"`
	RenderTimeout      int `toml:"render_timeout"`
}

// Scheduler contains defaults applied to clients without explicit schedules.
type Scheduler struct {
	DefaultTimezone string `toml:"default_timezone"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Providers contains live provider connection settings. API keys are read
// from the environment (optionally via a .env file) rather than the config
// file so credentials stay out of on-disk configuration.
type Providers struct {
	OpenAIBaseURL     string `toml:"openai_base_url"`
	OpenAIModel       string `toml:"openai_model"`
	ElevenLabsBaseURL string `toml:"elevenlabs_base_url"`
	HeyGenBaseURL     string `toml:"heygen_base_url"`
	DIDBaseURL        string `toml:"did_base_url"`
	RequestTimeout    int    `toml:"request_timeout"`

	OpenAIAPIKey     string `toml:"-"`
	ElevenLabsAPIKey string `toml:"-"`
	HeyGenAPIKey     string `toml:"-"`
	DIDAPIKey        string `toml:"-"`
	YouTubeToken     string `toml:"-"`
}

// Config encapsulates all configuration values for shortforge.
//
// Configuration sections by subsystem:
//   - Paths: data/log directories, clients file, webhook bind address
//   - Stub: offline provider behavior (render delay, simulated failures)
//   - Workflow: render polling cadence and timeout
//   - Scheduler: per-client schedule defaults
//   - Logging: log format and level
//   - Notifications: ntfy push notification settings
//   - Providers: live provider endpoints; credentials come from env
type Config struct {
	Paths         Paths         `toml:"paths"`
	Stub          Stub          `toml:"stub"`
	Workflow      Workflow      `toml:"workflow"`
	Scheduler     Scheduler     `toml:"scheduler"`
	Logging       Logging       `toml:"logging"`
	Notifications Notifications `toml:"notifications"`
	Providers     Providers     `toml:"providers"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/shortforge/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized, and provider
// credentials resolved from the environment.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	// Missing .env is fine; explicit env vars still apply.
	_ = godotenv.Load()
	cfg.loadCredentialsFromEnv()

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func (c *Config) loadCredentialsFromEnv() {
	c.Providers.OpenAIAPIKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	c.Providers.ElevenLabsAPIKey = strings.TrimSpace(os.Getenv("ELEVENLABS_API_KEY"))
	c.Providers.HeyGenAPIKey = strings.TrimSpace(os.Getenv("HEYGEN_API_KEY"))
	c.Providers.DIDAPIKey = strings.TrimSpace(os.Getenv("DID_API_KEY"))
	c.Providers.YouTubeToken = strings.TrimSpace(os.Getenv("YOUTUBE_REFRESH_TOKEN"))
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("shortforge.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data directory tree required for operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{
		c.Paths.DataDir,
		c.Paths.LogDir,
		filepath.Join(c.Paths.DataDir, "clients"),
		filepath.Join(c.Paths.DataDir, "webhooks"),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// ClientDir returns the per-client data directory, creating it if needed.
func (c *Config) ClientDir(clientID string) (string, error) {
	dir := filepath.Join(c.Paths.DataDir, "clients", clientID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create client directory %q: %w", dir, err)
	}
	return dir, nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Package elevenlabs implements voice synthesis against the ElevenLabs
// text-to-speech API.
package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"shortforge/internal/clients"
	"shortforge/internal/media"
	"shortforge/internal/services"
)

const defaultHTTPTimeout = 60 * time.Second

// Config captures the runtime settings required to talk to ElevenLabs.
type Config struct {
	APIKey         string
	BaseURL        string
	DataDir        string
	TimeoutSeconds int
}

// Client wraps the text-to-speech endpoint as a voice synthesizer.
type Client struct {
	cfg        Config
	httpClient *http.Client
	now        func() time.Time
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithClock replaces the timestamp source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// NewClient constructs an ElevenLabs voice synthesizer.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:         strings.TrimSpace(cfg.APIKey),
			BaseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			DataDir:        cfg.DataDir,
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = "https://api.elevenlabs.io/v1"
	}
	return client
}

type speechRequest struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id"`
}

// Synthesize posts the script text to the client's configured voice and
// stores the returned MP3 in the client's audio directory.
func (c *Client) Synthesize(ctx context.Context, client clients.Profile, script media.Script) (media.AudioAsset, error) {
	if c.cfg.APIKey == "" {
		return media.AudioAsset{}, services.Wrap(services.ErrConfiguration, "voice", "elevenlabs.synthesize",
			"ELEVENLABS_API_KEY is not set", nil)
	}
	voiceID := client.Voice.VoiceID
	if voiceID == "" {
		return media.AudioAsset{}, services.Wrap(services.ErrConfiguration, "voice", "elevenlabs.synthesize",
			fmt.Sprintf("client %s has no voiceId configured", client.ID), nil)
	}

	payload, err := json.Marshal(speechRequest{Text: script.Text(), ModelID: "eleven_multilingual_v2"})
	if err != nil {
		return media.AudioAsset{}, fmt.Errorf("encode speech request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/text-to-speech/"+voiceID, bytes.NewReader(payload))
	if err != nil {
		return media.AudioAsset{}, fmt.Errorf("build speech request: %w", err)
	}
	req.Header.Set("xi-api-key", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return media.AudioAsset{}, services.Wrap(services.ErrTransient, "voice", "elevenlabs.synthesize", "speech request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		marker := services.ErrTransient
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			marker = services.ErrConfiguration
		}
		return media.AudioAsset{}, services.Wrap(marker, "voice", "elevenlabs.synthesize",
			fmt.Sprintf("speech request returned http %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}

	audioDir := media.AudioDir(c.cfg.DataDir, client.ID)
	if err := os.MkdirAll(audioDir, 0o755); err != nil {
		return media.AudioAsset{}, fmt.Errorf("create audio directory: %w", err)
	}
	audioPath := filepath.Join(audioDir, fmt.Sprintf("audio_%d.mp3", c.now().UnixMilli()))

	out, err := os.Create(audioPath)
	if err != nil {
		return media.AudioAsset{}, fmt.Errorf("create audio file: %w", err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		_ = out.Close()
		return media.AudioAsset{}, fmt.Errorf("write audio file: %w", err)
	}
	if err := out.Close(); err != nil {
		return media.AudioAsset{}, fmt.Errorf("close audio file: %w", err)
	}

	return media.AudioAsset{
		Path:     audioPath,
		MimeType: "audio/mpeg",
		Meta: map[string]any{
			"provider": "elevenlabs",
			"voiceId":  voiceID,
		},
	}, nil
}

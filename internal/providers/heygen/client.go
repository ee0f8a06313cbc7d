// Package heygen implements avatar rendering against the HeyGen video API.
package heygen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"shortforge/internal/clients"
	"shortforge/internal/jobs"
	"shortforge/internal/media"
	"shortforge/internal/services"
)

const defaultHTTPTimeout = 60 * time.Second

// Config captures the runtime settings required to talk to HeyGen.
type Config struct {
	APIKey         string
	BaseURL        string
	DataDir        string
	TimeoutSeconds int
}

// Client wraps HeyGen video generation as an avatar renderer.
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

// WithClock replaces the time source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// NewClient constructs a HeyGen avatar renderer.
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
		client.cfg.BaseURL = "https://api.heygen.com/v2"
	}
	return client
}

type generateRequest struct {
	Title      string       `json:"title"`
	Dimension  dimension    `json:"dimension"`
	VideoInput []videoInput `json:"video_inputs"`
}

type dimension struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type videoInput struct {
	Character characterSpec `json:"character"`
	Voice     voiceSpec     `json:"voice"`
}

type characterSpec struct {
	Type     string `json:"type"`
	AvatarID string `json:"avatar_id"`
}

type voiceSpec struct {
	Type     string `json:"type"`
	AudioURL string `json:"audio_url"`
}

type generateResponse struct {
	Data struct {
		VideoID string `json:"video_id"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type statusResponse struct {
	Data struct {
		Status   string `json:"status"`
		VideoURL string `json:"video_url"`
		Error    *struct {
			Message string `json:"message"`
		} `json:"error"`
	} `json:"data"`
}

// Render submits a video generation request and returns the tracking job.
func (c *Client) Render(ctx context.Context, client clients.Profile, audio media.AudioAsset, script media.Script) (jobs.Job, error) {
	if c.cfg.APIKey == "" {
		return jobs.Job{}, services.Wrap(services.ErrConfiguration, "render", "heygen.render",
			"HEYGEN_API_KEY is not set", nil)
	}
	if client.Avatar.AvatarID == "" {
		return jobs.Job{}, services.Wrap(services.ErrConfiguration, "render", "heygen.render",
			fmt.Sprintf("client %s has no avatarId configured", client.ID), nil)
	}

	title := script.Topic
	if len(script.TitleSuggestions) > 0 {
		title = script.TitleSuggestions[0]
	}
	payload, err := json.Marshal(generateRequest{
		Title:     title,
		Dimension: dimension{Width: 1080, Height: 1920},
		VideoInput: []videoInput{{
			Character: characterSpec{Type: "avatar", AvatarID: client.Avatar.AvatarID},
			Voice:     voiceSpec{Type: "audio", AudioURL: audio.Path},
		}},
	})
	if err != nil {
		return jobs.Job{}, fmt.Errorf("encode generate request: %w", err)
	}

	var decoded generateResponse
	if err := c.doJSON(ctx, http.MethodPost, c.cfg.BaseURL+"/video/generate", payload, &decoded); err != nil {
		return jobs.Job{}, err
	}
	if decoded.Error != nil {
		return jobs.Job{}, services.Wrap(services.ErrRenderFailed, "render", "heygen.render", decoded.Error.Message, nil)
	}
	if decoded.Data.VideoID == "" {
		return jobs.Job{}, services.Wrap(services.ErrTransient, "render", "heygen.render", "generate response missing video_id", nil)
	}

	now := c.now().UTC()
	return jobs.Job{
		ID:        decoded.Data.VideoID,
		ClientID:  client.ID,
		Provider:  "heygen",
		Status:    jobs.StatusProcessing,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Status maps the provider's processing states onto the job lifecycle.
func (c *Client) Status(ctx context.Context, client clients.Profile, jobID string) (jobs.Job, error) {
	decoded, err := c.videoStatus(ctx, jobID)
	if err != nil {
		return jobs.Job{}, err
	}

	job := jobs.Job{
		ID:        jobID,
		ClientID:  client.ID,
		Provider:  "heygen",
		Status:    jobs.StatusProcessing,
		UpdatedAt: c.now().UTC(),
	}
	switch decoded.Data.Status {
	case "completed":
		job.Status = jobs.StatusCompleted
		job.Meta = map[string]any{"videoUrl": decoded.Data.VideoURL}
	case "failed":
		job.Status = jobs.StatusFailed
		if decoded.Data.Error != nil {
			job.Error = decoded.Data.Error.Message
		}
	}
	return job, nil
}

// Download fetches the finished video into the client's video directory.
func (c *Client) Download(ctx context.Context, client clients.Profile, jobID string) (media.VideoAsset, error) {
	decoded, err := c.videoStatus(ctx, jobID)
	if err != nil {
		return media.VideoAsset{}, err
	}
	if decoded.Data.Status != "completed" || decoded.Data.VideoURL == "" {
		return media.VideoAsset{}, services.Wrap(services.ErrRenderFailed, "render", "heygen.download",
			fmt.Sprintf("video %s is not ready for download (status %s)", jobID, decoded.Data.Status), nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, decoded.Data.VideoURL, nil)
	if err != nil {
		return media.VideoAsset{}, fmt.Errorf("build download request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return media.VideoAsset{}, services.Wrap(services.ErrTransient, "render", "heygen.download", "video download failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return media.VideoAsset{}, services.Wrap(services.ErrTransient, "render", "heygen.download",
			fmt.Sprintf("video download returned http %d", resp.StatusCode), nil)
	}

	videoDir := media.VideoDir(c.cfg.DataDir, client.ID)
	if err := os.MkdirAll(videoDir, 0o755); err != nil {
		return media.VideoAsset{}, fmt.Errorf("create video directory: %w", err)
	}
	videoPath := filepath.Join(videoDir, "video_"+jobID+".mp4")
	out, err := os.Create(videoPath)
	if err != nil {
		return media.VideoAsset{}, fmt.Errorf("create video file: %w", err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		_ = out.Close()
		return media.VideoAsset{}, fmt.Errorf("write video file: %w", err)
	}
	if err := out.Close(); err != nil {
		return media.VideoAsset{}, fmt.Errorf("close video file: %w", err)
	}

	return media.VideoAsset{
		Path:     videoPath,
		MimeType: "video/mp4",
		Width:    1080,
		Height:   1920,
	}, nil
}

func (c *Client) videoStatus(ctx context.Context, jobID string) (statusResponse, error) {
	endpoint := c.cfg.BaseURL + "/video_status.get?video_id=" + url.QueryEscape(jobID)
	var decoded statusResponse
	if err := c.doJSON(ctx, http.MethodGet, endpoint, nil, &decoded); err != nil {
		return statusResponse{}, err
	}
	return decoded, nil
}

func (c *Client) doJSON(ctx context.Context, method, endpoint string, payload []byte, out any) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.cfg.APIKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransient, "render", "heygen", "request failed", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		marker := services.ErrTransient
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			marker = services.ErrConfiguration
		}
		return services.Wrap(marker, "render", "heygen",
			fmt.Sprintf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(data))), nil)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

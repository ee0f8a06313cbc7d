// Package did implements avatar rendering against the D-ID talks API.
package did

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
	"shortforge/internal/jobs"
	"shortforge/internal/media"
	"shortforge/internal/services"
)

const defaultHTTPTimeout = 60 * time.Second

// Config captures the runtime settings required to talk to D-ID.
type Config struct {
	APIKey         string
	BaseURL        string
	DataDir        string
	TimeoutSeconds int
}

// Client wraps the talks endpoint as an avatar renderer.
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

// NewClient constructs a D-ID avatar renderer.
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
		client.cfg.BaseURL = "https://api.d-id.com"
	}
	return client
}

type talkRequest struct {
	SourceURL string     `json:"source_url"`
	Script    talkScript `json:"script"`
}

type talkScript struct {
	Type     string `json:"type"`
	AudioURL string `json:"audio_url"`
}

type talkResponse struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	ResultURL string `json:"result_url"`
	Error     *struct {
		Description string `json:"description"`
	} `json:"error"`
}

// Render submits a talk and returns the tracking job.
func (c *Client) Render(ctx context.Context, client clients.Profile, audio media.AudioAsset, _ media.Script) (jobs.Job, error) {
	if c.cfg.APIKey == "" {
		return jobs.Job{}, services.Wrap(services.ErrConfiguration, "render", "did.render",
			"DID_API_KEY is not set", nil)
	}
	if client.Avatar.AvatarID == "" {
		return jobs.Job{}, services.Wrap(services.ErrConfiguration, "render", "did.render",
			fmt.Sprintf("client %s has no avatarId configured", client.ID), nil)
	}

	payload, err := json.Marshal(talkRequest{
		SourceURL: client.Avatar.AvatarID,
		Script:    talkScript{Type: "audio", AudioURL: audio.Path},
	})
	if err != nil {
		return jobs.Job{}, fmt.Errorf("encode talk request: %w", err)
	}

	var decoded talkResponse
	if err := c.doJSON(ctx, http.MethodPost, c.cfg.BaseURL+"/talks", payload, &decoded); err != nil {
		return jobs.Job{}, err
	}
	if decoded.ID == "" {
		return jobs.Job{}, services.Wrap(services.ErrTransient, "render", "did.render", "talk response missing id", nil)
	}

	now := c.now().UTC()
	return jobs.Job{
		ID:        decoded.ID,
		ClientID:  client.ID,
		Provider:  "did",
		Status:    jobs.StatusProcessing,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Status maps the talk state onto the job lifecycle.
func (c *Client) Status(ctx context.Context, client clients.Profile, jobID string) (jobs.Job, error) {
	decoded, err := c.talk(ctx, jobID)
	if err != nil {
		return jobs.Job{}, err
	}

	job := jobs.Job{
		ID:        jobID,
		ClientID:  client.ID,
		Provider:  "did",
		Status:    jobs.StatusProcessing,
		UpdatedAt: c.now().UTC(),
	}
	switch decoded.Status {
	case "done":
		job.Status = jobs.StatusCompleted
		job.Meta = map[string]any{"resultUrl": decoded.ResultURL}
	case "error", "rejected":
		job.Status = jobs.StatusFailed
		if decoded.Error != nil {
			job.Error = decoded.Error.Description
		}
	}
	return job, nil
}

// Download fetches the finished talk video into the client's video
// directory.
func (c *Client) Download(ctx context.Context, client clients.Profile, jobID string) (media.VideoAsset, error) {
	decoded, err := c.talk(ctx, jobID)
	if err != nil {
		return media.VideoAsset{}, err
	}
	if decoded.Status != "done" || decoded.ResultURL == "" {
		return media.VideoAsset{}, services.Wrap(services.ErrRenderFailed, "render", "did.download",
			fmt.Sprintf("talk %s is not ready for download (status %s)", jobID, decoded.Status), nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, decoded.ResultURL, nil)
	if err != nil {
		return media.VideoAsset{}, fmt.Errorf("build download request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return media.VideoAsset{}, services.Wrap(services.ErrTransient, "render", "did.download", "video download failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return media.VideoAsset{}, services.Wrap(services.ErrTransient, "render", "did.download",
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

func (c *Client) talk(ctx context.Context, jobID string) (talkResponse, error) {
	var decoded talkResponse
	if err := c.doJSON(ctx, http.MethodGet, c.cfg.BaseURL+"/talks/"+jobID, nil, &decoded); err != nil {
		return talkResponse{}, err
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
	req.Header.Set("Authorization", "Basic "+c.cfg.APIKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransient, "render", "did", "request failed", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		marker := services.ErrTransient
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			marker = services.ErrConfiguration
		}
		return services.Wrap(marker, "render", "did",
			fmt.Sprintf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(data))), nil)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Package youtube implements short uploads against the YouTube Data API.
package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"strings"
	"time"

	"shortforge/internal/clients"
	"shortforge/internal/media"
	"shortforge/internal/services"
)

const (
	defaultHTTPTimeout = 5 * time.Minute
	defaultUploadURL   = "https://www.googleapis.com/upload/youtube/v3/videos"
)

// Config captures the runtime settings required to upload to YouTube.
type Config struct {
	AccessToken    string
	UploadURL      string
	TimeoutSeconds int
}

// Client wraps the videos.insert endpoint as an uploader.
type Client struct {
	cfg        Config
	httpClient *http.Client
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

// NewClient constructs a YouTube uploader.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			AccessToken:    strings.TrimSpace(cfg.AccessToken),
			UploadURL:      strings.TrimSpace(cfg.UploadURL),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.UploadURL == "" {
		client.cfg.UploadURL = defaultUploadURL
	}
	return client
}

type videoMetadata struct {
	Snippet videoSnippet `json:"snippet"`
	Status  videoStatus  `json:"status"`
}

type videoSnippet struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags,omitempty"`
	ChannelID   string   `json:"channelId,omitempty"`
}

type videoStatus struct {
	PrivacyStatus           string `json:"privacyStatus"`
	PublishAt               string `json:"publishAt,omitempty"`
	SelfDeclaredMadeForKids bool   `json:"selfDeclaredMadeForKids"`
}

type insertResponse struct {
	ID    string `json:"id"`
	Error *struct {
		Message string `json:"message"`
		Errors  []struct {
			Reason string `json:"reason"`
		} `json:"errors"`
	} `json:"error"`
}

// UploadShort uploads the video with its metadata in one multipart request.
// Quota errors are surfaced as non-retryable quota failures.
func (c *Client) UploadShort(ctx context.Context, client clients.Profile, video media.VideoAsset, script media.Script, opts media.UploadOptions) (media.UploadResult, error) {
	if c.cfg.AccessToken == "" {
		return media.UploadResult{}, services.Wrap(services.ErrConfiguration, "upload", "youtube.upload",
			"YouTube access token is not set", nil)
	}

	privacy := opts.PrivacyStatus
	if privacy == "" {
		privacy = media.PrivacyPrivate
	}
	title := script.Topic
	if len(script.TitleSuggestions) > 0 {
		title = script.TitleSuggestions[0]
	}
	metadata := videoMetadata{
		Snippet: videoSnippet{
			Title:       title,
			Description: script.Description,
			Tags:        script.Tags,
			ChannelID:   client.Upload.ChannelID,
		},
		Status: videoStatus{
			PrivacyStatus:           string(privacy),
			SelfDeclaredMadeForKids: opts.MadeForKids,
		},
	}
	if opts.PublishAt != nil {
		metadata.Status.PublishAt = opts.PublishAt.UTC().Format(time.RFC3339)
	}

	videoFile, err := os.Open(video.Path)
	if err != nil {
		return media.UploadResult{}, fmt.Errorf("open video file: %w", err)
	}
	defer videoFile.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	metaHeader := textproto.MIMEHeader{}
	metaHeader.Set("Content-Type", "application/json; charset=UTF-8")
	metaPart, err := writer.CreatePart(metaHeader)
	if err != nil {
		return media.UploadResult{}, fmt.Errorf("create metadata part: %w", err)
	}
	if err := json.NewEncoder(metaPart).Encode(metadata); err != nil {
		return media.UploadResult{}, fmt.Errorf("encode metadata: %w", err)
	}

	videoHeader := textproto.MIMEHeader{}
	videoHeader.Set("Content-Type", video.MimeType)
	videoPart, err := writer.CreatePart(videoHeader)
	if err != nil {
		return media.UploadResult{}, fmt.Errorf("create video part: %w", err)
	}
	if _, err := io.Copy(videoPart, videoFile); err != nil {
		return media.UploadResult{}, fmt.Errorf("buffer video payload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return media.UploadResult{}, fmt.Errorf("finish multipart payload: %w", err)
	}

	endpoint := c.cfg.UploadURL + "?uploadType=multipart&part=snippet,status"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return media.UploadResult{}, fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)
	req.Header.Set("Content-Type", "multipart/related; boundary="+writer.Boundary())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return media.UploadResult{}, services.Wrap(services.ErrTransient, "upload", "youtube.upload", "upload request failed", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return media.UploadResult{}, fmt.Errorf("read upload response: %w", err)
	}

	var decoded insertResponse
	if err := json.Unmarshal(data, &decoded); err != nil && resp.StatusCode == http.StatusOK {
		return media.UploadResult{}, fmt.Errorf("decode upload response: %w", err)
	}

	if resp.StatusCode != http.StatusOK || decoded.Error != nil {
		message := strings.TrimSpace(string(data))
		if decoded.Error != nil {
			message = decoded.Error.Message
			for _, item := range decoded.Error.Errors {
				if strings.Contains(strings.ToLower(item.Reason), "quota") {
					return media.UploadResult{}, services.Wrap(services.ErrQuotaExceeded, "upload", "youtube.upload",
						fmt.Sprintf("quota exceeded: %s", message), nil)
				}
			}
		}
		marker := services.ErrTransient
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			marker = services.ErrConfiguration
		}
		return media.UploadResult{}, services.Wrap(marker, "upload", "youtube.upload",
			fmt.Sprintf("upload returned http %d: %s", resp.StatusCode, message), nil)
	}
	if decoded.ID == "" {
		return media.UploadResult{}, services.Wrap(services.ErrTransient, "upload", "youtube.upload", "upload response missing video id", nil)
	}

	return media.UploadResult{
		VideoID:  decoded.ID,
		URL:      "https://youtube.com/watch?v=" + decoded.ID,
		Provider: "youtube",
	}, nil
}

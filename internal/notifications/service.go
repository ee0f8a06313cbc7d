package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"shortforge/internal/config"
)

const userAgent = "Shortforge/0.1.0"

// Service defines the notification surface exposed to the pipeline and
// scheduler.
type Service interface {
	NotifyRunCompleted(ctx context.Context, clientID, topic, videoURL string, duration time.Duration) error
	NotifyRunFailed(ctx context.Context, clientID, topic string, err error) error
	NotifyQuotaExhausted(ctx context.Context, clientID string, limit int) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyRunCompleted(ctx context.Context, clientID, topic, videoURL string, duration time.Duration) error {
	duration = duration.Round(time.Second)
	message := fmt.Sprintf("Published %q for %s in %s", strings.TrimSpace(topic), clientID, duration)
	if videoURL = strings.TrimSpace(videoURL); videoURL != "" {
		message = fmt.Sprintf("%s\n%s", message, videoURL)
	}
	data := payload{
		title:   "Shortforge - Run Complete",
		message: message,
		tags:    []string{"shortforge", "run", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRunFailed(ctx context.Context, clientID, topic string, err error) error {
	reason := "unknown"
	if err != nil {
		reason = strings.TrimSpace(err.Error())
	}
	data := payload{
		title:    "Shortforge - Run Failed",
		message:  fmt.Sprintf("Run for %s on %q failed: %s", clientID, strings.TrimSpace(topic), reason),
		tags:     []string{"shortforge", "run", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyQuotaExhausted(ctx context.Context, clientID string, limit int) error {
	data := payload{
		title:   "Shortforge - Quota Exhausted",
		message: fmt.Sprintf("Client %s reached its daily upload limit of %d", clientID, limit),
		tags:    []string{"shortforge", "quota"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Shortforge - Test",
		message:  "Notification system test",
		tags:     []string{"shortforge", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyRunCompleted(context.Context, string, string, string, time.Duration) error {
	return nil
}
func (noopService) NotifyRunFailed(context.Context, string, string, error) error { return nil }
func (noopService) NotifyQuotaExhausted(context.Context, string, int) error      { return nil }
func (noopService) TestNotification(context.Context) error                       { return nil }

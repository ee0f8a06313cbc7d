// Package openai implements script writing against the OpenAI chat
// completion API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"shortforge/internal/clients"
	"shortforge/internal/media"
	"shortforge/internal/quality"
	"shortforge/internal/services"
)

const defaultHTTPTimeout = 30 * time.Second

// Config captures the runtime settings required to talk to OpenAI.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	TimeoutSeconds int
}

// Client wraps the chat completion endpoint as a script writer.
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

// NewClient constructs an OpenAI script writer.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:         strings.TrimSpace(cfg.APIKey),
			BaseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			Model:          strings.TrimSpace(cfg.Model),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = "https://api.openai.com/v1"
	}
	if client.cfg.Model == "" {
		client.cfg.Model = "gpt-4o-mini"
	}
	return client
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat formatSpec    `json:"response_format"`
	Temperature    float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type formatSpec struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type scriptPayload struct {
	Hook              string   `json:"hook"`
	Body              string   `json:"body"`
	CTA               string   `json:"cta"`
	TitleSuggestions  []string `json:"titleSuggestions"`
	Description       string   `json:"description"`
	Tags              []string `json:"tags"`
	DurationSecTarget int      `json:"durationSecTarget"`
}

// WriteScript asks the model for a structured script and normalizes the
// response into the run's script shape.
func (c *Client) WriteScript(ctx context.Context, client clients.Profile, topic string) (media.Script, error) {
	if c.cfg.APIKey == "" {
		return media.Script{}, services.Wrap(services.ErrConfiguration, "script", "openai.write",
			"OPENAI_API_KEY is not set", nil)
	}

	reqBody := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt(client, topic)},
		},
		ResponseFormat: formatSpec{Type: "json_object"},
		Temperature:    0.7,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return media.Script{}, fmt.Errorf("encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return media.Script{}, fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return media.Script{}, services.Wrap(services.ErrTransient, "script", "openai.write", "chat completion request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return media.Script{}, fmt.Errorf("read chat response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		marker := services.ErrTransient
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			marker = services.ErrConfiguration
		}
		return media.Script{}, services.Wrap(marker, "script", "openai.write",
			fmt.Sprintf("chat completion returned http %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}

	var decoded chatResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return media.Script{}, fmt.Errorf("decode chat response: %w", err)
	}
	if len(decoded.Choices) == 0 || strings.TrimSpace(decoded.Choices[0].Message.Content) == "" {
		return media.Script{}, services.Wrap(services.ErrTransient, "script", "openai.write", "chat completion returned no content", nil)
	}

	var parsed scriptPayload
	if err := json.Unmarshal([]byte(decoded.Choices[0].Message.Content), &parsed); err != nil {
		return media.Script{}, services.Wrap(services.ErrValidation, "script", "openai.write", "model returned malformed script JSON", err)
	}

	script := media.Script{
		Topic:             topic,
		Niche:             client.Niche,
		Language:          client.Language,
		Tone:              client.Tone,
		Hook:              parsed.Hook,
		Body:              parsed.Body,
		CTA:               parsed.CTA,
		TitleSuggestions:  parsed.TitleSuggestions,
		Description:       parsed.Description,
		Tags:              parsed.Tags,
		DurationSecTarget: parsed.DurationSecTarget,
	}
	if script.DurationSecTarget <= 0 {
		script.DurationSecTarget = 55
	}
	if len(script.TitleSuggestions) == 0 {
		script.TitleSuggestions = quality.TitleSuggestions(topic, client.Niche)
	}
	if script.Description == "" {
		script.Description = quality.Description(script)
	}
	if len(script.Tags) == 0 {
		script.Tags = quality.Tags(script)
	}
	return script, nil
}

const systemPrompt = "You write scripts for vertical short-form videos under 60 seconds. " +
	"Respond with a JSON object containing hook, body, cta, titleSuggestions, description, tags, and durationSecTarget. " +
	"The hook must be 16 words or fewer, the total script 130 to 190 words, and the cta must ask viewers to follow, subscribe, learn, or save."

func userPrompt(client clients.Profile, topic string) string {
	return fmt.Sprintf("Write a %s short-form video script about %q for a %s channel. Language: %s.",
		client.Tone, topic, client.Niche, client.Language)
}

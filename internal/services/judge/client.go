package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"clipdigest/internal/config"
	"clipdigest/internal/manifest"
)

const (
	defaultBaseURL     = "https://openrouter.ai/api/v1"
	defaultModel       = "google/gemini-3-flash-preview"
	jsonResponseType   = "json_object"
	defaultHTTPTimeout = 30 * time.Second
)

// Client wraps an OpenAI-compatible chat completion API.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// Option customizes the judge client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a judge client from configuration.
func NewClient(cfg config.Judge, opts ...Option) *Client {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}

	client := &Client{
		apiKey:     strings.TrimSpace(cfg.APIKey),
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Evaluate submits the digest for review and returns the parsed verdict.
func (c *Client) Evaluate(ctx context.Context, digest *manifest.Manifest) (manifest.JudgeResult, error) {
	var empty manifest.JudgeResult
	if digest == nil || len(digest.Sections) == 0 {
		return empty, errors.New("judge evaluate: digest has no sections")
	}
	if c.apiKey == "" {
		return empty, errors.New("judge evaluate: api key required")
	}

	digestJSON, err := json.Marshal(digest.Sections)
	if err != nil {
		return empty, fmt.Errorf("judge evaluate: encode digest: %w", err)
	}
	requestBody := chatCompletionRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: EvaluationPrompt},
			{Role: "user", Content: string(digestJSON)},
		},
		Temperature:    0,
		ResponseFormat: map[string]string{"type": jsonResponseType},
	}
	encoded, err := json.Marshal(requestBody)
	if err != nil {
		return empty, fmt.Errorf("judge evaluate: encode request: %w", err)
	}

	endpoint, err := url.JoinPath(c.baseURL, "/chat/completions")
	if err != nil {
		return empty, fmt.Errorf("judge evaluate: build url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return empty, fmt.Errorf("judge evaluate: request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return empty, fmt.Errorf("judge evaluate: request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return empty, fmt.Errorf("judge evaluate: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return empty, fmt.Errorf("judge evaluate: http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return empty, fmt.Errorf("judge evaluate: decode response: %w", err)
	}
	if completion.Error != nil {
		return empty, fmt.Errorf("judge evaluate: api error: %s", strings.TrimSpace(completion.Error.Message))
	}
	if len(completion.Choices) == 0 {
		return empty, errors.New("judge evaluate: empty choices")
	}
	content := strings.TrimSpace(completion.Choices[0].Message.Content)
	if content == "" {
		return empty, errors.New("judge evaluate: empty content")
	}

	var verdict manifest.JudgeResult
	if err := json.Unmarshal([]byte(content), &verdict); err != nil {
		return empty, fmt.Errorf("judge evaluate: parse payload: %w", err)
	}
	verdict.Overall = clamp01(verdict.Overall)
	for axis, score := range verdict.Axes {
		verdict.Axes[axis] = clamp01(score)
	}
	verdict.Notes = strings.TrimSpace(verdict.Notes)
	return verdict, nil
}

func clamp01(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}

type chatCompletionRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

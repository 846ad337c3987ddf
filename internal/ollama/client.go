package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
)

const (
	DefaultURL     = "http://localhost:11434"
	DefaultModel   = "llama3.2"
	DefaultTimeout = 120 * time.Second
)

// jsonFormat asks Ollama to constrain output to a JSON document
var jsonFormat = json.RawMessage(`"json"`)

// Client wraps the Ollama API client
type Client struct {
	client  *api.Client
	model   string
	timeout time.Duration
}

// New creates a new Ollama client
func New(ollamaURL, model string) (*Client, error) {
	if ollamaURL == "" {
		ollamaURL = DefaultURL
	}
	if model == "" {
		model = DefaultModel
	}

	baseURL, err := url.Parse(ollamaURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama URL: %w", err)
	}

	return &Client{
		client:  api.NewClient(baseURL, http.DefaultClient),
		model:   model,
		timeout: DefaultTimeout,
	}, nil
}

// Model returns the model name requests are sent to
func (c *Client) Model() string {
	return c.model
}

// SetTimeout overrides the per-request generation timeout
func (c *Client) SetTimeout(d time.Duration) {
	if d > 0 {
		c.timeout = d
	}
}

// GenerateResponse generates a free-text response from the LLM
func (c *Client) GenerateResponse(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, &api.GenerateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: new(bool), // false
	})
}

// GenerateJSON sends a system and user prompt and asks the model for a
// JSON-only answer. The raw response text is returned unparsed.
func (c *Client) GenerateJSON(ctx context.Context, system, prompt string) (string, error) {
	return c.generate(ctx, &api.GenerateRequest{
		Model:  c.model,
		System: system,
		Prompt: prompt,
		Format: jsonFormat,
		Stream: new(bool),
		Options: map[string]any{
			"temperature": 0.7,
		},
	})
}

func (c *Client) generate(ctx context.Context, req *api.GenerateRequest) (string, error) {
	slog.Debug("ollama request", "model", c.model, "timeout", c.timeout)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	var response strings.Builder
	err := c.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		response.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		slog.Warn("ollama generation failed", "model", c.model, "error", err)
		return "", fmt.Errorf("generation failed: %w", err)
	}

	result := strings.TrimSpace(response.String())
	slog.Debug("ollama response received",
		"model", c.model,
		"chars", len(result),
		"duration_ms", time.Since(start).Milliseconds())
	return result, nil
}

// Ping checks that the Ollama server is reachable
func (c *Client) Ping(ctx context.Context) error {
	if err := c.client.Heartbeat(ctx); err != nil {
		return fmt.Errorf("ollama unreachable: %w", err)
	}
	return nil
}

// Package provider talks to remote language models that can score content
// in place of the built-in heuristics. Every provider returns the same
// SmartAnalysisResult shape; callers fall back to the heuristic engine on
// any error.
package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/zombar/contentlens/internal/models"
	"github.com/zombar/contentlens/internal/ollama"
)

// Provider names accepted by AI_PROVIDER
const (
	NameAuto      = "auto"
	NameAnthropic = "anthropic"
	NameOpenAI    = "openai"
	NameGoogle    = "google"
	NameOllama    = "ollama"
	NameHeuristic = models.HeuristicProvider
)

// ErrNotConfigured is returned when an explicitly requested provider has no credentials
var ErrNotConfigured = errors.New("provider not configured")

// Provider scores content and proposes hook rewrites
type Provider interface {
	Name() string
	Analyze(ctx context.Context, text string, contentType models.ContentType) (*models.SmartAnalysisResult, error)
	Rewrite(ctx context.Context, text string, contentType models.ContentType) ([]models.HookRewrite, error)
}

// Config carries the credentials and model names of every provider
type Config struct {
	Preference string

	AnthropicAPIKey string
	AnthropicModel  string

	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string

	GoogleAPIKey string
	GoogleModel  string

	UseOllama   bool
	OllamaURL   string
	OllamaModel string
}

// FromConfig builds the provider selected by cfg. Under "auto" the first
// configured provider wins in the order Anthropic, OpenAI, Google, Ollama.
// A nil Provider with a nil error means heuristics only.
func FromConfig(ctx context.Context, cfg Config) (Provider, error) {
	switch pref := strings.ToLower(strings.TrimSpace(cfg.Preference)); pref {
	case "", NameAuto:
		switch {
		case cfg.AnthropicAPIKey != "":
			return NewAnthropic(cfg.AnthropicAPIKey, cfg.AnthropicModel), nil
		case cfg.OpenAIAPIKey != "":
			return NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL), nil
		case cfg.GoogleAPIKey != "":
			return NewGemini(ctx, cfg.GoogleAPIKey, cfg.GoogleModel)
		case cfg.UseOllama:
			return newOllamaFromConfig(cfg)
		}
		return nil, nil
	case NameAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("%s: %w", pref, ErrNotConfigured)
		}
		return NewAnthropic(cfg.AnthropicAPIKey, cfg.AnthropicModel), nil
	case NameOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("%s: %w", pref, ErrNotConfigured)
		}
		return NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL), nil
	case NameGoogle, "gemini":
		if cfg.GoogleAPIKey == "" {
			return nil, fmt.Errorf("%s: %w", pref, ErrNotConfigured)
		}
		return NewGemini(ctx, cfg.GoogleAPIKey, cfg.GoogleModel)
	case NameOllama:
		return newOllamaFromConfig(cfg)
	case NameHeuristic, "mock", "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Preference)
	}
}

func newOllamaFromConfig(cfg Config) (Provider, error) {
	client, err := ollama.New(cfg.OllamaURL, cfg.OllamaModel)
	if err != nil {
		return nil, err
	}
	return NewOllama(client), nil
}

package provider

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/zombar/contentlens/internal/models"
)

// DefaultAnthropicModel is used when ANTHROPIC_MODEL is unset
const DefaultAnthropicModel = "claude-sonnet-4-20250514"

// Anthropic scores content with Claude through the Messages API
type Anthropic struct {
	client anthropic.Client
	model  string
}

// NewAnthropic creates a Claude-backed provider. Extra request options are
// passed to the SDK client.
func NewAnthropic(apiKey, model string, opts ...option.RequestOption) *Anthropic {
	if model == "" {
		model = DefaultAnthropicModel
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &Anthropic{
		client: anthropic.NewClient(opts...),
		model:  model,
	}
}

func (a *Anthropic) Name() string { return NameAnthropic }

func (a *Anthropic) Analyze(ctx context.Context, text string, contentType models.ContentType) (*models.SmartAnalysisResult, error) {
	return analyzeWith(ctx, a.complete, text, contentType)
}

func (a *Anthropic) Rewrite(ctx context.Context, text string, contentType models.ContentType) ([]models.HookRewrite, error) {
	return rewriteWith(ctx, a.complete, text, contentType)
}

func (a *Anthropic) complete(ctx context.Context, system, user string, maxTokens int, temperature float64) (string, error) {
	resp, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(a.model),
		MaxTokens:   int64(maxTokens),
		Temperature: anthropic.Float(temperature),
		System:      []anthropic.TextBlockParam{{Text: system}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic API error: %w", err)
	}

	for _, block := range resp.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("%w: no text block in anthropic response", ErrMalformedResponse)
}

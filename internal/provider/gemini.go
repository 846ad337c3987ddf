package provider

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/zombar/contentlens/internal/models"
)

// DefaultGoogleModel is used when GOOGLE_AI_MODEL is unset
const DefaultGoogleModel = "gemini-2.0-flash"

// Gemini scores content with Google's Gemini API
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini-backed provider
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if model == "" {
		model = DefaultGoogleModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

func (g *Gemini) Name() string { return NameGoogle }

func (g *Gemini) Analyze(ctx context.Context, text string, contentType models.ContentType) (*models.SmartAnalysisResult, error) {
	return analyzeWith(ctx, g.complete, text, contentType)
}

func (g *Gemini) Rewrite(ctx context.Context, text string, contentType models.ContentType) ([]models.HookRewrite, error) {
	return rewriteWith(ctx, g.complete, text, contentType)
}

func (g *Gemini) complete(ctx context.Context, system, user string, maxTokens int, temperature float64) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Role: genai.RoleUser, Parts: []*genai.Part{{Text: user}}}},
		&genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: system}}},
			ResponseMIMEType:  "application/json",
			Temperature:       genai.Ptr(float32(temperature)),
			MaxOutputTokens:   int32(maxTokens),
		},
	)
	if err != nil {
		return "", fmt.Errorf("gemini API error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("%w: no candidates in gemini response", ErrMalformedResponse)
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}
	return text.String(), nil
}

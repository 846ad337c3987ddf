package provider

import (
	"context"

	"github.com/zombar/contentlens/internal/models"
	"github.com/zombar/contentlens/internal/ollama"
)

// Ollama scores content with a locally hosted model
type Ollama struct {
	client *ollama.Client
}

// NewOllama wraps an Ollama client as a provider
func NewOllama(client *ollama.Client) *Ollama {
	return &Ollama{client: client}
}

func (o *Ollama) Name() string { return NameOllama }

func (o *Ollama) Analyze(ctx context.Context, text string, contentType models.ContentType) (*models.SmartAnalysisResult, error) {
	return analyzeWith(ctx, o.complete, text, contentType)
}

func (o *Ollama) Rewrite(ctx context.Context, text string, contentType models.ContentType) ([]models.HookRewrite, error) {
	return rewriteWith(ctx, o.complete, text, contentType)
}

// Ping reports whether the Ollama server is reachable
func (o *Ollama) Ping(ctx context.Context) error {
	return o.client.Ping(ctx)
}

// Token limits and temperature are left to the local model defaults
func (o *Ollama) complete(ctx context.Context, system, user string, _ int, _ float64) (string, error) {
	return o.client.GenerateJSON(ctx, system, user)
}

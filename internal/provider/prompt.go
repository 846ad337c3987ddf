package provider

import (
	"context"
	"fmt"

	"github.com/zombar/contentlens/internal/analyzer"
	"github.com/zombar/contentlens/internal/models"
)

const analysisSystemPrompt = `You are an expert content analyst who helps personal brands improve their online writing. You specialize in viral content mechanics, copywriting psychology, and audience growth.

Analyze the given content and return ONLY a valid JSON object (no markdown, no code fences) with this exact structure:

{
  "overallScore": <number 1-100>,
  "hookStrength": {
    "score": <number 1-100>,
    "feedback": "<2-3 sentences. Be specific about what works or doesn't in the opening. Reference the actual words used.>",
    "techniques": ["<hook techniques used, e.g. Question Hook, Listicle Hook, Contrarian Twist>"]
  },
  "structure": {
    "score": <number 1-100>,
    "feedback": "<2-3 sentences about readability, flow, formatting, paragraph length.>"
  },
  "emotionalTriggers": {
    "score": <number 1-100>,
    "feedback": "<2-3 sentences about psychological drivers present.>",
    "triggers": ["<list 2-5 emotional triggers detected, e.g. Curiosity, Fear of Missing Out, Authority, Social Proof, Contrarian, Vulnerability, Aspiration, Urgency>"]
  },
  "improvements": [
    "<4-5 specific, actionable improvements. Each should be 1 sentence. Be concrete — reference the actual content.>"
  ],
  "summary": "<2-3 sentence executive summary. What's the biggest win and biggest missed opportunity?>"
}

SCORING GUIDE:
- 90-100: Viral-tier content, exceptional craft
- 75-89: Strong content, minor optimizations needed
- 60-74: Decent but missing key elements
- 40-59: Needs significant work
- Below 40: Fundamental issues

Be honest and direct. Don't sugarcoat. Creators want real feedback, not compliments.`

const rewriteSystemPrompt = `You are an expert content strategist specializing in viral hooks and attention-grabbing openers.

Given the original content and its analysis, rewrite ONLY the hook (first 1-3 sentences) to be dramatically more compelling.

Return ONLY a valid JSON object (no markdown, no code fences):
{
  "rewrites": [
    {
      "style": "<style name, e.g. Curiosity Gap, Bold Claim, Story Hook>",
      "hook": "<the rewritten hook, 1-3 sentences>",
      "why": "<1 sentence explaining why this works better>"
    }
  ]
}

Generate exactly 3 rewrites, each using a different psychological hook style.
Be specific to the content. Don't be generic. Match the author's voice but amplify it.`

// Generation limits shared by the hosted providers
const (
	analysisMaxTokens   = 1024
	rewriteMaxTokens    = 512
	analysisTemperature = 0.7
	rewriteTemperature  = 0.8
)

func analysisPrompt(text string, contentType models.ContentType) string {
	return fmt.Sprintf("Content type: %s\n\n%s", contentType.Label(), text)
}

// rewritePrompt includes the heuristic hook verdict so the model knows
// what it is improving on
func rewritePrompt(text string, contentType models.ContentType) string {
	hook := analyzer.AnalyzeHook(text, contentType)
	return fmt.Sprintf("Content type: %s\nHook score: %d/100\nHook feedback: %s\n\nOriginal content:\n%s",
		contentType.Label(), hook.Score, hook.Feedback, text)
}

// completeFunc sends one system and user prompt pair to a model
type completeFunc func(ctx context.Context, system, user string, maxTokens int, temperature float64) (string, error)

func analyzeWith(ctx context.Context, complete completeFunc, text string, contentType models.ContentType) (*models.SmartAnalysisResult, error) {
	raw, err := complete(ctx, analysisSystemPrompt, analysisPrompt(text, contentType), analysisMaxTokens, analysisTemperature)
	if err != nil {
		return nil, err
	}
	return ParseAnalysis(raw)
}

func rewriteWith(ctx context.Context, complete completeFunc, text string, contentType models.ContentType) ([]models.HookRewrite, error) {
	raw, err := complete(ctx, rewriteSystemPrompt, rewritePrompt(text, contentType), rewriteMaxTokens, rewriteTemperature)
	if err != nil {
		return nil, err
	}
	return ParseRewrites(raw)
}

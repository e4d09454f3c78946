// Gemini implementation of [Generator]
package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/retrograde/internal/shared"
	"google.golang.org/genai"
)

const (
	defaultGeminiModel = "gemini-2.0-flash"

	// Sized to comfortably hold twenty JSON entries with prose reasons.
	geminiMaxOutputTokens = 4096

	// High temperature keeps repeated runs on the same date from converging
	// on the same twenty songs.
	geminiTemperature = 0.9
)

// GeminiService implements [Generator] using the Gemini API with Google
// Search grounding enabled, so the model can consult live "this day in
// history" sources while answering.
type GeminiService struct {
	client *genai.Client
	model  string
}

// NewGeminiService creates a Gemini-backed generator.
//
// The model defaults to gemini-2.0-flash when unset.
func NewGeminiService(ctx context.Context, apiKey, model string) (*GeminiService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: gemini api_key", shared.ErrMissingCredentials)
	}

	if model == "" {
		model = defaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiService{client: client, model: model}, nil
}

func (g *GeminiService) Name() string {
	return "Gemini"
}

// Model returns the configured model identifier.
func (g *GeminiService) Model() string {
	return g.model
}

// Generate sends the prompt and returns the model's answer as a single string.
//
// A response may arrive split across multiple parts; every text part is
// concatenated in order. Any API failure is fatal to the request and wrapped
// as [shared.ErrGenerationUnavailable].
func (g *GeminiService) Generate(ctx context.Context, prompt string) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](geminiTemperature),
		MaxOutputTokens: geminiMaxOutputTokens,
		Tools: []*genai.Tool{
			{GoogleSearch: &genai.GoogleSearch{}},
		},
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrGenerationUnavailable, err)
	}

	text := collectText(resp)
	if text == "" {
		return "", fmt.Errorf("%w: empty answer", shared.ErrGenerationUnavailable)
	}

	return text, nil
}

// collectText concatenates every text part of every candidate in order.
func collectText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part != nil && part.Text != "" {
				sb.WriteString(part.Text)
			}
		}
	}

	return sb.String()
}

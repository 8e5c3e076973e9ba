package assistant

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// Generation parameters are part of the external contract with the model,
// not tunable per call.
const (
	generateMaxOutputTokens = 1200
	generateTemperature     = 0.6
	generateTopP            = 0.95
)

// GeminiGenerator is the concrete TextGenerator backed by the Gemini API.
// The client is constructed by the process entry point and injected here, so
// tests can substitute a double and the process owns the lifecycle.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

// NewGeminiGenerator creates a generator using the given client and model
// name (e.g. "gemini-2.5-flash").
func NewGeminiGenerator(client *genai.Client, model string) *GeminiGenerator {
	return &GeminiGenerator{
		client: client,
		model:  model,
	}
}

// Generate sends the rendered system instruction plus the user's verbatim
// message to Gemini and returns the generated text. An empty string with a
// nil error means the model produced no usable text.
func (g *GeminiGenerator) Generate(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		MaxOutputTokens:   generateMaxOutputTokens,
		Temperature:       ptrFloat(generateTemperature),
		TopP:              ptrFloat(generateTopP),
	}

	contents := []*genai.Content{
		genai.NewContentFromText(userMessage, genai.RoleUser),
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("Generate: generate content: %w", err)
	}

	return resp.Text(), nil
}

func ptrFloat(f float32) *float32 { return &f }

// Ensure GeminiGenerator implements TextGenerator.
var _ TextGenerator = (*GeminiGenerator)(nil)

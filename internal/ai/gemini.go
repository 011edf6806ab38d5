package ai

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiCompleter implements Completer on the Gemini API.
type GeminiCompleter struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGeminiCompleter creates a Gemini-backed completer. Temperature is
// pinned to 0 so repeated enrichment of the same analysis stays as
// stable as the provider allows.
func NewGeminiCompleter(ctx context.Context, apiKey, modelName string) (*GeminiCompleter, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	if modelName == "" {
		modelName = "gemini-pro"
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0)

	return &GeminiCompleter{client: client, model: model}, nil
}

// Complete sends the prompt and returns the concatenated text parts of
// the first candidate.
func (g *GeminiCompleter) Complete(ctx context.Context, prompt, schemaHint string) (string, error) {
	full := prompt
	if schemaHint != "" {
		full = fmt.Sprintf("%s\n\nRespond with JSON matching this schema:\n%s", prompt, schemaHint)
	}

	resp, err := g.model.GenerateContent(ctx, genai.Text(full))
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no response candidates")
	}

	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text += string(t)
		}
	}
	if text == "" {
		return "", fmt.Errorf("empty completion")
	}
	return text, nil
}

// Close releases the underlying client.
func (g *GeminiCompleter) Close() error {
	return g.client.Close()
}

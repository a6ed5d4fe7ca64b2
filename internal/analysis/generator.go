package analysis

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

var (
	ErrMissingAPIKey = errors.New("genai api key not configured")
	ErrEmptyResponse = errors.New("model returned an empty response")
)

// Generator produces a JSON document for a prompt. Implementations must honor
// ctx cancellation.
type Generator interface {
	GenerateJSON(ctx context.Context, req GenerateRequest) (string, error)
}

// GenAIGenerator calls the Gemini API in JSON response mode.
type GenAIGenerator struct {
	client *genai.Client
	config *Config
}

func NewGenAIGenerator(ctx context.Context, config *Config, httpClient *http.Client) (*GenAIGenerator, error) {
	if config.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     config.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &GenAIGenerator{client: client, config: config}, nil
}

func (g *GenAIGenerator) GenerateJSON(ctx context.Context, req GenerateRequest) (string, error) {
	model := req.Model
	if model == "" {
		model = g.config.Model
	}

	parts := []*genai.Part{genai.NewPartFromText(req.Prompt)}
	if req.Image != nil {
		parts = append(parts, genai.NewPartFromBytes(req.Image.Data, req.Image.MIMEType))
	}

	genConfig := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr(g.config.Temperature),
		MaxOutputTokens:  g.config.MaxOutputTokens,
	}
	if req.SystemPrompt != "" {
		genConfig.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}

	resp, err := g.client.Models.GenerateContent(
		ctx,
		model,
		[]*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)},
		genConfig,
	)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/tatianab/dungeon-crawler/internal/prompts"
	"google.golang.org/api/option"
)

// GeminiProvider is the cloud backend.
type GeminiProvider struct {
	client    *genai.Client
	modelName string
}

func NewGeminiProvider(ctx context.Context, apiKey, modelName string) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}
	return &GeminiProvider{
		client:    client,
		modelName: modelName,
	}, nil
}

func (p *GeminiProvider) Close() error {
	return p.client.Close()
}

func (p *GeminiProvider) model(systemPrompt string, temperature float32) *genai.GenerativeModel {
	model := p.client.GenerativeModel(p.modelName)
	model.SetTemperature(temperature)
	if systemPrompt != "" {
		model.SystemInstruction = genai.NewUserContent(genai.Text(systemPrompt))
	}
	return model
}

func (p *GeminiProvider) GenerateText(ctx context.Context, prompt, systemPrompt string) (string, error) {
	resp, err := p.model(systemPrompt, 0.7).GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", &GenerationError{Provider: "gemini", Err: err}
	}
	text, err := responseText(resp)
	if err != nil {
		return "", &GenerationError{Provider: "gemini", Err: err}
	}
	return text, nil
}

func (p *GeminiProvider) ClassifyIntent(ctx context.Context, input string) (Intent, error) {
	prompt, err := prompts.Render(prompts.Classify, prompts.ClassifyData{Input: input})
	if err != nil {
		return UnknownIntent(), err
	}

	model := p.model(prompts.ClassifierSystem, 0.3)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"action":     {Type: genai.TypeString},
			"direction":  {Type: genai.TypeString},
			"target":     {Type: genai.TypeString},
			"confidence": {Type: genai.TypeNumber},
		},
		Required: []string{"action"},
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return UnknownIntent(), fmt.Errorf("classify intent: %w", err)
	}
	text, err := responseText(resp)
	if err != nil {
		return UnknownIntent(), fmt.Errorf("classify intent: %w", err)
	}
	return ParseIntent(text)
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrEmptyResponse
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return "", ErrEmptyResponse
	}
	return strings.TrimSpace(sb.String()), nil
}

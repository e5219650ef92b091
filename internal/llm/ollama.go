package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tatianab/dungeon-crawler/internal/prompts"
)

// OllamaProvider is the local backend, speaking the Ollama chat API.
type OllamaProvider struct {
	baseURL       string
	generateModel string
	classifyModel string
	temperature   float64
	httpClient    *http.Client
}

type OllamaOptions struct {
	BaseURL       string
	GenerateModel string
	ClassifyModel string
	Temperature   float64
	Timeout       time.Duration
}

func NewOllamaProvider(opts OllamaOptions) *OllamaProvider {
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.ClassifyModel == "" {
		opts.ClassifyModel = opts.GenerateModel
	}
	return &OllamaProvider{
		baseURL:       strings.TrimRight(opts.BaseURL, "/"),
		generateModel: opts.GenerateModel,
		classifyModel: opts.ClassifyModel,
		temperature:   opts.Temperature,
		httpClient:    &http.Client{Timeout: opts.Timeout},
	}
}

func (p *OllamaProvider) Close() error {
	p.httpClient.CloseIdleConnections()
	return nil
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Format   string          `json:"format,omitempty"`
	Options  map[string]any  `json:"options,omitempty"`
}

type ollamaResponse struct {
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
	Error   string        `json:"error,omitempty"`
}

func (p *OllamaProvider) GenerateText(ctx context.Context, prompt, systemPrompt string) (string, error) {
	text, err := p.chat(ctx, p.generateModel, systemPrompt, prompt, "", p.temperature)
	if err != nil {
		return "", &GenerationError{Provider: "ollama", Err: err}
	}
	return text, nil
}

func (p *OllamaProvider) ClassifyIntent(ctx context.Context, input string) (Intent, error) {
	prompt, err := prompts.Render(prompts.Classify, prompts.ClassifyData{Input: input})
	if err != nil {
		return UnknownIntent(), err
	}
	text, err := p.chat(ctx, p.classifyModel, prompts.ClassifierSystem, prompt, "json", 0.3)
	if err != nil {
		return UnknownIntent(), fmt.Errorf("classify intent: %w", err)
	}
	return ParseIntent(text)
}

func (p *OllamaProvider) chat(ctx context.Context, model, systemPrompt, prompt, format string, temperature float64) (string, error) {
	var messages []ollamaMessage
	if systemPrompt != "" {
		messages = append(messages, ollamaMessage{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, ollamaMessage{Role: "user", Content: prompt})

	body, err := json.Marshal(ollamaRequest{
		Model:    model,
		Messages: messages,
		Format:   format,
		Options:  map[string]any{"temperature": temperature},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call ollama: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama returned %s: %s", resp.Status, strings.TrimSpace(string(data)))
	}

	var out ollamaResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("ollama: %s", out.Error)
	}
	text := strings.TrimSpace(out.Message.Content)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

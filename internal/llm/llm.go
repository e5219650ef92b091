// Package llm defines the text generation and intent classification capabilities the
// game needs, with Gemini (cloud) and Ollama (local) implementations.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// TextGenerator turns a prompt into prose.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt, systemPrompt string) (string, error)
}

// IntentClassifier turns raw player input into an Intent. Callers treat any error
// as an unknown intent.
type IntentClassifier interface {
	ClassifyIntent(ctx context.Context, input string) (Intent, error)
}

// Provider is a complete LLM backend.
type Provider interface {
	TextGenerator
	IntentClassifier
	Close() error
}

const (
	ActionMove      = "move"
	ActionLook      = "look"
	ActionTake      = "take"
	ActionAttack    = "attack"
	ActionInventory = "inventory"
	ActionUnknown   = "unknown"
)

// Intent is the structured reading of one player command.
type Intent struct {
	Action     string  `json:"action"`
	Direction  string  `json:"direction,omitempty"`
	Target     string  `json:"target,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

// UnknownIntent is what a failed classification degrades to.
func UnknownIntent() Intent {
	return Intent{Action: ActionUnknown}
}

// Normalize lower-cases the action and maps unrecognised actions to unknown.
func (i Intent) Normalize() Intent {
	i.Action = strings.ToLower(strings.TrimSpace(i.Action))
	switch i.Action {
	case ActionMove, ActionLook, ActionTake, ActionAttack, ActionInventory:
	default:
		i.Action = ActionUnknown
	}
	i.Direction = strings.TrimSpace(i.Direction)
	i.Target = strings.TrimSpace(i.Target)
	return i
}

var ErrEmptyResponse = errors.New("no content returned from model")

// GenerationError is returned when a provider cannot produce text.
type GenerationError struct {
	Provider string
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s generation failed: %v", e.Provider, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// ExtractJSON strips code fences and returns the text between the first '{' and the
// last '}'. Text without braces is returned trimmed.
func ExtractJSON(text string) string {
	clean := strings.ReplaceAll(text, "```json", "")
	clean = strings.ReplaceAll(clean, "```", "")
	clean = strings.TrimSpace(clean)

	start := strings.Index(clean, "{")
	end := strings.LastIndex(clean, "}")
	if start != -1 && end > start {
		clean = clean[start : end+1]
	}
	return clean
}

// ParseIntent decodes a model's JSON answer into a normalized Intent.
func ParseIntent(text string) (Intent, error) {
	var intent Intent
	if err := json.Unmarshal([]byte(ExtractJSON(text)), &intent); err != nil {
		return UnknownIntent(), fmt.Errorf("parse intent: %w", err)
	}
	return intent.Normalize(), nil
}

// Package llmtest provides a scripted llm.Provider for tests.
package llmtest

import (
	"context"
	"strings"
	"sync"

	"github.com/tatianab/dungeon-crawler/internal/llm"
)

// Call records one GenerateText request.
type Call struct {
	Prompt string
	System string
}

// Fake answers GenerateText with Respond (or Text) and ClassifyIntent from Intents.
type Fake struct {
	mu sync.Mutex

	// Respond, when set, decides every GenerateText answer.
	Respond func(prompt, system string) (string, error)
	// Text is returned when Respond is nil.
	Text string
	// Intents maps lower-cased raw input to an intent. Missing input classifies as unknown.
	Intents     map[string]llm.Intent
	ClassifyErr error

	calls []Call
}

var _ llm.Provider = (*Fake)(nil)

func (f *Fake) GenerateText(ctx context.Context, prompt, systemPrompt string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, Call{Prompt: prompt, System: systemPrompt})
	respond, text := f.Respond, f.Text
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", &llm.GenerationError{Provider: "fake", Err: err}
	}
	if respond != nil {
		return respond(prompt, systemPrompt)
	}
	return text, nil
}

func (f *Fake) ClassifyIntent(ctx context.Context, input string) (llm.Intent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ClassifyErr != nil {
		return llm.UnknownIntent(), f.ClassifyErr
	}
	intent, ok := f.Intents[strings.ToLower(input)]
	if !ok {
		return llm.UnknownIntent(), nil
	}
	return intent, nil
}

func (f *Fake) Close() error { return nil }

// Calls returns a copy of the GenerateText requests seen so far.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CallCount returns how many GenerateText requests were made.
func (f *Fake) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

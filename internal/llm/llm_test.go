package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tatianab/dungeon-crawler/internal/config"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"prose", "Sure! Here it is: {\"a\":{\"b\":2}} Enjoy.", `{"a":{"b":2}}`},
		{"no braces", "  nothing here ", "nothing here"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractJSON(tt.in); got != tt.want {
				t.Errorf("ExtractJSON(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseIntent(t *testing.T) {
	intent, err := ParseIntent("```json\n{\"action\": \"MOVE\", \"direction\": \"North\", \"confidence\": 0.9}\n```")
	if err != nil {
		t.Fatalf("ParseIntent failed: %v", err)
	}
	if intent.Action != ActionMove || intent.Direction != "North" || intent.Confidence != 0.9 {
		t.Errorf("Unexpected intent: %+v", intent)
	}

	intent, err = ParseIntent(`{"action": "dance"}`)
	if err != nil {
		t.Fatalf("ParseIntent failed: %v", err)
	}
	if intent.Action != ActionUnknown {
		t.Errorf("Expected unknown action, got %q", intent.Action)
	}

	intent, err = ParseIntent("not json at all")
	if err == nil {
		t.Error("Expected error for malformed intent")
	}
	if intent.Action != ActionUnknown {
		t.Errorf("Expected unknown intent on error, got %+v", intent)
	}
}

func TestGenerationErrorUnwrap(t *testing.T) {
	var err error = &GenerationError{Provider: "ollama", Err: ErrEmptyResponse}
	if !errors.Is(err, ErrEmptyResponse) {
		t.Error("Expected GenerationError to unwrap to ErrEmptyResponse")
	}
	var genErr *GenerationError
	if !errors.As(err, &genErr) || genErr.Provider != "ollama" {
		t.Errorf("errors.As failed: %v", err)
	}
}

func newOllamaServer(t *testing.T, handle func(req ollamaRequest) (int, string)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		var req ollamaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		status, content := handle(req)
		w.WriteHeader(status)
		if status != http.StatusOK {
			w.Write([]byte(content))
			return
		}
		json.NewEncoder(w).Encode(ollamaResponse{Message: ollamaMessage{Role: "assistant", Content: content}, Done: true})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOllamaGenerateText(t *testing.T) {
	srv := newOllamaServer(t, func(req ollamaRequest) (int, string) {
		if req.Stream {
			t.Error("Expected non-streaming request")
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("Expected system + user messages, got %+v", req.Messages)
		}
		if req.Model != "narrator" {
			t.Errorf("Expected generate model, got %q", req.Model)
		}
		return http.StatusOK, "  The torch gutters.  "
	})

	p := NewOllamaProvider(OllamaOptions{BaseURL: srv.URL + "/", GenerateModel: "narrator", Timeout: time.Second})
	text, err := p.GenerateText(context.Background(), "prompt", "system")
	if err != nil {
		t.Fatalf("GenerateText failed: %v", err)
	}
	if text != "The torch gutters." {
		t.Errorf("Unexpected text %q", text)
	}
}

func TestOllamaClassifyIntent(t *testing.T) {
	srv := newOllamaServer(t, func(req ollamaRequest) (int, string) {
		if req.Format != "json" {
			t.Errorf("Expected json format, got %q", req.Format)
		}
		if req.Model != "parser" {
			t.Errorf("Expected classify model, got %q", req.Model)
		}
		if !strings.Contains(req.Messages[len(req.Messages)-1].Content, "take sword") {
			t.Error("Expected player input in the prompt")
		}
		return http.StatusOK, `{"action":"take","target":"sword","confidence":0.8}`
	})

	p := NewOllamaProvider(OllamaOptions{BaseURL: srv.URL, GenerateModel: "narrator", ClassifyModel: "parser"})
	intent, err := p.ClassifyIntent(context.Background(), "take sword")
	if err != nil {
		t.Fatalf("ClassifyIntent failed: %v", err)
	}
	if intent.Action != ActionTake || intent.Target != "sword" {
		t.Errorf("Unexpected intent %+v", intent)
	}
}

func TestOllamaErrorStatus(t *testing.T) {
	srv := newOllamaServer(t, func(req ollamaRequest) (int, string) {
		return http.StatusInternalServerError, "model not loaded"
	})

	p := NewOllamaProvider(OllamaOptions{BaseURL: srv.URL, GenerateModel: "narrator"})
	_, err := p.GenerateText(context.Background(), "prompt", "")
	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("Expected GenerationError, got %v", err)
	}
	if !strings.Contains(err.Error(), "model not loaded") {
		t.Errorf("Expected body in error, got %v", err)
	}

	intent, err := p.ClassifyIntent(context.Background(), "look")
	if err == nil || intent.Action != ActionUnknown {
		t.Errorf("Expected unknown intent with error, got %+v, %v", intent, err)
	}
}

func TestNewUnknownProvider(t *testing.T) {
	if _, err := New(context.Background(), config.LLMConfig{Provider: "psychic"}); err == nil {
		t.Error("Expected error for unknown provider")
	}
	p, err := New(context.Background(), config.LLMConfig{Provider: "local", Ollama: config.OllamaConfig{BaseURL: "http://x"}})
	if err != nil {
		t.Fatalf("New(local) failed: %v", err)
	}
	if _, ok := p.(*OllamaProvider); !ok {
		t.Errorf("Expected *OllamaProvider, got %T", p)
	}
}

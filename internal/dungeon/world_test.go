package dungeon

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/tatianab/dungeon-crawler/internal/llm/llmtest"
	"github.com/tatianab/dungeon-crawler/internal/models"
	"github.com/tatianab/dungeon-crawler/internal/prompts"
)

func TestNewWorld(t *testing.T) {
	fake := &llmtest.Fake{Respond: func(prompt, system string) (string, error) {
		if system == prompts.DungeonMasterSystem {
			return "  A drowned cathedral of salt.  ", nil
		}
		return `{"description": "Brine drips from the ceiling."}`, nil
	}}

	state, err := NewBuilder(fake, NewExpander(fake, 0), 10, 7).NewWorld(context.Background())
	if err != nil {
		t.Fatalf("NewWorld failed: %v", err)
	}

	if len(state.Rooms) != 10 {
		t.Errorf("Expected 10 rooms, got %d", len(state.Rooms))
	}
	if state.Theme != "A drowned cathedral of salt." {
		t.Errorf("Unexpected theme %q", state.Theme)
	}
	if state.Player.CurrentRoomID != models.StartRoomID || state.Player.HP != models.DefaultPlayerHP {
		t.Errorf("Unexpected player %+v", state.Player)
	}
	if len(state.History) != 1 || !strings.Contains(state.History[0], "A drowned cathedral of salt.") {
		t.Errorf("Unexpected history %v", state.History)
	}

	start := state.Rooms[models.StartRoomID]
	if !start.IsGenerated || !start.IsVisited {
		t.Errorf("Start room should be generated and visited: %+v", start)
	}
	for _, id := range start.Exits {
		if !state.Rooms[id].IsGenerated {
			t.Errorf("Neighbour %s should be eagerly generated", id)
		}
	}
	if want := 1 + 1 + len(start.Exits); fake.CallCount() != want {
		t.Errorf("Expected %d model calls, got %d", want, fake.CallCount())
	}
	if err := state.Validate(); err != nil {
		t.Errorf("Generated state invalid: %v", err)
	}
}

func TestNewWorldThemeFailure(t *testing.T) {
	fake := &llmtest.Fake{Respond: func(prompt, system string) (string, error) {
		return "", errors.New("offline")
	}}

	state, err := NewBuilder(fake, NewExpander(fake, 0), 3, 1).NewWorld(context.Background())
	if err != nil {
		t.Fatalf("NewWorld failed: %v", err)
	}
	if state.Theme != DefaultTheme {
		t.Errorf("Expected default theme, got %q", state.Theme)
	}
	if !state.Rooms[models.StartRoomID].IsGenerated {
		t.Error("Start room should fall back to generated")
	}
}

func TestNewWorldCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fake := &llmtest.Fake{Text: "{}"}

	if _, err := NewBuilder(fake, NewExpander(fake, 0), 3, 1).NewWorld(ctx); err == nil {
		t.Error("Expected error for cancelled context")
	}
}

package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tatianab/dungeon-crawler/internal/expansion"
	"github.com/tatianab/dungeon-crawler/internal/llm"
	"github.com/tatianab/dungeon-crawler/internal/logger"
	"github.com/tatianab/dungeon-crawler/internal/prompts"
	"github.com/tatianab/dungeon-crawler/internal/session"
)

// ErrPersistence wraps failures to save the game after a turn.
var ErrPersistence = errors.New("failed to persist game state")

// recentHistory is how many history entries a Snapshot carries.
const recentHistory = 5

// Sessions hands out live sessions and persists them.
type Sessions interface {
	Get(ctx context.Context, id string) (*session.Session, error)
	Save(ctx context.Context, s *session.Session) error
	Saves(ctx context.Context) ([]string, error)
}

// Scheduler accepts background room expansion. Enqueue must not block.
type Scheduler interface {
	Enqueue(job expansion.Job) bool
}

type Engine struct {
	gen        llm.TextGenerator
	classifier llm.IntentClassifier
	sessions   Sessions
	scheduler  Scheduler
}

// NewEngine wires the turn pipeline. scheduler may be nil, in which case rooms are
// only filled in when the world is created.
func NewEngine(gen llm.TextGenerator, classifier llm.IntentClassifier, sessions Sessions, scheduler Scheduler) *Engine {
	return &Engine{
		gen:        gen,
		classifier: classifier,
		sessions:   sessions,
		scheduler:  scheduler,
	}
}

type TurnResult struct {
	Narrative string
	Intent    llm.Intent
	// Logic is the plain result the narration was based on.
	Logic  string
	RoomID string
}

// ProcessTurn runs one player input against the save sessionID: classify, resolve,
// narrate, record and persist. The session stays locked for the whole turn.
func (e *Engine) ProcessTurn(ctx context.Context, sessionID, input string) (*TurnResult, error) {
	s, err := e.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("open session %s: %w", sessionID, err)
	}

	intent := e.classify(ctx, input)

	s.Lock()
	defer s.Unlock()

	state := s.State
	// Narration is set in the room where the action was taken.
	before := state.CurrentRoom().Description
	outcome := Resolve(state, intent)
	room := state.CurrentRoom()

	narrative, err := e.narrate(ctx, state.Theme, before, input, outcome.Result)
	if err != nil {
		logger.Error("Narration failed", "session", sessionID, "error", err)
		return nil, err
	}

	state.AppendHistory(fmt.Sprintf("Action: %s | Result: %s", input, narrative))

	if e.scheduler != nil {
		for _, x := range outcome.Expansions {
			e.scheduler.Enqueue(expansion.Job{Session: s, RoomID: x.RoomID, Previous: x.Previous})
		}
	}

	if err := e.sessions.Save(ctx, s); err != nil {
		logger.Error("Failed to save game", "session", sessionID, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	logger.Debug("Turn processed", "session", sessionID, "action", intent.Action, "room", room.ID)
	return &TurnResult{
		Narrative: narrative,
		Intent:    intent,
		Logic:     outcome.Result,
		RoomID:    room.ID,
	}, nil
}

func (e *Engine) classify(ctx context.Context, input string) llm.Intent {
	if strings.TrimSpace(input) == "" {
		return llm.UnknownIntent()
	}
	intent, err := e.classifier.ClassifyIntent(ctx, input)
	if err != nil {
		logger.Warning("Intent classification failed", "input", input, "error", err)
		return llm.UnknownIntent()
	}
	return intent.Normalize()
}

func (e *Engine) narrate(ctx context.Context, theme, room, input, result string) (string, error) {
	prompt, err := prompts.Render(prompts.Narrate, prompts.NarrateData{
		Theme:  theme,
		Room:   room,
		Input:  input,
		Result: result,
	})
	if err != nil {
		return "", err
	}

	text, err := e.gen.GenerateText(ctx, prompt, prompts.NarratorSystem)
	if err != nil {
		var genErr *llm.GenerationError
		if errors.As(err, &genErr) {
			return "", err
		}
		return "", &llm.GenerationError{Provider: "narrator", Err: err}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", &llm.GenerationError{Provider: "narrator", Err: llm.ErrEmptyResponse}
	}
	return text, nil
}

// Saves lists the stored games.
func (e *Engine) Saves(ctx context.Context) ([]string, error) {
	return e.sessions.Saves(ctx)
}

// Snapshot is a read-only view of a save for clients.
type Snapshot struct {
	SessionID   string
	Theme       string
	RoomID      string
	Description string
	Exits       []string
	Items       []string
	Enemies     []string
	HP          int
	MaxHP       int
	Inventory   []string
	History     []string
}

// Describe returns what the player currently sees in save sessionID.
func (e *Engine) Describe(ctx context.Context, sessionID string) (*Snapshot, error) {
	s, err := e.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("open session %s: %w", sessionID, err)
	}
	s.Lock()
	defer s.Unlock()

	state := s.State
	room := state.CurrentRoom()

	snap := &Snapshot{
		SessionID:   s.ID,
		Theme:       state.Theme,
		RoomID:      room.ID,
		Description: room.Description,
		Exits:       room.ExitDirections(),
		Items:       room.ItemNames(),
		Enemies:     room.EnemyNames(),
		HP:          state.Player.HP,
		MaxHP:       state.Player.MaxHP,
	}
	for _, it := range state.Player.Inventory {
		snap.Inventory = append(snap.Inventory, it.Name)
	}
	start := max(len(state.History)-recentHistory, 0)
	snap.History = append([]string(nil), state.History[start:]...)
	return snap, nil
}

var _ Sessions = (*session.Manager)(nil)

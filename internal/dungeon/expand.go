package dungeon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tatianab/dungeon-crawler/internal/llm"
	"github.com/tatianab/dungeon-crawler/internal/logger"
	"github.com/tatianab/dungeon-crawler/internal/models"
	"github.com/tatianab/dungeon-crawler/internal/prompts"
)

var ErrIncompleteContent = errors.New("room content is missing required fields")

// Request is everything the expander needs to know about a room stub.
type Request struct {
	RoomID   string
	Exits    []string
	Theme    string
	Previous string
}

// RequestFor captures a room for expansion. previous is the description of the room
// the player came from, if any.
func RequestFor(room *models.Room, theme, previous string) Request {
	return Request{
		RoomID:   room.ID,
		Exits:    room.ExitDirections(),
		Theme:    theme,
		Previous: previous,
	}
}

// Content is the LLM-authored filling of a room.
type Content struct {
	Description string
	Items       []models.Item
	Enemies     []models.Enemy
	Fallback    bool
}

// FallbackContent is used whenever the model's answer cannot be used.
func FallbackContent(roomID string) Content {
	return Content{
		Description: fmt.Sprintf("You are in %s. The shadows are deep here.", roomID),
		Items:       []models.Item{},
		Enemies:     []models.Enemy{},
		Fallback:    true,
	}
}

type rawEntity struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

type rawContent struct {
	Description string      `json:"description"`
	Items       []rawEntity `json:"items"`
	Enemies     []rawEntity `json:"enemies"`
}

// ParseContent reads a model answer, tolerating code fences and surrounding prose.
// Unknown entity types become "other"; a missing description or a nameless entity
// fails the whole answer.
func ParseContent(text string) (Content, error) {
	var raw rawContent
	if err := json.Unmarshal([]byte(llm.ExtractJSON(text)), &raw); err != nil {
		return Content{}, fmt.Errorf("parse room content: %w", err)
	}
	if strings.TrimSpace(raw.Description) == "" {
		return Content{}, fmt.Errorf("%w: description", ErrIncompleteContent)
	}

	c := Content{
		Description: strings.TrimSpace(raw.Description),
		Items:       make([]models.Item, 0, len(raw.Items)),
		Enemies:     make([]models.Enemy, 0, len(raw.Enemies)),
	}
	for _, it := range raw.Items {
		if strings.TrimSpace(it.Name) == "" {
			return Content{}, fmt.Errorf("%w: item name", ErrIncompleteContent)
		}
		c.Items = append(c.Items, models.Item{
			Name:        strings.TrimSpace(it.Name),
			Description: it.Description,
			Type:        models.ParseItemType(it.Type),
			IsGenerated: true,
		})
	}
	for _, e := range raw.Enemies {
		if strings.TrimSpace(e.Name) == "" {
			return Content{}, fmt.Errorf("%w: enemy name", ErrIncompleteContent)
		}
		c.Enemies = append(c.Enemies, models.Enemy{
			Name:        strings.TrimSpace(e.Name),
			Description: e.Description,
			Type:        models.ParseEnemyType(e.Type),
			HP:          models.DefaultEnemyHP,
			MaxHP:       models.DefaultEnemyHP,
			IsGenerated: true,
		})
	}
	return c, nil
}

// Apply fills an ungenerated room and marks it generated. It reports false, leaving
// the room untouched, if the room was already generated.
func Apply(room *models.Room, c Content) bool {
	if room.IsGenerated {
		return false
	}
	room.Description = c.Description
	room.Items = append(room.Items, c.Items...)
	room.Enemies = append(room.Enemies, c.Enemies...)
	room.IsGenerated = true
	return true
}

// Expander asks the model to describe rooms.
type Expander struct {
	gen     llm.TextGenerator
	timeout time.Duration
}

// NewExpander bounds every model call by timeout; zero means no bound.
func NewExpander(gen llm.TextGenerator, timeout time.Duration) *Expander {
	return &Expander{gen: gen, timeout: timeout}
}

// Generate makes one model call for req. It never fails: any error yields
// FallbackContent.
func (e *Expander) Generate(ctx context.Context, req Request) (c Content) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("room expansion panicked", "room", req.RoomID, "panic", r)
			c = FallbackContent(req.RoomID)
		}
	}()

	prompt, err := prompts.Render(prompts.ExpandRoom, prompts.ExpandRoomData{
		Theme:    req.Theme,
		RoomID:   req.RoomID,
		Exits:    req.Exits,
		Previous: req.Previous,
	})
	if err != nil {
		logger.Error("failed to render room prompt", "room", req.RoomID, "error", err)
		return FallbackContent(req.RoomID)
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	text, err := e.gen.GenerateText(ctx, prompt, prompts.GeneratorSystem)
	if err != nil {
		logger.Warning("room generation failed, using fallback", "room", req.RoomID, "error", err)
		return FallbackContent(req.RoomID)
	}

	c, err = ParseContent(text)
	if err != nil {
		logger.Warning("room content unusable, using fallback", "room", req.RoomID, "error", err)
		return FallbackContent(req.RoomID)
	}
	logger.Debug("room expanded", "room", req.RoomID, "items", len(c.Items), "enemies", len(c.Enemies))
	return c
}

// Expand fills room in place. It is a no-op, without any model call, if the room is
// already generated, and always leaves the room generated.
func (e *Expander) Expand(ctx context.Context, room *models.Room, theme, previous string) {
	if room.IsGenerated {
		return
	}
	Apply(room, e.Generate(ctx, RequestFor(room, theme, previous)))
}

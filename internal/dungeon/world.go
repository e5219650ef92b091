package dungeon

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/tatianab/dungeon-crawler/internal/llm"
	"github.com/tatianab/dungeon-crawler/internal/logger"
	"github.com/tatianab/dungeon-crawler/internal/models"
	"github.com/tatianab/dungeon-crawler/internal/prompts"
	"golang.org/x/sync/errgroup"
)

// DefaultTheme is used when the model cannot invent one.
const DefaultTheme = "Generic Dungeon"

// Builder creates fresh game states.
type Builder struct {
	gen       llm.TextGenerator
	expander  *Expander
	roomCount int
	seed      int64
}

// NewBuilder returns a Builder for dungeons of roomCount rooms. A zero seed picks a
// new seed per world.
func NewBuilder(gen llm.TextGenerator, expander *Expander, roomCount int, seed int64) *Builder {
	return &Builder{
		gen:       gen,
		expander:  expander,
		roomCount: roomCount,
		seed:      seed,
	}
}

// NewWorld generates the topology and a theme, then eagerly expands the start room
// and its neighbours so the first turns never show an empty room.
func (b *Builder) NewWorld(ctx context.Context) (*models.GameState, error) {
	seed := b.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rooms := GenerateTopology(b.roomCount, rand.New(rand.NewSource(seed)))

	theme := b.theme(ctx)
	state := &models.GameState{
		Theme:   theme,
		Player:  models.NewPlayer(models.StartRoomID),
		Rooms:   rooms,
		History: []string{fmt.Sprintf("Welcome to the dungeon. Theme: %s", theme)},
	}

	start := rooms[models.StartRoomID]
	start.IsVisited = true
	b.expander.Expand(ctx, start, theme, "")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, id := range start.Exits {
		neighbor := rooms[id]
		g.Go(func() error {
			b.expander.Expand(gctx, neighbor, theme, start.Description)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("generate world: %w", err)
	}

	logger.Info("generated new world", "rooms", len(rooms), "seed", seed, "theme", theme)
	return state, nil
}

func (b *Builder) theme(ctx context.Context) string {
	prompt, err := prompts.Render(prompts.Theme, nil)
	if err != nil {
		logger.Error("failed to render theme prompt", "error", err)
		return DefaultTheme
	}
	theme, err := b.gen.GenerateText(ctx, prompt, prompts.DungeonMasterSystem)
	if err != nil {
		logger.Warning("theme generation failed, using default", "error", err)
		return DefaultTheme
	}
	theme = strings.TrimSpace(theme)
	if theme == "" {
		return DefaultTheme
	}
	return theme
}

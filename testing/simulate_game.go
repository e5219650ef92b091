package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/gookit/color"
	"github.com/tatianab/dungeon-crawler/internal/app"
	"github.com/tatianab/dungeon-crawler/internal/config"
	"github.com/tatianab/dungeon-crawler/internal/engine"
	"github.com/tatianab/dungeon-crawler/internal/llm"
	"github.com/tatianab/dungeon-crawler/internal/prompts"
	"golang.org/x/term"
)

var (
	colorHeader  = color.Style{color.FgYellow, color.OpBold}
	colorAction  = color.Style{color.FgMagenta, color.OpBold}
	colorOutcome = color.Style{color.FgGreen}
	colorSubtle  = color.Style{color.FgGray}
	colorDenied  = color.Style{color.FgRed, color.OpBold}
)

func main() {
	configPath := flag.String("config", "dungeon.yaml", "Path to config YAML file")
	save := flag.String("save", "simulation", "Save to play")
	maxTurns := flag.Int("turns", 10, "Number of turns to play")
	flag.Parse()

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		color.Enable = false
	}

	if err := run(*configPath, *save, *maxTurns); err != nil {
		colorDenied.Printf("Simulation failed: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, save string, maxTurns int) error {
	ctx := context.Background()
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.Logging.ConsoleEnabled = false

	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("start game: %w", err)
	}
	a.Start(ctx)
	defer a.Close()

	colorHeader.Println("--- Opening the dungeon ---")
	snap, err := a.Engine.Describe(ctx, save)
	if err != nil {
		return fmt.Errorf("open save %s: %w", save, err)
	}
	fmt.Printf("Theme: %s\n", snap.Theme)
	fmt.Printf("Start: %s\n\n", snap.Description)

	for turn := 1; turn <= maxTurns; turn++ {
		colorHeader.Printf("--- Turn %d ---\n", turn)

		action := playerAction(ctx, a.Provider, snap)
		colorAction.Printf("Player Action: %s\n", action)

		res, err := a.Engine.ProcessTurn(ctx, save, action)
		if err != nil {
			colorDenied.Printf("Error processing turn: %v\n\n", err)
			continue
		}
		colorSubtle.Printf("Intent: %s %s%s | Logic: %s\n", res.Intent.Action, res.Intent.Direction, res.Intent.Target, res.Logic)
		colorOutcome.Printf("Narrator: %s\n", res.Narrative)

		snap, err = a.Engine.Describe(ctx, save)
		if err != nil {
			return fmt.Errorf("read game state: %w", err)
		}
		fmt.Printf("Room=%s Exits=%v HP=%d/%d Inventory=%v\n\n", snap.RoomID, snap.Exits, snap.HP, snap.MaxHP, snap.Inventory)
	}
	return nil
}

func playerAction(ctx context.Context, gen llm.TextGenerator, snap *engine.Snapshot) string {
	prompt, err := prompts.Render(prompts.Player, prompts.PlayerData{
		Theme:     snap.Theme,
		Room:      snap.Description,
		Exits:     snap.Exits,
		Items:     snap.Items,
		Enemies:   snap.Enemies,
		Inventory: snap.Inventory,
		History:   snap.History,
	})
	if err != nil {
		return "look"
	}

	text, err := gen.GenerateText(ctx, prompt, "")
	if err != nil {
		return "look around"
	}
	action := strings.TrimSpace(strings.Trim(strings.TrimSpace(text), "`\""))
	if action == "" {
		return "look"
	}
	return action
}

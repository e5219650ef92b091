package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/tatianab/dungeon-crawler/internal/app"
	"github.com/tatianab/dungeon-crawler/internal/config"
	"github.com/tatianab/dungeon-crawler/internal/tui"
)

func main() {
	configPath := flag.String("config", "dungeon.yaml", "Path to config YAML file")
	save := flag.String("save", "", "Save to play (default from config)")
	flag.Parse()

	if err := run(*configPath, *save); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, save string) error {
	ctx := context.Background()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	// The terminal belongs to the game; logs go to the file only.
	cfg.Logging.ConsoleEnabled = false
	cfg.Logging.FileEnabled = true
	if save != "" {
		cfg.Game.SaveID = save
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("starting game: %w", err)
	}
	a.Start(ctx)
	defer a.Close()

	if err := tui.Run(a.Engine, cfg.Game.SaveID); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}

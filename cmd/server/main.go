package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tatianab/dungeon-crawler/internal/app"
	"github.com/tatianab/dungeon-crawler/internal/config"
	"github.com/tatianab/dungeon-crawler/internal/logger"
	"github.com/tatianab/dungeon-crawler/internal/server"
)

func main() {
	configPath := flag.String("config", "dungeon.yaml", "Path to config YAML file")
	addr := flag.String("addr", "", "Listen address (default from config)")
	flag.Parse()

	if err := run(*configPath, *addr); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, addr string) (err error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("starting game: %w", err)
	}
	a.Start(ctx)
	defer func() {
		if cerr := a.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("shutdown: %w", cerr)
		}
	}()

	if err := server.New(a.Engine, cfg.Server).ListenAndServe(ctx); err != nil {
		logger.Error("Server stopped", "error", err)
		return err
	}
	return nil
}

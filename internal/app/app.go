// Package app assembles the game from its configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/tatianab/dungeon-crawler/internal/config"
	"github.com/tatianab/dungeon-crawler/internal/dungeon"
	"github.com/tatianab/dungeon-crawler/internal/engine"
	"github.com/tatianab/dungeon-crawler/internal/expansion"
	"github.com/tatianab/dungeon-crawler/internal/llm"
	"github.com/tatianab/dungeon-crawler/internal/logger"
	"github.com/tatianab/dungeon-crawler/internal/session"
	"github.com/tatianab/dungeon-crawler/internal/storage"
)

// App owns every long-lived component of a running game.
type App struct {
	Config   *config.Config
	Provider llm.Provider
	Store    storage.Store
	Sessions *session.Manager
	Worker   *expansion.Worker
	Engine   *engine.Engine

	logCloser io.Closer
	cancel    context.CancelFunc
	done      sync.WaitGroup
}

// New builds the application. Call Start to begin background expansion and Close
// when done.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logCloser, err := logger.Initialize(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}
	engine.ConfigureLocale(cfg.Locale.Path, cfg.Locale.Language)

	provider, err := llm.New(ctx, cfg.LLM)
	if err != nil {
		logCloser.Close()
		return nil, fmt.Errorf("create llm provider: %w", err)
	}

	store, err := storage.Open(cfg.Storage)
	if err != nil {
		provider.Close()
		logCloser.Close()
		return nil, fmt.Errorf("open storage: %w", err)
	}

	expander := dungeon.NewExpander(provider, cfg.Expansion.Timeout)
	builder := dungeon.NewBuilder(provider, expander, cfg.Game.RoomCount, cfg.Game.Seed)
	sessions := session.NewManager(store, builder)
	worker := expansion.NewWorker(expander, sessions, expansion.Options{
		Workers:       cfg.Expansion.Workers,
		QueueSize:     cfg.Expansion.QueueSize,
		RatePerSecond: cfg.Expansion.RatePerSecond,
	})

	logger.Info("Game assembled",
		"provider", cfg.LLM.Provider,
		"storage", cfg.Storage.Driver,
		"rooms", cfg.Game.RoomCount,
		"workers", cfg.Expansion.Workers)

	return &App{
		Config:    cfg,
		Provider:  provider,
		Store:     store,
		Sessions:  sessions,
		Worker:    worker,
		Engine:    engine.NewEngine(provider, provider, sessions, worker),
		logCloser: logCloser,
	}, nil
}

// Start runs the expansion workers until Close is called or ctx is done.
func (a *App) Start(ctx context.Context) {
	ctx, a.cancel = context.WithCancel(ctx)
	a.done.Add(1)
	go func() {
		defer a.done.Done()
		a.Worker.Run(ctx)
	}()
}

// Close stops the workers and releases the provider, the store and the log file.
func (a *App) Close() error {
	if a.cancel != nil {
		a.cancel()
	}
	a.done.Wait()

	var errs []error
	if err := a.Provider.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close provider: %w", err))
	}
	if err := a.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close storage: %w", err))
	}
	logger.Info("Game stopped")
	if err := a.logCloser.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close log: %w", err))
	}
	return errors.Join(errs...)
}

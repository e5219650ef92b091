// Package storage persists game states, one document per save id.
package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/tatianab/dungeon-crawler/internal/config"
	"github.com/tatianab/dungeon-crawler/internal/models"
)

// ErrNotFound is returned by Load when no save exists for the id.
var ErrNotFound = errors.New("save not found")

// Store saves and loads full game states. Every Save rewrites the whole document.
type Store interface {
	Save(ctx context.Context, id string, state *models.GameState) error
	Load(ctx context.Context, id string) (*models.GameState, error)
	// List returns the ids of all saves.
	List(ctx context.Context) ([]string, error)
	Close() error
}

var validID = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidateID rejects ids that could escape the save directory or bloat keys.
func ValidateID(id string) error {
	if !validID.MatchString(id) {
		return fmt.Errorf("invalid save id %q", id)
	}
	return nil
}

// Open builds the store named by cfg.Driver.
func Open(cfg config.StorageConfig) (Store, error) {
	switch cfg.Driver {
	case "", "file":
		return NewFileStore(cfg.SaveDir)
	case "sqlite":
		return OpenSQL(DialectSQLite, cfg.SQLitePath)
	case "postgres":
		return OpenSQL(DialectPostgres, PostgresDSN(cfg.Postgres))
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}

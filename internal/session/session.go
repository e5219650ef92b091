// Package session keeps the live game states, one per save id.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/tatianab/dungeon-crawler/internal/logger"
	"github.com/tatianab/dungeon-crawler/internal/models"
	"github.com/tatianab/dungeon-crawler/internal/storage"
)

// Session owns one game state. Hold the lock while reading or mutating State.
type Session struct {
	ID    string
	State *models.GameState

	mu sync.Mutex
}

func (s *Session) Lock()   { s.mu.Lock() }
func (s *Session) Unlock() { s.mu.Unlock() }

// WorldBuilder creates a fresh game when no save exists.
type WorldBuilder interface {
	NewWorld(ctx context.Context) (*models.GameState, error)
}

// Manager loads, creates and caches sessions.
type Manager struct {
	store   storage.Store
	builder WorldBuilder

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(store storage.Store, builder WorldBuilder) *Manager {
	return &Manager{
		store:    store,
		builder:  builder,
		sessions: make(map[string]*Session),
	}
}

// Get returns the session for id, loading its save or generating and saving a new
// world the first time. Concurrent callers for the same id share one load. A failed
// load leaves the empty session cached so there is only ever one per id; the next
// Get retries.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	if err := storage.ValidateID(id); err != nil {
		return nil, err
	}

	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok {
		s = &Session{ID: id}
		m.sessions[id] = s
	}
	m.mu.Unlock()

	s.Lock()
	defer s.Unlock()
	if s.State != nil {
		return s, nil
	}

	state, err := m.loadOrCreate(ctx, id)
	if err != nil {
		return nil, err
	}
	s.State = state
	return s, nil
}

func (m *Manager) loadOrCreate(ctx context.Context, id string) (*models.GameState, error) {
	state, err := m.store.Load(ctx, id)
	if err == nil {
		if err := state.Validate(); err != nil {
			return nil, fmt.Errorf("save %s is corrupt: %w", id, err)
		}
		logger.Info("loaded game", "save", id, "rooms", len(state.Rooms))
		return state, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	logger.Info("no save found, generating a new world", "save", id)
	state, err = m.builder.NewWorld(ctx)
	if err != nil {
		return nil, fmt.Errorf("generate world for %s: %w", id, err)
	}
	if err := m.store.Save(ctx, id, state); err != nil {
		return nil, fmt.Errorf("save new world %s: %w", id, err)
	}
	return state, nil
}

// Save persists the session's state. The caller must hold the session lock.
func (m *Manager) Save(ctx context.Context, s *Session) error {
	return m.store.Save(ctx, s.ID, s.State)
}

// Saves returns the ids of every stored save, whether or not it is in memory.
func (m *Manager) Saves(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

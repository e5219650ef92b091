package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/tatianab/dungeon-crawler/internal/config"
	"github.com/tatianab/dungeon-crawler/internal/models"
)

func sampleState() *models.GameState {
	r0 := models.NewRoom("room_0")
	r1 := models.NewRoom("room_1")
	r0.Exits["east"] = "room_1"
	r1.Exits["west"] = "room_0"
	r0.Description = "A salt-crusted nave."
	r0.IsGenerated = true
	r0.IsVisited = true
	r0.Items = append(r0.Items, models.Item{Name: "Brass Key", Type: models.ItemKey, IsGenerated: true})
	r1.Enemies = append(r1.Enemies, models.Enemy{Name: "Drowned Monk", Type: models.EnemyUndead, HP: 10, MaxHP: 10})

	player := models.NewPlayer("room_0")
	player.Inventory = append(player.Inventory, models.Item{Name: "Lantern", Type: models.ItemOther})
	return &models.GameState{
		Theme:   "Drowned cathedral",
		Player:  player,
		Rooms:   map[string]*models.Room{"room_0": r0, "room_1": r1},
		History: []string{"Welcome to the dungeon. Theme: Drowned cathedral"},
	}
}

func testStoreRoundTrip(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := store.Load(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}

	state := sampleState()
	if err := store.Save(ctx, "slot_1", state); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	got, err := store.Load(ctx, "slot_1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !reflect.DeepEqual(state, got) {
		t.Errorf("Round trip mismatch:\nwant %+v\ngot  %+v", state, got)
	}

	state.AppendHistory("Action: look | Result: Salt glitters.")
	state.Player.CurrentRoomID = "room_1"
	if err := store.Save(ctx, "slot_1", state); err != nil {
		t.Fatalf("Second save failed: %v", err)
	}
	got, err = store.Load(ctx, "slot_1")
	if err != nil {
		t.Fatalf("Second load failed: %v", err)
	}
	if len(got.History) != 2 || got.Player.CurrentRoomID != "room_1" {
		t.Errorf("Overwrite not persisted: %+v", got)
	}

	if err := store.Save(ctx, "../escape", state); err == nil {
		t.Error("Expected invalid id to be rejected")
	}
}

func TestFileStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "saves")
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	testStoreRoundTrip(t, store)

	data, err := os.ReadFile(filepath.Join(dir, "slot_1.json"))
	if err != nil {
		t.Fatalf("Save file missing: %v", err)
	}
	if !strings.Contains(string(data), "\n  \"player\": {") {
		t.Errorf("Expected human-readable JSON, got %s", data)
	}

	ids, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if !reflect.DeepEqual(ids, []string{"slot_1"}) {
		t.Errorf("Expected [slot_1], got %v", ids)
	}
}

func TestSQLiteStore(t *testing.T) {
	store, err := OpenSQL(DialectSQLite, filepath.Join(t.TempDir(), "db", "dungeon.db"))
	if err != nil {
		t.Fatalf("OpenSQL failed: %v", err)
	}
	defer store.Close()

	testStoreRoundTrip(t, store)

	ids, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if !reflect.DeepEqual(ids, []string{"slot_1"}) {
		t.Errorf("Expected [slot_1], got %v", ids)
	}
}

func TestOpenSelectsDriver(t *testing.T) {
	dir := t.TempDir()

	store, err := Open(config.StorageConfig{Driver: "file", SaveDir: dir})
	if err != nil {
		t.Fatalf("Open(file) failed: %v", err)
	}
	if _, ok := store.(*FileStore); !ok {
		t.Errorf("Expected *FileStore, got %T", store)
	}

	store, err = Open(config.StorageConfig{Driver: "sqlite", SQLitePath: filepath.Join(dir, "d.db")})
	if err != nil {
		t.Fatalf("Open(sqlite) failed: %v", err)
	}
	defer store.Close()
	if _, ok := store.(*SQLStore); !ok {
		t.Errorf("Expected *SQLStore, got %T", store)
	}

	if _, err := Open(config.StorageConfig{Driver: "tape"}); err == nil {
		t.Error("Expected error for unknown driver")
	}
}

func TestDialectPlaceholders(t *testing.T) {
	if got := NewDialect(DialectSQLite).Placeholder(3); got != "?" {
		t.Errorf("sqlite placeholder = %q", got)
	}
	if got := NewDialect(DialectPostgres).Placeholder(3); got != "$3" {
		t.Errorf("postgres placeholder = %q", got)
	}
}

func TestPostgresDSN(t *testing.T) {
	dsn := PostgresDSN(config.PostgresConfig{Host: "db", Port: 5432, User: "u", Password: "p", Database: "dungeon", SSLMode: "disable"})
	want := "host=db port=5432 user=u password=p dbname=dungeon sslmode=disable"
	if dsn != want {
		t.Errorf("PostgresDSN = %q, want %q", dsn, want)
	}
}

package expansion

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tatianab/dungeon-crawler/internal/dungeon"
	"github.com/tatianab/dungeon-crawler/internal/llm/llmtest"
	"github.com/tatianab/dungeon-crawler/internal/models"
	"github.com/tatianab/dungeon-crawler/internal/session"
)

type countingSaver struct {
	saves atomic.Int32
}

func (c *countingSaver) Save(ctx context.Context, s *session.Session) error {
	c.saves.Add(1)
	return nil
}

func newSession(id string, rooms int) *session.Session {
	state := &models.GameState{
		Theme:  "Clockwork tomb",
		Player: models.NewPlayer(models.StartRoomID),
		Rooms:  map[string]*models.Room{},
	}
	for i := 0; i < rooms; i++ {
		room := models.NewRoom(fmt.Sprintf("room_%d", i))
		state.Rooms[room.ID] = room
	}
	state.Rooms[models.StartRoomID].IsGenerated = true
	return &session.Session{ID: id, State: state}
}

const roomJSON = `{"description": "Gears grind in the walls.", "enemies": [{"name": "Brass Hound", "type": "construct"}]}`

func TestProcessFillsRoom(t *testing.T) {
	fake := &llmtest.Fake{Text: roomJSON}
	saver := &countingSaver{}
	w := NewWorker(dungeon.NewExpander(fake, time.Second), saver, Options{})
	s := newSession("save", 3)

	if !w.Process(context.Background(), Job{Session: s, RoomID: "room_1", Previous: "A cold hall."}) {
		t.Fatal("Expected room to be filled")
	}

	room := s.State.Rooms["room_1"]
	if !room.IsGenerated || room.Description != "Gears grind in the walls." {
		t.Errorf("Unexpected room %+v", room)
	}
	if len(room.Enemies) != 1 || room.Enemies[0].Type != models.EnemyConstruct {
		t.Errorf("Unexpected enemies %+v", room.Enemies)
	}
	if saver.saves.Load() != 1 {
		t.Errorf("Expected one save, got %d", saver.saves.Load())
	}
}

func TestProcessSkipsGeneratedRoom(t *testing.T) {
	fake := &llmtest.Fake{Text: roomJSON}
	w := NewWorker(dungeon.NewExpander(fake, 0), nil, Options{})
	s := newSession("save", 2)

	if w.Process(context.Background(), Job{Session: s, RoomID: models.StartRoomID}) {
		t.Error("Generated room should be skipped")
	}
	if w.Process(context.Background(), Job{Session: s, RoomID: "room_42"}) {
		t.Error("Unknown room should be skipped")
	}
	if fake.CallCount() != 0 {
		t.Errorf("Expected no model calls, got %d", fake.CallCount())
	}
}

func TestProcessDoesNotOverwriteRoomGeneratedMeanwhile(t *testing.T) {
	s := newSession("save", 2)
	fake := &llmtest.Fake{Respond: func(prompt, system string) (string, error) {
		s.Lock()
		room := s.State.Rooms["room_1"]
		room.Description = "Filled by someone else."
		room.IsGenerated = true
		s.Unlock()
		return roomJSON, nil
	}}
	saver := &countingSaver{}
	w := NewWorker(dungeon.NewExpander(fake, 0), saver, Options{})

	if w.Process(context.Background(), Job{Session: s, RoomID: "room_1"}) {
		t.Error("Expected late result to be discarded")
	}
	if got := s.State.Rooms["room_1"].Description; got != "Filled by someone else." {
		t.Errorf("Room overwritten: %q", got)
	}
	if saver.saves.Load() != 0 {
		t.Error("Nothing should be saved for a discarded result")
	}
}

func TestProcessCancelledLeavesRoomUngenerated(t *testing.T) {
	fake := &llmtest.Fake{Text: roomJSON}
	w := NewWorker(dungeon.NewExpander(fake, 0), nil, Options{})
	s := newSession("save", 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if w.Process(ctx, Job{Session: s, RoomID: "room_1"}) {
		t.Error("Cancelled job should not apply")
	}
	if s.State.Rooms["room_1"].IsGenerated {
		t.Error("Room should stay ungenerated for a later retry")
	}
}

func TestEnqueueDedupesAndBounds(t *testing.T) {
	w := NewWorker(dungeon.NewExpander(&llmtest.Fake{}, 0), nil, Options{QueueSize: 1})
	s := newSession("save", 3)

	if !w.Enqueue(Job{Session: s, RoomID: "room_1"}) {
		t.Fatal("First enqueue should succeed")
	}
	if w.Enqueue(Job{Session: s, RoomID: "room_1"}) {
		t.Error("Duplicate job should be refused")
	}
	if w.Enqueue(Job{Session: s, RoomID: "room_2"}) {
		t.Error("Full queue should refuse")
	}
}

func TestRunDrainsQueue(t *testing.T) {
	fake := &llmtest.Fake{Text: roomJSON}
	saver := &countingSaver{}
	w := NewWorker(dungeon.NewExpander(fake, time.Second), saver, Options{Workers: 2, QueueSize: 8, RatePerSecond: 1000})
	s := newSession("save", 4)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	for _, id := range []string{"room_1", "room_2", "room_3"} {
		if !w.Enqueue(Job{Session: s, RoomID: id}) {
			t.Fatalf("Enqueue %s failed", id)
		}
	}
	w.Wait()

	s.Lock()
	for _, id := range []string{"room_1", "room_2", "room_3"} {
		if !s.State.Rooms[id].IsGenerated {
			t.Errorf("%s should be generated", id)
		}
	}
	s.Unlock()
	if saver.saves.Load() != 3 {
		t.Errorf("Expected 3 saves, got %d", saver.saves.Load())
	}
	if !w.Enqueue(Job{Session: s, RoomID: "room_1"}) {
		t.Error("A finished room should be accepted again")
	}
	w.Wait()
	if saver.saves.Load() != 3 {
		t.Errorf("Generated room should not be saved again, got %d saves", saver.saves.Load())
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

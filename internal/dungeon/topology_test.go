package dungeon

import (
	"math/rand"
	"reflect"
	"testing"

	"github.com/tatianab/dungeon-crawler/internal/models"
)

func reachable(rooms map[string]*models.Room) map[string]bool {
	seen := map[string]bool{models.StartRoomID: true}
	stack := []string{models.StartRoomID}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, next := range rooms[id].Exits {
			if !seen[next] {
				seen[next] = true
				stack = append(stack, next)
			}
		}
	}
	return seen
}

func TestGenerateTopologyProperties(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		for _, n := range []int{1, 2, 3, 5, 10, 25, 60} {
			rooms := GenerateTopology(n, rand.New(rand.NewSource(seed)))

			if len(rooms) != n {
				t.Fatalf("seed %d: GenerateTopology(%d) returned %d rooms", seed, n, len(rooms))
			}
			if got := len(reachable(rooms)); got != n {
				t.Errorf("seed %d, n %d: %d rooms reachable from room_0", seed, n, got)
			}
			for id, room := range rooms {
				if room.ID != id {
					t.Errorf("room keyed %s has id %s", id, room.ID)
				}
				for dir, target := range room.Exits {
					d, ok := models.ParseDirection(dir)
					if !ok {
						t.Fatalf("room %s has bad direction %q", id, dir)
					}
					if back := rooms[target].Exits[string(d.Opposite())]; back != id {
						t.Errorf("seed %d: %s -%s-> %s but way back leads to %q", seed, id, dir, target, back)
					}
				}
				if room.IsGenerated || room.Description != "" {
					t.Errorf("room %s should start as an empty stub", id)
				}
			}
		}
	}
}

func TestGenerateTopologyIDs(t *testing.T) {
	rooms := GenerateTopology(8, rand.New(rand.NewSource(3)))
	for i := 0; i < 8; i++ {
		id := "room_" + string(rune('0'+i))
		if _, ok := rooms[id]; !ok {
			t.Errorf("Expected room %s", id)
		}
	}
}

func TestGenerateTopologyDeterministic(t *testing.T) {
	a := GenerateTopology(15, rand.New(rand.NewSource(99)))
	b := GenerateTopology(15, rand.New(rand.NewSource(99)))
	if !reflect.DeepEqual(a, b) {
		t.Error("Same seed produced different dungeons")
	}
}

func TestGenerateTopologyClampsCount(t *testing.T) {
	rooms := GenerateTopology(0, rand.New(rand.NewSource(1)))
	if len(rooms) != 1 {
		t.Fatalf("Expected a single room, got %d", len(rooms))
	}
	if len(rooms[models.StartRoomID].Exits) != 0 {
		t.Error("A lone room should have no exits")
	}
}

// Package dungeon builds dungeon worlds: the room graph, LLM-authored room content
// and the initial game state.
package dungeon

import (
	"fmt"
	"math/rand"

	"github.com/tatianab/dungeon-crawler/internal/models"
	"github.com/zyedidia/generic/queue"
)

type cell struct {
	x, y int
}

func (c cell) step(d models.Direction) cell {
	switch d {
	case models.North:
		return cell{c.x, c.y + 1}
	case models.South:
		return cell{c.x, c.y - 1}
	case models.East:
		return cell{c.x + 1, c.y}
	case models.West:
		return cell{c.x - 1, c.y}
	}
	return c
}

// GenerateTopology lays out count rooms on an implicit grid, breadth first from
// room_0 at (0,0). Direction order is shuffled per room with rng, so the same seed
// always yields the same dungeon. Every room is reachable from room_0 and every
// exit has a matching exit back.
func GenerateTopology(count int, rng *rand.Rand) map[string]*models.Room {
	if count < 1 {
		count = 1
	}

	rooms := make(map[string]*models.Room, count)
	grid := make(map[cell]*models.Room, count)

	start := models.NewRoom(models.StartRoomID)
	rooms[start.ID] = start
	grid[cell{}] = start

	created := 1
	frontier := queue.New[cell]()
	frontier.Enqueue(cell{})

	for created < count && !frontier.Empty() {
		pos := frontier.Dequeue()
		current := grid[pos]

		dirs := models.Directions()
		rng.Shuffle(len(dirs), func(i, j int) { dirs[i], dirs[j] = dirs[j], dirs[i] })

		for _, dir := range dirs {
			if created >= count {
				break
			}

			next := pos.step(dir)
			neighbor, ok := grid[next]
			if !ok {
				neighbor = models.NewRoom(fmt.Sprintf("room_%d", created))
				rooms[neighbor.ID] = neighbor
				grid[next] = neighbor
				created++
				frontier.Enqueue(next)
			}

			if _, linked := current.Exits[string(dir)]; linked {
				continue
			}
			current.Exits[string(dir)] = neighbor.ID
			neighbor.Exits[string(dir.Opposite())] = current.ID
		}
	}

	return rooms
}

package engine

import (
	"strings"

	"github.com/tatianab/dungeon-crawler/internal/llm"
	"github.com/tatianab/dungeon-crawler/internal/models"
)

// Expansion names a room that should be filled in the background.
type Expansion struct {
	RoomID   string
	Previous string
}

// Outcome is the logic result of one intent, before narration.
type Outcome struct {
	Result     string
	Expansions []Expansion
}

// Resolve applies intent to state and describes what happened. It does no I/O.
func Resolve(state *models.GameState, intent llm.Intent) Outcome {
	room := state.CurrentRoom()

	switch intent.Action {
	case llm.ActionMove:
		return move(state, room, intent)
	case llm.ActionLook:
		return Outcome{Result: look(room)}
	case llm.ActionTake:
		return Outcome{Result: take(state, room, intent.Target)}
	case llm.ActionAttack:
		return Outcome{Result: attack(room, intent.Target)}
	case llm.ActionInventory:
		return Outcome{Result: inventory(state)}
	}
	return Outcome{Result: tr("You do that, but nothing happens.")}
}

func moveDirection(intent llm.Intent) string {
	raw := intent.Direction
	if raw == "" {
		raw = intent.Target
	}
	if d, ok := models.ParseDirection(raw); ok {
		return string(d)
	}
	return strings.ToLower(strings.TrimSpace(raw))
}

func move(state *models.GameState, room *models.Room, intent llm.Intent) Outcome {
	dir := moveDirection(intent)
	nextID, ok := room.Exits[dir]
	if !ok {
		return Outcome{Result: tr("You cannot go %s.", dir)}
	}

	state.Player.CurrentRoomID = nextID
	next := state.Rooms[nextID]
	next.IsVisited = true

	var sb strings.Builder
	sb.WriteString(tr("You move %s. ", dir))
	sb.WriteString(next.Description)
	for _, e := range next.Enemies {
		sb.WriteString(" ")
		sb.WriteString(tr("There is a %s here.", e.Name))
	}
	for _, it := range next.Items {
		sb.WriteString(" ")
		sb.WriteString(tr("You see a %s.", it.Name))
	}

	out := Outcome{Result: sb.String()}
	if !next.IsGenerated {
		out.Expansions = append(out.Expansions, Expansion{RoomID: next.ID, Previous: room.Description})
	}
	for _, d := range next.ExitDirections() {
		neighbor := state.Rooms[next.Exits[d]]
		if neighbor != nil && !neighbor.IsGenerated {
			out.Expansions = append(out.Expansions, Expansion{RoomID: neighbor.ID, Previous: next.Description})
		}
	}
	return out
}

func look(room *models.Room) string {
	result := room.Description
	if len(room.Enemies) > 0 {
		result += " " + tr("Enemies: %s", joinNames(room.EnemyNames()))
	}
	if len(room.Items) > 0 {
		result += " " + tr("Items: %s", joinNames(room.ItemNames()))
	}
	return result
}

func take(state *models.GameState, room *models.Room, target string) string {
	target = strings.ToLower(strings.TrimSpace(target))
	if target == "" {
		return tr("Take what?")
	}
	for i, it := range room.Items {
		if strings.Contains(strings.ToLower(it.Name), target) {
			room.Items = append(room.Items[:i:i], room.Items[i+1:]...)
			state.Player.Inventory = append(state.Player.Inventory, it)
			return tr("You took the %s.", it.Name)
		}
	}
	return tr("There is no %s here.", target)
}

func attack(room *models.Room, target string) string {
	target = strings.ToLower(strings.TrimSpace(target))
	if target == "" {
		return tr("Attack what?")
	}
	for i, e := range room.Enemies {
		if strings.Contains(strings.ToLower(e.Name), target) {
			room.Enemies = append(room.Enemies[:i:i], room.Enemies[i+1:]...)
			return tr("You defeated the %s!", e.Name)
		}
	}
	return tr("There is no %s here to attack.", target)
}

func inventory(state *models.GameState) string {
	if len(state.Player.Inventory) == 0 {
		return tr("Your inventory is empty.")
	}
	names := make([]string, 0, len(state.Player.Inventory))
	for _, it := range state.Player.Inventory {
		names = append(names, it.Name)
	}
	return tr("You have: %s", joinNames(names))
}

package models

import (
	"fmt"
	"strings"
)

// StartRoomID is the entry point of every dungeon.
const StartRoomID = "room_0"

const (
	DefaultPlayerHP = 100
	DefaultEnemyHP  = 10
)

// Direction is a cardinal exit direction. Exits are keyed by its string value.
type Direction string

const (
	North Direction = "north"
	South Direction = "south"
	East  Direction = "east"
	West  Direction = "west"
)

// Directions lists the cardinal directions in a fixed order.
func Directions() []Direction {
	return []Direction{North, South, East, West}
}

func (d Direction) Opposite() Direction {
	switch d {
	case North:
		return South
	case South:
		return North
	case East:
		return West
	case West:
		return East
	}
	return North
}

// ParseDirection accepts full names and single-letter abbreviations in any case.
func ParseDirection(s string) (Direction, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "north", "n":
		return North, true
	case "south", "s":
		return South, true
	case "east", "e":
		return East, true
	case "west", "w":
		return West, true
	}
	return "", false
}

type ItemType string

const (
	ItemWeapon   ItemType = "weapon"
	ItemPotion   ItemType = "potion"
	ItemArmor    ItemType = "armor"
	ItemKey      ItemType = "key"
	ItemTreasure ItemType = "treasure"
	ItemOther    ItemType = "other"
)

// ParseItemType maps unknown or empty values to ItemOther.
func ParseItemType(s string) ItemType {
	switch t := ItemType(strings.ToLower(strings.TrimSpace(s))); t {
	case ItemWeapon, ItemPotion, ItemArmor, ItemKey, ItemTreasure:
		return t
	}
	return ItemOther
}

type EnemyType string

const (
	EnemyBeast     EnemyType = "beast"
	EnemyUndead    EnemyType = "undead"
	EnemyHumanoid  EnemyType = "humanoid"
	EnemyConstruct EnemyType = "construct"
	EnemyDemon     EnemyType = "demon"
	EnemyOther     EnemyType = "other"
)

// ParseEnemyType maps unknown or empty values to EnemyOther.
func ParseEnemyType(s string) EnemyType {
	switch t := EnemyType(strings.ToLower(strings.TrimSpace(s))); t {
	case EnemyBeast, EnemyUndead, EnemyHumanoid, EnemyConstruct, EnemyDemon:
		return t
	}
	return EnemyOther
}

// Item is something the player can pick up. IsGenerated marks LLM-authored items.
type Item struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Type        ItemType `json:"type"`
	IsGenerated bool     `json:"is_generated"`
}

// Enemy is a room occupant. HP is tracked but combat is decided in one blow.
type Enemy struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Type        EnemyType `json:"type"`
	HP          int       `json:"hp"`
	MaxHP       int       `json:"max_hp"`
	IsGenerated bool      `json:"is_generated"`
}

// Room is a node of the dungeon graph. Exits map a direction to a room id.
type Room struct {
	ID          string            `json:"id"`
	Exits       map[string]string `json:"exits"`
	Description string            `json:"description"`
	Items       []Item            `json:"items"`
	Enemies     []Enemy           `json:"enemies"`
	IsVisited   bool              `json:"is_visited"`
	IsGenerated bool              `json:"is_generated"`
}

func NewRoom(id string) *Room {
	return &Room{
		ID:      id,
		Exits:   make(map[string]string),
		Items:   []Item{},
		Enemies: []Enemy{},
	}
}

// ExitDirections returns the room's exit directions in north, south, east, west order.
func (r *Room) ExitDirections() []string {
	var dirs []string
	for _, d := range Directions() {
		if _, ok := r.Exits[string(d)]; ok {
			dirs = append(dirs, string(d))
		}
	}
	return dirs
}

func (r *Room) ItemNames() []string {
	names := make([]string, 0, len(r.Items))
	for _, it := range r.Items {
		names = append(names, it.Name)
	}
	return names
}

func (r *Room) EnemyNames() []string {
	names := make([]string, 0, len(r.Enemies))
	for _, e := range r.Enemies {
		names = append(names, e.Name)
	}
	return names
}

// PlayerState is the single player of a game.
type PlayerState struct {
	HP            int    `json:"hp"`
	MaxHP         int    `json:"max_hp"`
	Inventory     []Item `json:"inventory"`
	CurrentRoomID string `json:"current_room_id"`
}

func NewPlayer(roomID string) PlayerState {
	return PlayerState{
		HP:            DefaultPlayerHP,
		MaxHP:         DefaultPlayerHP,
		Inventory:     []Item{},
		CurrentRoomID: roomID,
	}
}

// GameState is the authoritative world of one save.
type GameState struct {
	Theme   string           `json:"theme"`
	Player  PlayerState      `json:"player"`
	Rooms   map[string]*Room `json:"rooms"`
	History []string         `json:"history"`
}

// CurrentRoom returns the room the player stands in, or nil if the state is corrupt.
func (s *GameState) CurrentRoom() *Room {
	return s.Rooms[s.Player.CurrentRoomID]
}

// AppendHistory records one entry. History is never truncated.
func (s *GameState) AppendHistory(entry string) {
	s.History = append(s.History, entry)
}

// Validate checks that the player stands in an existing room and that every exit
// has a matching exit back.
func (s *GameState) Validate() error {
	if _, ok := s.Rooms[s.Player.CurrentRoomID]; !ok {
		return fmt.Errorf("player is in unknown room %q", s.Player.CurrentRoomID)
	}
	for id, room := range s.Rooms {
		if room.ID != id {
			return fmt.Errorf("room keyed %q has id %q", id, room.ID)
		}
		for dir, target := range room.Exits {
			d, ok := ParseDirection(dir)
			if !ok {
				return fmt.Errorf("room %s has invalid exit direction %q", id, dir)
			}
			other, ok := s.Rooms[target]
			if !ok {
				return fmt.Errorf("room %s exits %s to unknown room %q", id, dir, target)
			}
			if other.Exits[string(d.Opposite())] != id {
				return fmt.Errorf("exit %s -%s-> %s has no way back", id, dir, target)
			}
		}
	}
	return nil
}

// Normalize fills nil collections and zero hit points left by older or hand-edited saves.
func (s *GameState) Normalize() {
	if s.Rooms == nil {
		s.Rooms = make(map[string]*Room)
	}
	if s.History == nil {
		s.History = []string{}
	}
	if s.Player.Inventory == nil {
		s.Player.Inventory = []Item{}
	}
	if s.Player.MaxHP == 0 {
		s.Player.MaxHP = DefaultPlayerHP
		s.Player.HP = DefaultPlayerHP
	}
	for _, room := range s.Rooms {
		if room.Exits == nil {
			room.Exits = make(map[string]string)
		}
		if room.Items == nil {
			room.Items = []Item{}
		}
		if room.Enemies == nil {
			room.Enemies = []Enemy{}
		}
	}
}

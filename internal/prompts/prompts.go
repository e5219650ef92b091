// Package prompts renders the LLM prompt templates.
package prompts

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed templates/*.txt
var files embed.FS

const (
	Theme      = "theme.txt"
	ExpandRoom = "expand_room.txt"
	Narrate    = "narrate.txt"
	Classify   = "classify.txt"
	Player     = "player.txt"
)

// System prompts sent alongside the templates.
const (
	DungeonMasterSystem = "You are a creative dungeon master."
	GeneratorSystem     = "You are a dungeon generator. Output valid JSON only."
	NarratorSystem      = "You are the narrator of a dark dungeon crawler. Answer in plain prose."
	ClassifierSystem    = "You are a game command parser. Output valid JSON only."
)

var templates = template.Must(
	template.New("prompts").
		Funcs(template.FuncMap{"join": strings.Join}).
		ParseFS(files, "templates/*.txt"),
)

// Render executes the named template with data.
func Render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render prompt %s: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

type ExpandRoomData struct {
	Theme    string
	RoomID   string
	Exits    []string
	Previous string
}

type NarrateData struct {
	Theme  string
	Room   string
	Input  string
	Result string
}

type ClassifyData struct {
	Input string
}

type PlayerData struct {
	Theme     string
	Room      string
	Exits     []string
	Items     []string
	Enemies   []string
	Inventory []string
	History   []string
}

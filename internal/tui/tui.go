package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tatianab/dungeon-crawler/internal/engine"
)

// Game is the part of the engine the terminal client drives.
type Game interface {
	ProcessTurn(ctx context.Context, sessionID, input string) (*engine.TurnResult, error)
	Describe(ctx context.Context, sessionID string) (*engine.Snapshot, error)
	Saves(ctx context.Context) ([]string, error)
}

type sessionState int

const (
	stateSaveInput sessionState = iota
	stateLoading
	statePlaying
	stateError
)

type model struct {
	state       sessionState
	game        Game
	saveID      string
	snapshot    *engine.Snapshot
	textInput   textinput.Model
	viewport    viewport.Model
	err         error
	gameLog     string
	width       int
	height      int
	busy        bool
	defaultSave string
	saves       []string
}

var (
	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EEEEEE")).
			Background(lipgloss.Color("#5F5F87")).
			Bold(true).
			PaddingLeft(1)

	gameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F5F")).
			Italic(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Italic(true)

	stateStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("#3C3C3C")).
			PaddingLeft(2).
			Foreground(lipgloss.Color("#AAAAAA"))

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFA500")).
			Bold(true).
			Underline(true)
)

func NewModel(game Game, defaultSave string) model {
	ti := textinput.New()
	ti.Placeholder = fmt.Sprintf("Save name (default %q)...", defaultSave)
	ti.Focus()
	ti.CharLimit = 64
	ti.Width = 40

	return model{
		state:       stateSaveInput,
		game:        game,
		textInput:   ti,
		defaultSave: defaultSave,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.listSaves())
}

type savesMsg struct {
	saves []string
}

type loadedMsg struct {
	snapshot *engine.Snapshot
}

type turnProcessedMsg struct {
	result   *engine.TurnResult
	snapshot *engine.Snapshot
	err      error
}

type errMsg struct {
	err error
}

func (m model) logWidth() int {
	return int(float64(m.width) * 0.75)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit

		case tea.KeyEnter:
			if m.state == stateSaveInput {
				m.saveID = m.pickSave(m.textInput.Value())
				m.state = stateLoading
				m.textInput.Reset()
				return m, m.load()
			}
			if m.state == statePlaying && !m.busy {
				action := strings.TrimSpace(m.textInput.Value())
				if action == "" {
					return m, nil
				}
				m.textInput.Reset()

				switch action {
				case "/quit":
					return m, tea.Quit
				case "/switch":
					m.state = stateSaveInput
					m.gameLog = ""
					m.snapshot = nil
					m.textInput.Placeholder = fmt.Sprintf("Save name (default %q)...", m.defaultSave)
					return m, m.listSaves()
				}

				styledAction := userStyle.Width(m.logWidth()).Render("> " + action)
				m.gameLog += "\n\n" + styledAction + "\n\n"
				m.viewport.SetContent(m.gameLog)
				m.viewport.GotoBottom()
				m.busy = true
				return m, m.processTurn(action)
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = m.logWidth()
		m.viewport.Height = msg.Height - 6
		if m.state == statePlaying {
			m.viewport.SetContent(m.gameLog)
		}

	case savesMsg:
		m.saves = msg.saves
		return m, nil

	case loadedMsg:
		m.snapshot = msg.snapshot
		m.state = statePlaying
		header := gameStyle.Bold(true).Render(m.snapshot.Theme)
		var recent strings.Builder
		for _, h := range m.snapshot.History {
			recent.WriteString(h + "\n")
		}
		description := gameStyle.Width(m.logWidth()).Render(recent.String() + "\n" + m.snapshot.Description)
		m.gameLog = header + "\n\n" + description + "\n\n"
		if m.viewport.Width == 0 {
			m.viewport = viewport.New(m.logWidth(), m.height-6)
		}
		m.viewport.SetContent(m.gameLog)
		m.textInput.Placeholder = "What do you do?"
		m.textInput.Reset()
		return m, nil

	case turnProcessedMsg:
		m.busy = false
		if msg.err != nil {
			// A failed turn leaves the game playable.
			m.gameLog += errorStyle.Width(m.logWidth()).Render("The dungeon is silent: "+msg.err.Error()) + "\n\n"
		} else {
			m.gameLog += gameStyle.Width(m.logWidth()).Render(msg.result.Narrative) + "\n\n"
		}
		if msg.snapshot != nil {
			m.snapshot = msg.snapshot
		}
		m.viewport.SetContent(m.gameLog)
		m.viewport.GotoBottom()
		return m, nil

	case errMsg:
		m.err = msg.err
		m.state = stateError
		return m, nil
	}

	if m.state == stateSaveInput || m.state == statePlaying {
		m.textInput, cmd = m.textInput.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m model) View() string {
	var s string

	switch m.state {
	case stateSaveInput:
		s = fmt.Sprintf(
			"Welcome to the Dungeon!\n\n%s\n\n%s%s",
			"Which save do you want to play? Pick a number or type a new name to start a fresh dungeon.",
			m.renderSaves(),
			m.textInput.View(),
		)

	case stateLoading:
		s = "\n  Opening the dungeon... please wait.\n"

	case statePlaying:
		mainView := lipgloss.JoinHorizontal(lipgloss.Top,
			m.viewport.View(),
			m.renderState(),
		)

		help := helpStyle.Render("Commands: /switch, /quit, or just type what you want to do.")
		if m.busy {
			help = helpStyle.Render("The dungeon master is thinking...")
		}

		s = lipgloss.JoinVertical(lipgloss.Left,
			mainView,
			"\n"+m.textInput.View(),
			"\n"+help,
		)

	case stateError:
		s = fmt.Sprintf("\n  Error: %v\n\nPress Esc to quit.", m.err)
	}

	return "\n" + s + "\n"
}

func listOrNone(names []string) string {
	if len(names) == 0 {
		return "(none)\n"
	}
	var b strings.Builder
	for _, n := range names {
		b.WriteString("- " + n + "\n")
	}
	return b.String()
}

// pickSave resolves the picker input: a number selects a listed save, anything else
// is a save name, and nothing selects the default.
func (m model) pickSave(input string) string {
	input = strings.TrimSpace(input)
	if input == "" {
		return m.defaultSave
	}
	if n, err := strconv.Atoi(input); err == nil && n >= 1 && n <= len(m.saves) {
		return m.saves[n-1]
	}
	return input
}

func (m model) renderSaves() string {
	if len(m.saves) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("SAVES") + "\n")
	for i, id := range m.saves {
		b.WriteString(fmt.Sprintf("%d. %s\n", i+1, id))
	}
	return b.String() + "\n"
}

func (m model) renderState() string {
	snap := m.snapshot
	if snap == nil {
		return ""
	}

	location := titleStyle.Render("LOCATION") + "\n" + snap.RoomID + "\n"
	location += "Exits: " + strings.Join(snap.Exits, ", ") + "\n\n"

	stats := titleStyle.Render("HEALTH") + "\n" + fmt.Sprintf("%d/%d\n\n", snap.HP, snap.MaxHP)

	here := titleStyle.Render("ENEMIES") + "\n" + listOrNone(snap.Enemies) + "\n"
	here += titleStyle.Render("ITEMS") + "\n" + listOrNone(snap.Items) + "\n"

	inventory := titleStyle.Render("INVENTORY") + "\n"
	if len(snap.Inventory) == 0 {
		inventory += "(empty)"
	} else {
		inventory += listOrNone(snap.Inventory)
	}

	content := location + stats + here + inventory

	stateWidth := int(float64(m.width) * 0.23)
	return stateStyle.Width(stateWidth).Height(m.viewport.Height).Render(content)
}

func (m model) listSaves() tea.Cmd {
	game := m.game
	return func() tea.Msg {
		saves, err := game.Saves(context.Background())
		if err != nil {
			// An unreadable save list still lets the player type a name.
			return savesMsg{}
		}
		return savesMsg{saves}
	}
}

func (m model) load() tea.Cmd {
	game, save := m.game, m.saveID
	return func() tea.Msg {
		snap, err := game.Describe(context.Background(), save)
		if err != nil {
			return errMsg{err}
		}
		return loadedMsg{snap}
	}
}

func (m model) processTurn(action string) tea.Cmd {
	game, save := m.game, m.saveID
	return func() tea.Msg {
		ctx := context.Background()
		res, err := game.ProcessTurn(ctx, save, action)
		snap, _ := game.Describe(ctx, save)
		return turnProcessedMsg{result: res, snapshot: snap, err: err}
	}
}

// Run plays in the terminal until the player quits.
func Run(game Game, defaultSave string) error {
	p := tea.NewProgram(NewModel(game, defaultSave), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

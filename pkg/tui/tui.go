// Package tui provides a terminal user interface for melodycodec
package tui

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/james-see/melodycodec/pkg/codec"
	"github.com/james-see/melodycodec/pkg/converter"
)

// Piano roll palette
var (
	keyIvory = lipgloss.Color("#F5F0E1")
	keyAmber = lipgloss.Color("#FFB000")
	feltRed  = lipgloss.Color("#B22222")
	ebony    = lipgloss.Color("#1C1C1C")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(keyAmber).
			Background(ebony).
			Padding(0, 2).
			MarginBottom(1)

	menuStyle = lipgloss.NewStyle().
			Foreground(keyIvory).
			PaddingLeft(2)

	selectedStyle = lipgloss.NewStyle().
			Foreground(keyAmber).
			Bold(true).
			PaddingLeft(2)

	detailStyle = lipgloss.NewStyle().
			Foreground(keyIvory).
			PaddingLeft(4)

	errorStyle = lipgloss.NewStyle().
			Foreground(feltRed).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(keyAmber).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#777777")).
			MarginTop(1)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(keyAmber).
			Padding(1, 2)
)

// State represents the current TUI state
type State int

const (
	StateMenu State = iota
	StateFilePicker
	StateWorking
	StateResult
)

// Action is what a menu item does with the picked file
type Action int

const (
	ActionEncode Action = iota
	ActionMIDIToEvents
	ActionEventsToMIDI
	ActionInfo
	ActionExit
)

// MenuItem represents a menu option
type MenuItem struct {
	Title       string
	Description string
	Action      Action
	Extensions  []string
}

var menuItems = []MenuItem{
	{Title: "Encode MIDI", Description: "Build a one-hot training example from a MIDI file", Action: ActionEncode, Extensions: []string{".mid", ".midi"}},
	{Title: "MIDI → events", Description: "Quantize a MIDI file to a JSON event list", Action: ActionMIDIToEvents, Extensions: []string{".mid", ".midi"}},
	{Title: "Events → MIDI", Description: "Render a JSON event list as a MIDI file", Action: ActionEventsToMIDI, Extensions: []string{".json"}},
	{Title: "Codec info", Description: "Show the pitch window and class layout", Action: ActionInfo},
	{Title: "Exit", Description: "Exit the application", Action: ActionExit},
}

// Model represents the TUI model
type Model struct {
	state        State
	menuIndex    int
	filePicker   filepicker.Model
	spinner      spinner.Model
	converter    *converter.Converter
	selectedFile string
	outputFile   string
	summary      string
	item         MenuItem
	err          error
	width        int
	height       int
}

// workDoneMsg signals a finished action
type workDoneMsg struct {
	outputFile string
	summary    string
	err        error
}

// Init initializes the TUI model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick)
}

// New creates a new TUI model around a codec
func New(c *codec.Codec, stepsPerQuarter int) Model {
	fp := filepicker.New()
	fp.AllowedTypes = []string{".mid", ".midi", ".json"}
	fp.CurrentDirectory, _ = os.Getwd()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(keyAmber)

	conv := converter.New(c)
	conv.SetStepsPerQuarter(stepsPerQuarter)

	return Model{
		state:      StateMenu,
		filePicker: fp,
		spinner:    s,
		converter:  conv,
	}
}

// Update handles TUI updates
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// The file picker needs every message while it is open
	if m.state == StateFilePicker {
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			switch keyMsg.String() {
			case "esc":
				m.state = StateMenu
				return m, nil
			case "q", "ctrl+c":
				return m, tea.Quit
			}
		}

		var cmd tea.Cmd
		m.filePicker, cmd = m.filePicker.Update(msg)

		if didSelect, path := m.filePicker.DidSelectFile(msg); didSelect {
			m.selectedFile = path
			m.state = StateWorking
			return m, tea.Batch(m.spinner.Tick, m.perform())
		}

		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.filePicker.SetHeight(msg.Height - 10)
		return m, nil

	case tea.KeyMsg:
		switch m.state {
		case StateMenu:
			return m.updateMenu(msg)
		case StateResult:
			return m.updateResult(msg)
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case workDoneMsg:
		m.state = StateResult
		m.outputFile = msg.outputFile
		m.summary = msg.summary
		m.err = msg.err
		return m, nil
	}

	return m, nil
}

func (m Model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.menuIndex > 0 {
			m.menuIndex--
		}
	case "down", "j":
		if m.menuIndex < len(menuItems)-1 {
			m.menuIndex++
		}
	case "enter":
		m.item = menuItems[m.menuIndex]
		switch m.item.Action {
		case ActionExit:
			return m, tea.Quit
		case ActionInfo:
			m.state = StateResult
			m.summary = m.codecSummary()
			return m, nil
		}
		m.state = StateFilePicker
		m.filePicker.AllowedTypes = m.item.Extensions
		return m, m.filePicker.Init()
	case "q", "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) updateResult(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		m.state = StateMenu
		m.err = nil
		m.selectedFile = ""
		m.outputFile = ""
		m.summary = ""
		return m, nil
	case "q", "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) perform() tea.Cmd {
	item := m.item
	input := m.selectedFile
	conv := m.converter

	return func() tea.Msg {
		data, err := os.ReadFile(input)
		if err != nil {
			return workDoneMsg{err: err}
		}

		base := strings.TrimSuffix(input, filepath.Ext(input))
		var result []byte
		var output, summary string

		switch item.Action {
		case ActionEncode:
			example, encErr := conv.EncodeMIDI(data)
			if encErr != nil {
				return workDoneMsg{err: encErr}
			}
			result, err = json.Marshal(example)
			output = base + ".example.json"
			summary = fmt.Sprintf("%d steps, %d classes", example.Len(), conv.GetCodec().NumClasses())
		case ActionMIDIToEvents:
			events, parseErr := conv.MIDIToMelody(data)
			if parseErr != nil {
				return workDoneMsg{err: parseErr}
			}
			result, err = converter.MarshalMelody(events)
			output = base + ".json"
			summary = fmt.Sprintf("%d steps, %d notes", events.Len(), len(events.Pitches()))
		case ActionEventsToMIDI:
			result, err = conv.JSONToMIDI(data)
			output = base + ".mid"
		}

		if err != nil {
			return workDoneMsg{err: err}
		}

		if err := os.WriteFile(output, result, 0644); err != nil {
			return workDoneMsg{err: err}
		}

		return workDoneMsg{outputFile: output, summary: summary}
	}
}

func (m Model) codecSummary() string {
	c := m.converter.GetCodec()
	cfg := c.Config()

	var s strings.Builder
	s.WriteString(fmt.Sprintf("Pitch window: [%d, %d)\n", cfg.MinPitch, cfg.MaxPitch))
	s.WriteString(fmt.Sprintf("Classes:      %d\n", c.NumClasses()))
	s.WriteString(fmt.Sprintf("Strict:       %v\n", cfg.Strict))
	for i := 0; i < cfg.NumSpecialEvents; i++ {
		e, _ := c.IndexToEvent(i)
		s.WriteString(fmt.Sprintf("  %2d  %s\n", i, e))
	}
	first, _ := c.IndexToEvent(cfg.NumSpecialEvents)
	last, _ := c.IndexToEvent(c.NumClasses() - 1)
	s.WriteString(fmt.Sprintf("  %2d  %s\n  ..\n  %2d  %s", cfg.NumSpecialEvents, first, c.NumClasses()-1, last))
	return s.String()
}

// View renders the TUI
func (m Model) View() string {
	var s strings.Builder

	s.WriteString(logo())
	s.WriteString("\n")

	switch m.state {
	case StateMenu:
		s.WriteString(m.viewMenu())
	case StateFilePicker:
		s.WriteString(m.viewFilePicker())
	case StateWorking:
		s.WriteString(m.viewWorking())
	case StateResult:
		s.WriteString(m.viewResult())
	}

	s.WriteString("\n")
	s.WriteString(helpStyle.Render("↑/↓: navigate • enter: select • q: quit"))

	return s.String()
}

func (m Model) viewMenu() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" MELODY CODEC "))
	s.WriteString("\n\n")

	for i, item := range menuItems {
		if i == m.menuIndex {
			s.WriteString(selectedStyle.Render(fmt.Sprintf("▸ %s", item.Title)))
			s.WriteString("\n")
			s.WriteString(detailStyle.Render(item.Description))
		} else {
			s.WriteString(menuStyle.Render(fmt.Sprintf("  %s", item.Title)))
		}
		s.WriteString("\n")
	}

	return boxStyle.Render(s.String())
}

func (m Model) viewFilePicker() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(fmt.Sprintf(" %s: PICK A FILE ", strings.ToUpper(m.item.Title))))
	s.WriteString("\n\n")
	s.WriteString(m.filePicker.View())
	s.WriteString("\n")
	s.WriteString(helpStyle.Render("esc: back to menu"))

	return s.String()
}

func (m Model) viewWorking() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" WORKING "))
	s.WriteString("\n\n")
	s.WriteString(fmt.Sprintf("%s %s %s...", m.spinner.View(), m.item.Title, filepath.Base(m.selectedFile)))

	return boxStyle.Render(s.String())
}

func (m Model) viewResult() string {
	var s strings.Builder

	switch {
	case m.err != nil:
		s.WriteString(titleStyle.Render(" ERROR "))
		s.WriteString("\n\n")
		s.WriteString(errorStyle.Render(fmt.Sprintf("✗ %s failed: %s", m.item.Title, m.err.Error())))
	case m.item.Action == ActionInfo:
		s.WriteString(titleStyle.Render(" CODEC "))
		s.WriteString("\n\n")
		s.WriteString(m.summary)
	default:
		s.WriteString(titleStyle.Render(" DONE "))
		s.WriteString("\n\n")
		s.WriteString(successStyle.Render("✓ " + m.item.Title + " complete"))
		s.WriteString("\n\n")
		s.WriteString(fmt.Sprintf("Input:  %s\n", filepath.Base(m.selectedFile)))
		s.WriteString(fmt.Sprintf("Output: %s", filepath.Base(m.outputFile)))
		if m.summary != "" {
			s.WriteString("\n" + m.summary)
		}
	}

	s.WriteString("\n\n")
	s.WriteString(helpStyle.Render("Press enter to continue"))

	return boxStyle.Render(s.String())
}

func logo() string {
	keys := `
  ┌─┬─┬┬─┬─┬─┬─┬┬─┬┬─┬─┐
  │ │█││█│ │ │█││█││█│ │   melodycodec
  │ └┬┘└┬┘ │ └┬┘└┬┘└┬┘ │   events ⇄ classes
  └──┴──┴──┴──┴──┴──┴──┘
`
	return lipgloss.NewStyle().Foreground(keyIvory).Render(keys)
}

// Run starts the TUI application
func Run(c *codec.Codec, stepsPerQuarter int) error {
	p := tea.NewProgram(New(c, stepsPerQuarter), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

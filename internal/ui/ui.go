package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/retrograde/internal/shared"
	"github.com/desertthunder/retrograde/internal/suggest"
)

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#1DB954")).Bold(true)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262")).Italic(true)
)

// keyMap defines the [key.Binding] mapping for the results list.
type keyMap struct {
	open key.Binding
	quit key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		open: key.NewBinding(key.WithKeys("enter", "o"), key.WithHelp("enter/o", "open in browser")),
		quit: key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

var _ list.Item = songItem{}

// songItem wraps [suggest.EnrichedSong] to implement [list.Item].
type songItem struct {
	song suggest.EnrichedSong
}

func (i songItem) FilterValue() string { return i.song.Title + " " + i.song.Artist }
func (i songItem) Title() string       { return fmt.Sprintf("%s | %s", i.song.Title, i.song.Artist) }
func (i songItem) Description() string { return i.song.Reason }

// Model is the bubbletea state for browsing a suggestion set.
type Model struct {
	list   list.Model
	keys   keyMap
	status string
}

// NewModel builds the results browser for one day's suggestions.
func NewModel(date string, songs []suggest.EnrichedSong) Model {
	items := make([]list.Item, 0, len(songs))
	for _, song := range songs {
		items = append(items, songItem{song: song})
	}

	delegate := list.NewDefaultDelegate()
	l := list.New(items, delegate, 0, 0)
	l.Title = titleStyle.Render("Songs for " + date)
	l.SetShowStatusBar(true)
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{newKeyMap().open}
	}

	return Model{list: l, keys: newKeyMap()}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, msg.Height-1)
		return m, nil

	case tea.KeyMsg:
		// Leave keys alone while the filter input is active.
		if m.list.FilterState() == list.Filtering {
			break
		}

		switch {
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.open):
			if item, ok := m.list.SelectedItem().(songItem); ok {
				if item.song.URL == "" {
					m.status = "no link for this track"
					return m, nil
				}
				if err := shared.OpenBrowser(item.song.URL); err != nil {
					m.status = "failed to open browser"
				} else {
					m.status = "opened " + item.song.Title
				}
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	view := m.list.View()
	if m.status != "" {
		view += "\n" + statusStyle.Render(m.status)
	}
	return view
}

// Run renders the suggestion browser and blocks until the user quits.
func Run(date string, songs []suggest.EnrichedSong) error {
	program := tea.NewProgram(NewModel(date, songs), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run results browser: %w", err)
	}
	return nil
}

package ui

import (
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/vorax/internal/errors"
)

// ProfileInfo is what the picker shows for a profile.
type ProfileInfo struct {
	Name    string
	Target  string
	Connect string
	Default bool
}

type profileItem struct {
	profile ProfileInfo
}

func (i profileItem) Title() string {
	if i.profile.Default {
		return i.profile.Name + " (default)"
	}
	return i.profile.Name
}

func (i profileItem) Description() string {
	var parts []string
	if i.profile.Target != "" {
		parts = append(parts, i.profile.Target)
	}
	if i.profile.Connect != "" {
		parts = append(parts, i.profile.Connect)
	}
	return strings.Join(parts, " | ")
}

func (i profileItem) FilterValue() string {
	return i.profile.Name + " " + i.profile.Target + " " + i.profile.Connect
}

// ProfilePickerModel is a Bubble Tea model for choosing a profile.
type ProfilePickerModel struct {
	list     list.Model
	selected *ProfileInfo
	quitting bool
}

var pickerKeys = struct {
	Enter key.Binding
	Quit  key.Binding
}{
	Enter: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
	Quit:  key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "cancel")),
}

// NewProfilePickerModel creates a picker with the default profile
// preselected.
func NewProfilePickerModel(profiles []ProfileInfo) ProfilePickerModel {
	items := make([]list.Item, len(profiles))
	selected := 0
	for i, p := range profiles {
		items[i] = profileItem{profile: p}
		if p.Default {
			selected = i
		}
	}

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(ColorPrimary).
		BorderForeground(ColorSecondary)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(ColorMuted)

	l := list.New(items, delegate, 80, 15)
	l.Title = "Select a profile"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true).Padding(0, 0, 1, 0)
	l.Styles.HelpStyle = lipgloss.NewStyle().Foreground(ColorMuted)
	l.Select(selected)

	return ProfilePickerModel{list: l}
}

// Init implements tea.Model.
func (m ProfilePickerModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m ProfilePickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// While filtering, keys belong to the filter input.
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch {
		case key.Matches(msg, pickerKeys.Enter):
			if item, ok := m.list.SelectedItem().(profileItem); ok {
				m.selected = &item.profile
			}
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, pickerKeys.Quit):
			m.quitting = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, msg.Height-2)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m ProfilePickerModel) View() string {
	if m.quitting {
		return ""
	}
	return m.list.View()
}

// Selected returns the chosen profile, or nil if cancelled.
func (m ProfilePickerModel) Selected() *ProfileInfo {
	return m.selected
}

// PickProfile runs the picker on the given terminal streams. A single
// profile is returned without asking. Nil means the user cancelled.
func PickProfile(profiles []ProfileInfo, output io.Writer, input io.Reader) (*ProfileInfo, error) {
	if len(profiles) == 0 {
		return nil, errors.New(errors.ErrConfig, "No profiles to pick from",
			"Add one with 'vorax profile add'.")
	}
	if len(profiles) == 1 {
		return &profiles[0], nil
	}

	p := tea.NewProgram(NewProfilePickerModel(profiles), tea.WithOutput(output), tea.WithInput(input))
	final, err := p.Run()
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig, "Profile picker failed",
			"Pass --profile to choose one directly.")
	}
	if m, ok := final.(ProfilePickerModel); ok {
		return m.Selected(), nil
	}
	return nil, nil
}

package ui

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

// TableColumn defines a table column with name and width.
type TableColumn struct {
	Title string
	Width int
}

// NewTable creates a Bubbles table with the CLI's styling.
func NewTable(columns []TableColumn, rows []table.Row) table.Model {
	cols := make([]table.Column, len(columns))
	for i, c := range columns {
		cols[i] = table.Column{Title: c.Title, Width: c.Width}
	}

	t := table.New(
		table.WithColumns(cols),
		table.WithRows(rows),
		table.WithFocused(false),
		table.WithHeight(len(rows)+1), // +1 for header
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(ColorMuted).
		BorderBottom(true).
		Bold(true).
		Foreground(ColorPrimary)
	s.Cell = s.Cell.Foreground(ColorPrimary)
	// Nothing is focused; the selected row must look like the others.
	s.Selected = s.Cell

	t.SetStyles(s)
	return t
}

// RenderSimpleTable renders a non-interactive table string. Column widths
// grow to fit the widest cell when the given width is smaller.
func RenderSimpleTable(columns []TableColumn, rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}

	fitted := make([]TableColumn, len(columns))
	copy(fitted, columns)
	for i := range fitted {
		fitted[i].Width = max(fitted[i].Width, lipgloss.Width(fitted[i].Title))
		for _, r := range rows {
			if i < len(r) {
				fitted[i].Width = max(fitted[i].Width, lipgloss.Width(r[i]))
			}
		}
	}

	tableRows := make([]table.Row, len(rows))
	for i, r := range rows {
		tableRows[i] = table.Row(r)
	}
	return NewTable(fitted, tableRows).View()
}

// ProfileRow is one line of `profile list`.
type ProfileRow struct {
	Name    string
	Target  string // executable, with host when remote
	Connect string
	Markup  bool
}

// RenderProfileTable renders the profile list, marking the default.
func RenderProfileTable(rows []ProfileRow, defaultName string) string {
	if len(rows) == 0 {
		return "No profiles configured"
	}

	cells := make([][]string, len(rows))
	for i, r := range rows {
		name := r.Name
		if r.Name == defaultName {
			name += " *"
		}
		markup := "off"
		if r.Markup {
			markup = "html"
		}
		cells[i] = []string{name, r.Target, r.Connect, markup}
	}

	return RenderSimpleTable([]TableColumn{
		{Title: "PROFILE", Width: 10},
		{Title: "TARGET", Width: 16},
		{Title: "CONNECT", Width: 16},
		{Title: "MARKUP", Width: 6},
	}, cells)
}

package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/table"
	"github.com/stretchr/testify/assert"
)

func TestNewTable(t *testing.T) {
	columns := []TableColumn{
		{Title: "Name", Width: 20},
		{Title: "Status", Width: 10},
	}
	rows := []table.Row{
		{"item1", "ok"},
		{"item2", "error"},
	}

	view := NewTable(columns, rows).View()
	assert.Contains(t, view, "Name")
	assert.Contains(t, view, "Status")
	assert.Contains(t, view, "item1")
	assert.Contains(t, view, "item2")
}

func TestRenderSimpleTable(t *testing.T) {
	output := RenderSimpleTable(
		[]TableColumn{{Title: "Profile", Width: 3}, {Title: "Connect", Width: 5}},
		[][]string{{"development", "scott@localhost/XEPDB1"}},
	)

	assert.Contains(t, output, "Profile")
	assert.Contains(t, output, "development", "narrow columns grow to fit")
	assert.Contains(t, output, "scott@localhost/XEPDB1")
}

func TestRenderSimpleTable_EmptyRows(t *testing.T) {
	assert.Empty(t, RenderSimpleTable([]TableColumn{{Title: "Name", Width: 20}}, nil))
}

func TestRenderProfileTable(t *testing.T) {
	rows := []ProfileRow{
		{Name: "dev", Target: "sqlplus", Connect: "scott/***@dev", Markup: true},
		{Name: "legacy", Target: "sqlplus@db1", Connect: "/nolog"},
	}

	output := RenderProfileTable(rows, "dev")
	assert.Contains(t, output, "PROFILE")
	assert.Contains(t, output, "dev *")
	assert.NotContains(t, output, "legacy *")
	assert.Contains(t, output, "sqlplus@db1")
	assert.Contains(t, output, "html")
	assert.Contains(t, output, "off")
	assert.Equal(t, 1, strings.Count(output, "scott/***@dev"))
}

func TestRenderProfileTable_Empty(t *testing.T) {
	assert.Equal(t, "No profiles configured", RenderProfileTable(nil, ""))
}

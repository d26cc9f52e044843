package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpand(t *testing.T) {
	t.Setenv("USER", "scott")
	t.Setenv("ORACLE_SID", "XE")
	home, _ := os.UserHomeDir()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"no variables", "/opt/sqlplus", "/opt/sqlplus"},
		{"home", "${HOME}/sql", home + "/sql"},
		{"user", "/u01/${USER}", "/u01/scott"},
		{"env braces", "/db/${ORACLE_SID}", "/db/XE"},
		{"env bare", "/db/$ORACLE_SID/x", "/db/XE/x"},
		{"unset expands empty", "/a/${VORAX_TEST_UNSET_VAR}b", "/a/b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Expand(tt.input))
		})
	}
}

func TestExpandRemote(t *testing.T) {
	t.Setenv("USER", "scott")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"home stays for remote shell", "${HOME}/sql", "~/sql"},
		{"tilde untouched", "~/sql", "~/sql"},
		{"user is local", "/home/${USER}", "/home/scott"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandRemote(tt.input))
		})
	}
}

func TestExpandTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	assert.Equal(t, home, ExpandTilde("~"))
	assert.Equal(t, filepath.Join(home, "sql"), ExpandTilde("~/sql"))
	assert.Equal(t, "~other/sql", ExpandTilde("~other/sql"))
	assert.Equal(t, "/abs", ExpandTilde("/abs"))
}

func TestExpandProfile(t *testing.T) {
	home, _ := os.UserHomeDir()

	local := ExpandProfile(Profile{Executable: "~/bin/sqlplus", Dir: "${HOME}"})
	assert.Equal(t, filepath.Join(home, "bin/sqlplus"), local.Executable)
	assert.Equal(t, home, local.Dir)

	remote := ExpandProfile(Profile{Host: "db1", Executable: "~/bin/sqlplus", Dir: "${HOME}/x"})
	assert.Equal(t, "~/bin/sqlplus", remote.Executable)
	assert.Equal(t, "~/x", remote.Dir)
}

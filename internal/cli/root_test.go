package cli

import (
	stderrors "errors"
	"strings"
	"testing"

	"github.com/rileyhilliard/vorax/internal/errors"
	"github.com/stretchr/testify/assert"
)

func TestIsUnknownCommandError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "unknown command error", err: stderrors.New(`unknown command "foo" for "vorax"`), want: true},
		{name: "unknown flag error", err: stderrors.New(`unknown flag: --foo`), want: true},
		{name: "other error", err: stderrors.New("connection failed"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isUnknownCommandError(tt.err))
		})
	}
}

func TestExtractUnknownCommand(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "standard cobra format", err: stderrors.New(`unknown command "foo" for "vorax"`), want: "foo"},
		{name: "script name", err: stderrors.New(`unknown command "report.sql" for "vorax"`), want: "report.sql"},
		{name: "no quotes returns empty", err: stderrors.New("unknown command foo"), want: ""},
		{name: "single quote returns empty", err: stderrors.New(`unknown command "foo`), want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractUnknownCommand(tt.err))
		})
	}
}

func TestUnknownCommandHelp(t *testing.T) {
	assert.Contains(t, unknownCommandHelp(stderrors.New(`unknown command "q.sql" for "vorax"`)), "vorax run q.sql")
	assert.Contains(t, unknownCommandHelp(stderrors.New(`unknown command "sheel" for "vorax"`)), "vorax --help")
	assert.Contains(t, unknownCommandHelp(stderrors.New(`unknown flag: --nope`)), "--nope")
}

func TestFormatError(t *testing.T) {
	structured := errors.New(errors.ErrConfig, "Profile 'x' not found", "Available profiles: dev")
	assert.Equal(t, structured.Error(), formatError(structured))

	plain := formatError(stderrors.New("boom"))
	assert.Contains(t, plain, "boom")
	assert.Contains(t, plain, "✗")
}

func TestRootCommandsRegistered(t *testing.T) {
	want := []string{"beautify", "doctor", "exec", "profile", "run", "shell", "version"}
	var got []string
	for _, c := range rootCmd.Commands() {
		got = append(got, c.Name())
	}
	for _, name := range want {
		assert.Contains(t, got, name)
	}
	for _, flag := range []string{"config", "verbose", "no-color"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(flag), flag)
	}
}

func TestFirstLine(t *testing.T) {
	tests := []struct {
		name string
		stmt string
		want string
	}{
		{"single line", "select 1 from dual;", "select 1 from dual;"},
		{"multi line", "\n  begin\n null;\nend;\n/", "begin ..."},
		{"long", "select " + strings.Repeat("a", 67), "select " + strings.Repeat("a", 53) + "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, firstLine(tt.stmt))
		})
	}
}

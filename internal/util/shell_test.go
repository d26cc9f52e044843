package util

import "testing"

func TestShellQuote(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"simple", "'simple'"},
		{"with space", "'with space'"},
		{"with'quote", "'with'\\''quote'"},
		{"", "''"},
		{"path/to/file", "'path/to/file'"},
		{"$variable", "'$variable'"},
		{"$(command)", "'$(command)'"},
		{"`backtick`", "'`backtick`'"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ShellQuote(tt.input)
			if got != tt.expected {
				t.Errorf("ShellQuote(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestShellQuotePreserveTilde(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"~", "~"},
		{"~/path", "~/'path'"},
		{"~/path/to/dir", "~/'path/to/dir'"},
		{"~/path with spaces", "~/'path with spaces'"},
		{"~/path'quote", "~/'path'\\''quote'"},
		{"/absolute/path", "'/absolute/path'"},
		{"relative/path", "'relative/path'"},
		{"~user/path", "'~user/path'"}, // Not current user's home, quote it
		{"", "''"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ShellQuotePreserveTilde(tt.input)
			if got != tt.expected {
				t.Errorf("ShellQuotePreserveTilde(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestRemoteCommandLine(t *testing.T) {
	tests := []struct {
		name    string
		dir     string
		env     []string
		command string
		args    []string
		want    string
	}{
		{
			name:    "bare command",
			command: "sqlplus",
			want:    "exec 'sqlplus'",
		},
		{
			name:    "args are quoted",
			command: "sqlplus",
			args:    []string{"-S", "scott/tiger@orcl"},
			want:    "exec 'sqlplus' '-S' 'scott/tiger@orcl'",
		},
		{
			name:    "dir with tilde",
			dir:     "~/sql scripts",
			command: "sqlplus",
			want:    "cd ~/'sql scripts' && exec 'sqlplus'",
		},
		{
			name:    "env goes through env(1)",
			env:     []string{"NLS_LANG=AMERICAN_AMERICA.AL32UTF8", "TNS_ADMIN=/opt/tns"},
			command: "sqlplus",
			want:    "exec env 'NLS_LANG=AMERICAN_AMERICA.AL32UTF8' 'TNS_ADMIN=/opt/tns' 'sqlplus'",
		},
		{
			name:    "everything",
			dir:     "/srv",
			env:     []string{"A=it's"},
			command: "/opt/oracle/bin/sqlplus",
			args:    []string{"/nolog"},
			want:    "cd '/srv' && exec env 'A=it'\\''s' '/opt/oracle/bin/sqlplus' '/nolog'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RemoteCommandLine(tt.dir, tt.env, tt.command, tt.args)
			if got != tt.want {
				t.Errorf("RemoteCommandLine() = %q, want %q", got, tt.want)
			}
		})
	}
}

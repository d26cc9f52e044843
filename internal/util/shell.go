package util

import "strings"

// ShellQuote wraps a string in single quotes, escaping any existing single quotes.
// This is safe for use in shell commands where the string should be treated literally.
func ShellQuote(s string) string {
	// Replace ' with '\'' (end quote, escaped quote, start quote)
	escaped := strings.ReplaceAll(s, "'", "'\\''")
	return "'" + escaped + "'"
}

// ShellQuotePreserveTilde quotes a path for shell execution while preserving tilde expansion.
// For paths starting with ~/, the tilde is kept unquoted and the rest is single-quoted.
func ShellQuotePreserveTilde(path string) string {
	if strings.HasPrefix(path, "~/") {
		return "~/" + ShellQuote(path[2:])
	}
	if path == "~" {
		return "~"
	}
	return ShellQuote(path)
}

// RemoteCommandLine builds the single command string an SSH server hands to
// the remote login shell. dir, when set, is entered first; env entries
// (KEY=VALUE) are passed through env(1) so they never leak into the shell.
func RemoteCommandLine(dir string, env []string, command string, args []string) string {
	var sb strings.Builder
	if dir != "" {
		sb.WriteString("cd ")
		sb.WriteString(ShellQuotePreserveTilde(dir))
		sb.WriteString(" && ")
	}
	sb.WriteString("exec ")
	if len(env) > 0 {
		sb.WriteString("env")
		for _, kv := range env {
			sb.WriteByte(' ')
			sb.WriteString(ShellQuote(kv))
		}
		sb.WriteByte(' ')
	}
	sb.WriteString(ShellQuote(command))
	for _, a := range args {
		sb.WriteByte(' ')
		sb.WriteString(ShellQuote(a))
	}
	return sb.String()
}

package config

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ExpandTilde replaces ~ or ~/path with the user's home directory.
// Does not support ~username syntax.
// Use this for LOCAL paths only. Remote paths keep ~ for the remote shell.
func ExpandTilde(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}

// Expand replaces ${HOME}, ${USER} and any other ${VAR} or $VAR with local
// values. Unset variables expand to "".
func Expand(s string) string {
	if s == "" || !strings.Contains(s, "$") {
		return s
	}
	return os.Expand(s, func(name string) string {
		switch name {
		case "HOME":
			return getHome()
		case "USER":
			return getUser()
		}
		return os.Getenv(name)
	})
}

// ExpandRemote is Expand for paths on an SSH host: ${HOME} becomes ~ so the
// remote shell resolves it, and ~ is left alone.
func ExpandRemote(s string) string {
	if s == "" || !strings.Contains(s, "$") {
		return s
	}
	return os.Expand(s, func(name string) string {
		switch name {
		case "HOME":
			return "~"
		case "USER":
			return getUser()
		}
		return os.Getenv(name)
	})
}

// ExpandProfile expands variables in the executable and working directory.
func ExpandProfile(p Profile) Profile {
	if p.IsRemote() {
		p.Dir = ExpandRemote(p.Dir)
		p.Executable = ExpandRemote(p.Executable)
		return p
	}
	p.Dir = ExpandTilde(Expand(p.Dir))
	p.Executable = ExpandTilde(Expand(p.Executable))
	return p
}

// getUser returns the current username for ${USER} expansion.
func getUser() string {
	for _, key := range []string{"USER", "LOGNAME", "USERNAME"} {
		if user := os.Getenv(key); user != "" {
			return user
		}
	}

	out, err := exec.Command("whoami").Output()
	if err != nil {
		return "user"
	}
	return strings.TrimSpace(string(out))
}

// getHome returns the home directory for ${HOME} expansion.
func getHome() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	return "~"
}

package sshutil

import (
	"bytes"
	"net"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kevinburke/ssh_config"
)

// Target is an SSH destination after ~/.ssh/config has been applied.
type Target struct {
	Alias        string
	Hostname     string
	Port         string
	User         string
	IdentityFile string

	// hiddenBy is the line of a Match block that stopped the config from
	// being read further, or 0.
	hiddenBy int
	// configured reports whether any Host block matched.
	configured bool
}

// Address returns host:port for dialing.
func (t Target) Address() string {
	port := t.Port
	if port == "" {
		port = "22"
	}
	return net.JoinHostPort(t.Hostname, port)
}

// Description summarizes a config entry for pickers: the real hostname,
// user and port when they differ from the defaults.
func (t Target) Description() string {
	var parts []string
	if t.Hostname != "" && t.Hostname != t.Alias {
		parts = append(parts, t.Hostname)
	}
	if t.User != "" {
		parts = append(parts, "user: "+t.User)
	}
	if t.Port != "" && t.Port != "22" {
		parts = append(parts, "port: "+t.Port)
	}
	if len(parts) == 0 {
		return t.Alias
	}
	return strings.Join(parts, ", ")
}

// ConfigPath is the ssh_config consulted by ResolveTarget and ListHosts.
func ConfigPath() string {
	return filepath.Join(homeDir(), ".ssh", "config")
}

// ResolveTarget parses host ("alias", "user@host", "host:2222") and fills
// the gaps from ~/.ssh/config. An explicit user beats the config, which
// beats VORAX_SSH_USER, which beats $USER.
func ResolveTarget(host string) Target {
	return resolveTarget(host, ConfigPath())
}

func resolveTarget(host, configPath string) Target {
	t := Target{Port: "22", User: currentUser()}
	if env := os.Getenv("VORAX_SSH_USER"); env != "" {
		t.User = env
	}

	explicitUser := ""
	if user, rest, ok := strings.Cut(host, "@"); ok {
		explicitUser, host = user, rest
	}
	if i := strings.LastIndexByte(host, ':'); i >= 0 && isDigits(host[i+1:]) {
		t.Port, host = host[i+1:], host[:i]
	}
	t.Alias, t.Hostname = host, host

	cfg, hiddenBy, err := readConfig(configPath)
	if err == nil {
		t.hiddenBy = hiddenBy
		t.applyConfig(cfg)
	}
	if explicitUser != "" {
		t.User = explicitUser
	}
	return t
}

func (t *Target) applyConfig(cfg *ssh_config.Config) {
	set := func(key string, dst *string) {
		if v, _ := cfg.Get(t.Alias, key); v != "" {
			*dst = v
			t.configured = true
		}
	}
	set("HostName", &t.Hostname)
	set("Port", &t.Port)
	set("User", &t.User)
	set("IdentityFile", &t.IdentityFile)
	t.IdentityFile = expandHome(t.IdentityFile)
}

// ListHosts returns the concrete aliases in ~/.ssh/config, sorted. Wildcard
// patterns are skipped. A missing file yields no hosts and no error.
func ListHosts() ([]Target, error) {
	return ListHostsIn(ConfigPath())
}

// ListHostsIn is ListHosts for a specific config file.
func ListHostsIn(path string) ([]Target, error) {
	cfg, _, err := readConfig(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	seen := make(map[string]bool)
	var hosts []Target
	for _, h := range cfg.Hosts {
		for _, pattern := range h.Patterns {
			alias := pattern.String()
			if strings.ContainsAny(alias, "*?") || seen[alias] {
				continue
			}
			seen[alias] = true

			t := Target{Alias: alias}
			t.applyConfig(cfg)
			hosts = append(hosts, t)
		}
	}

	sort.Slice(hosts, func(i, j int) bool { return hosts[i].Alias < hosts[j].Alias })
	return hosts, nil
}

// readConfig decodes an ssh_config up to its first Match block, which the
// decoder can't handle. The Match line number is returned so callers can
// warn when a host may be hiding behind it.
func readConfig(path string) (*ssh_config.Config, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, err
	}

	matchLine := 0
	lines := strings.Split(string(data), "\n")
	for i, line := range lines {
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(line)), "match ") {
			matchLine = i + 1
			lines = lines[:i]
			break
		}
	}

	cfg, err := ssh_config.Decode(bytes.NewReader([]byte(strings.Join(lines, "\n"))))
	if err != nil {
		return nil, matchLine, err
	}
	return cfg, matchLine, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func homeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return os.Getenv("HOME")
}

func currentUser() string {
	if user := os.Getenv("USER"); user != "" {
		return user
	}
	return "root"
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir(), path[2:])
	}
	return path
}

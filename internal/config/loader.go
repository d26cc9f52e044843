package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rileyhilliard/vorax/internal/errors"
	"github.com/rileyhilliard/vorax/internal/util"
	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the project-local profiles file name.
	ConfigFileName = ".vorax.yaml"
	// GlobalConfigDir is the directory for the global profiles file.
	GlobalConfigDir = ".config/vorax"
	// GlobalConfigFile is the global profiles file name.
	GlobalConfigFile = "profiles.yaml"
)

// Load reads profiles from the specified path.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Profiles file not found",
				"Run 'vorax profile add' to create one, or point at one with --config")
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to read profiles file",
			"Check the file exists and is valid YAML")
	}

	return parseConfig(v, path)
}

// Find locates the profiles file using the search order:
// 1. Explicit path (from --config flag)
// 2. .vorax.yaml in the current directory or a parent (stops at git root or home)
// 3. ~/.config/vorax/profiles.yaml
//
// Returns the path to the file, or empty string if there is none.
func Find(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			if os.IsNotExist(err) {
				return "", errors.WrapWithCode(err, errors.ErrConfig,
					"Specified profiles file not found: "+explicit,
					"Check the path is correct")
			}
			return "", errors.WrapWithCode(err, errors.ErrConfig,
				"Cannot access profiles file: "+explicit,
				"Check file permissions")
		}
		return explicit, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot determine current directory",
			"Check directory permissions")
	}

	home, _ := os.UserHomeDir()
	dir := cwd
	for {
		candidate := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		if isGitRoot(dir) || (home != "" && dir == home) {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	if global := GlobalPath(); global != "" {
		if _, err := os.Stat(global); err == nil {
			return global, nil
		}
	}

	return "", nil
}

// GlobalPath returns where the global profiles file lives, or "" when the
// home directory is unknown.
func GlobalPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ""
	}
	return filepath.Join(home, GlobalConfigDir, GlobalConfigFile)
}

// HistoryPath returns where the shell keeps its input history, next to the
// global profiles file.
func HistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ""
	}
	return filepath.Join(home, GlobalConfigDir, "history")
}

// LoadOrDefault loads the file Find locates, or returns defaults when there
// is none.
func LoadOrDefault() (*Config, error) {
	path, err := Find("")
	if err != nil {
		return nil, err
	}

	if path == "" {
		return DefaultConfig(), nil
	}

	return Load(path)
}

// parseConfig converts the viper tree into a Config. Every profile starts
// from DefaultProfile so a file only needs to say what differs.
func parseConfig(v *viper.Viper, path string) (*Config, error) {
	var raw struct {
		Version  int                    `mapstructure:"version"`
		Default  string                 `mapstructure:"default"`
		Profiles map[string]interface{} `mapstructure:"profiles"`
	}
	if err := v.Unmarshal(&raw); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid profiles format",
			"Check the YAML syntax in "+path)
	}

	cfg := &Config{
		Version:  raw.Version,
		Default:  raw.Default,
		Profiles: make(map[string]Profile, len(raw.Profiles)),
	}
	if cfg.Version == 0 {
		cfg.Version = CurrentConfigVersion
	}

	for name := range raw.Profiles {
		key := "profiles." + name
		p := DefaultProfile(name)
		// Decoding into a populated slice only overwrites by index.
		if v.IsSet(key + ".args") {
			p.Args = nil
		}
		if v.IsSet(key + ".init_commands") {
			p.InitCommands = nil
		}
		if err := v.UnmarshalKey(key, &p); err != nil {
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				fmt.Sprintf("Invalid settings for profile '%s'", name),
				"Check the YAML syntax in "+path)
		}
		p.Name = name
		p.Env = upperKeys(p.Env)
		cfg.Profiles[name] = ExpandProfile(p)
	}

	if cfg.Default == "" && len(cfg.Profiles) == 1 {
		for name := range cfg.Profiles {
			cfg.Default = name
		}
	}

	return cfg, nil
}

// LoadProfile returns the named profile. An empty name picks the default
// profile, falling back to the built-in one when the file has no profiles.
func (c *Config) LoadProfile(name string) (Profile, error) {
	if name == "" {
		name = c.Default
		if name == "" {
			name = DefaultProfileName
		}
		if len(c.Profiles) == 0 && name == DefaultProfileName {
			return DefaultProfile(DefaultProfileName), nil
		}
	}

	if p, ok := c.Profiles[name]; ok {
		return p, nil
	}
	if p, ok := c.Profiles[strings.ToLower(name)]; ok {
		return p, nil
	}

	names := c.ProfileNames()
	suggestion := "Available profiles: " + util.JoinOrNone(names)
	if similar := util.SuggestSimilar(name, names, 3); len(similar) > 0 {
		suggestion = "Did you mean " + util.JoinOrNone(similar) + "?"
	}
	return Profile{}, errors.New(errors.ErrConfig,
		fmt.Sprintf("Profile '%s' not found", name),
		suggestion)
}

// ProfileNames returns the profile names in sorted order.
func (c *Config) ProfileNames() []string {
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func isGitRoot(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, ".git"))
	if err != nil {
		return false
	}
	return info.IsDir()
}

// upperKeys undoes viper's key folding for environment variable names.
func upperKeys(env map[string]string) map[string]string {
	out := make(map[string]string, len(env))
	for k, v := range env {
		out[strings.ToUpper(k)] = v
	}
	return out
}

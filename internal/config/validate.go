package config

import (
	"fmt"
	"strings"

	"github.com/rileyhilliard/vorax/internal/errors"
	"golang.org/x/text/encoding/htmlindex"
)

// Validate checks the profiles file and returns the first problem as a
// structured error.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New(errors.ErrConfig,
			"No profiles loaded",
			"This is unexpected - try reloading the configuration.")
	}

	if cfg.Version > CurrentConfigVersion {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("This profiles file is from the future (version %d, but vorax only knows up to %d)", cfg.Version, CurrentConfigVersion),
			"Upgrade vorax to a newer release.")
	}

	if cfg.Default != "" && len(cfg.Profiles) > 0 {
		if _, ok := cfg.Profiles[cfg.Default]; !ok {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("Default profile '%s' is not defined", cfg.Default),
				"Available profiles: "+strings.Join(cfg.ProfileNames(), ", "))
		}
	}

	for _, name := range cfg.ProfileNames() {
		if err := ValidateProfile(cfg.Profiles[name]); err != nil {
			return err
		}
	}
	return nil
}

// ValidateProfile checks a single profile.
func ValidateProfile(p Profile) error {
	if err := validateName(p.Name); err != nil {
		return err
	}

	fix := fmt.Sprintf("Check profile '%s' in your profiles file.", p.Name)

	if strings.TrimSpace(p.Executable) == "" {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Profile '%s' has no executable", p.Name),
			"Set 'executable', e.g. executable: sqlplus")
	}

	if p.EchoCommand != "" && strings.Count(p.EchoCommand, "%s") > 1 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Profile '%s' echo_command has more than one %%s", p.Name),
			"Use a single %s where the completion marker goes, e.g. 'prompt %s'.")
	}

	if p.ErrEchoCommand != "" && strings.Count(p.ErrEchoCommand, "%s") > 1 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Profile '%s' err_echo_command has more than one %%s", p.Name),
			"Use a single %s where the completion marker goes, e.g. 'echo %s >&2'.")
	}

	if p.Encoding != "" {
		if _, err := htmlindex.Get(p.Encoding); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				fmt.Sprintf("Profile '%s' uses unknown encoding '%s'", p.Name, p.Encoding),
				"Use a WHATWG encoding label like 'windows-1252' or 'iso-8859-2'.")
		}
	}

	if p.Host != "" && strings.ContainsAny(p.Host, " \t/") {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Profile '%s' host '%s' is not a host name", p.Name, p.Host),
			"Use an SSH alias, hostname, or user@hostname.")
	}

	for key := range p.Env {
		if key == "" || strings.ContainsAny(key, "= \t") {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("Profile '%s' has invalid environment variable name '%s'", p.Name, key),
				fix)
		}
	}

	if p.StartupTimeout < 0 || p.ExecTimeout < 0 || p.GracePeriod < 0 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Profile '%s' has a negative timeout", p.Name),
			fix)
	}

	if p.RingSize < 0 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Profile '%s' has a negative ring_size", p.Name),
			fix)
	}

	return nil
}

// validateName keeps profile names usable as YAML keys and CLI arguments.
func validateName(name string) error {
	if name == "" {
		return errors.New(errors.ErrConfig,
			"Profile name is empty",
			"Give the profile a name, e.g. 'dev' or 'prod'.")
	}
	if strings.ContainsAny(name, " \t./:@") {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Profile name '%s' contains spaces or separators", name),
			"Stick to letters, digits, '-' and '_'.")
	}
	return nil
}

package config

import (
	"strings"
	"time"
)

// CurrentConfigVersion is the schema version for the profiles file.
// Increment when making breaking changes to the structure.
const CurrentConfigVersion = 1

// DefaultProfileName is used when the file names no default and the
// caller asks for no profile in particular.
const DefaultProfileName = "default"

// Config is the complete profiles file.
type Config struct {
	Version  int                `yaml:"version" mapstructure:"version"`
	Default  string             `yaml:"default" mapstructure:"default"`
	Profiles map[string]Profile `yaml:"profiles" mapstructure:"profiles"`
}

// Profile describes one interpreter session: what to launch, where, and
// how to talk to it.
type Profile struct {
	// Name is filled from the map key on load.
	Name string `yaml:"-" mapstructure:"-"`

	// Executable is the interpreter to launch, e.g. "sqlplus".
	// Supports ${HOME}, ${USER} and environment variables.
	Executable string `yaml:"executable,omitempty" mapstructure:"executable"`

	// Args are passed before the connect string.
	Args []string `yaml:"args,omitempty" mapstructure:"args"`

	// Connect is appended as the last argument (user/password@db, or
	// /nolog to start unconnected).
	Connect string `yaml:"connect,omitempty" mapstructure:"connect"`

	// Env holds extra environment variables for the interpreter.
	Env map[string]string `yaml:"env,omitempty" mapstructure:"env"`

	// Dir is the working directory. Remote profiles keep ~ for the remote shell.
	Dir string `yaml:"dir,omitempty" mapstructure:"dir"`

	// Host runs the interpreter over SSH when set (alias, host or user@host).
	Host string `yaml:"host,omitempty" mapstructure:"host"`

	// Encoding is the interpreter's charset when it is not UTF-8.
	Encoding string `yaml:"encoding,omitempty" mapstructure:"encoding"`

	// Markup turns on HTML output and runs results through the beautifier.
	Markup bool `yaml:"markup" mapstructure:"markup"`

	InitCommands []string `yaml:"init_commands,omitempty" mapstructure:"init_commands"`
	EchoCommand  string   `yaml:"echo_command,omitempty" mapstructure:"echo_command"`
	ExitCommand  string   `yaml:"exit_command,omitempty" mapstructure:"exit_command"`

	// ErrEchoCommand prints the marker on stderr, for interpreters that write
	// to it (e.g. "echo %s >&2"). SQL*Plus does not need one.
	ErrEchoCommand string `yaml:"err_echo_command,omitempty" mapstructure:"err_echo_command"`

	StartupTimeout time.Duration `yaml:"startup_timeout,omitempty" mapstructure:"startup_timeout"`
	ExecTimeout    time.Duration `yaml:"exec_timeout,omitempty" mapstructure:"exec_timeout"`
	GracePeriod    time.Duration `yaml:"grace_period,omitempty" mapstructure:"grace_period"`

	// RingSize is how many output lines are kept to spot the marker.
	RingSize int `yaml:"ring_size,omitempty" mapstructure:"ring_size"`
}

// IsRemote reports whether the profile runs over SSH.
func (p Profile) IsRemote() bool {
	return p.Host != ""
}

// DisplayConnect returns the connect string with the password masked, for
// listings and logs.
func (p Profile) DisplayConnect() string {
	c := p.Connect
	at := strings.IndexByte(c, '@')
	userPart := c
	if at >= 0 {
		userPart = c[:at]
	}
	slash := strings.IndexByte(userPart, '/')
	if slash <= 0 || slash == len(userPart)-1 {
		return c
	}
	return c[:slash+1] + "***" + c[len(userPart):]
}

// DefaultConfig returns a Config holding only the default profile.
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentConfigVersion,
		Default: DefaultProfileName,
		Profiles: map[string]Profile{
			DefaultProfileName: DefaultProfile(DefaultProfileName),
		},
	}
}

// DefaultProfile returns a SQL*Plus profile with sensible defaults.
func DefaultProfile(name string) Profile {
	return Profile{
		Name:        name,
		Executable:  "sqlplus",
		Args:        []string{"-S", "-L"},
		Connect:     "/nolog",
		Env:         map[string]string{},
		Markup:      true,
		EchoCommand: "prompt %s",
		ExitCommand: "exit",
		InitCommands: []string{
			"set pagesize 50000",
			"set linesize 32767",
			"set feedback on",
			"set echo off",
		},
		StartupTimeout: 30 * time.Second,
		ExecTimeout:    10 * time.Minute,
		GracePeriod:    3 * time.Second,
		RingSize:       256,
	}
}

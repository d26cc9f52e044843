package cli

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rileyhilliard/vorax/internal/config"
	"github.com/rileyhilliard/vorax/internal/errors"
	"github.com/rileyhilliard/vorax/internal/logger"
	"github.com/rileyhilliard/vorax/internal/process"
	"github.com/rileyhilliard/vorax/internal/session"
	"github.com/rileyhilliard/vorax/internal/sqlhtml"
	"github.com/rileyhilliard/vorax/internal/ui"
)

// sshDialTimeout bounds the SSH handshake for remote profiles.
const sshDialTimeout = 15 * time.Second

// loadConfig finds and loads the profiles file. It returns the path it
// loaded from, which is empty when built-in defaults are in use.
func loadConfig() (*config.Config, string, error) {
	path, err := config.Find(cfgFile)
	if err != nil {
		return nil, "", err
	}
	if path == "" {
		return config.DefaultConfig(), "", nil
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// resolveProfile picks the profile to run. Without --profile and without a
// default, an interactive terminal gets a picker.
func resolveProfile(cfg *config.Config, name string) (config.Profile, error) {
	if name == "" && cfg.Default == "" && len(cfg.Profiles) > 1 &&
		ui.IsTerminal(os.Stdin) && ui.IsTerminal(os.Stderr) {
		infos := make([]ui.ProfileInfo, 0, len(cfg.Profiles))
		for _, n := range cfg.ProfileNames() {
			p := cfg.Profiles[n]
			infos = append(infos, ui.ProfileInfo{Name: n, Target: profileTarget(p), Connect: p.DisplayConnect()})
		}
		picked, err := ui.PickProfile(infos, os.Stderr, os.Stdin)
		if err != nil {
			return config.Profile{}, err
		}
		if picked == nil {
			return config.Profile{}, errors.NewExitError(130)
		}
		name = picked.Name
	}
	return cfg.LoadProfile(name)
}

func profileTarget(p config.Profile) string {
	if p.IsRemote() {
		return p.Executable + "@" + p.Host
	}
	return p.Executable
}

// supervisorFor returns the process backend a profile runs on.
func supervisorFor(p config.Profile, log logger.Logger) process.Supervisor {
	if p.IsRemote() {
		return process.NewRemoteSupervisor(p.Host, sshDialTimeout, log)
	}
	return process.NewLocalSupervisor(log)
}

// newBeautifier builds the HTML beautifier with terminal bold styling.
func newBeautifier() *sqlhtml.Beautifier {
	return sqlhtml.NewDefault(sqlhtml.WithBoldStyle(ui.BoldStyle()))
}

// sessionOptions turns a profile and the command's flags into session
// options.
func sessionOptions(p config.Profile, flags SessionFlags) (session.Options, error) {
	opts := p.SessionOptions()

	timeout, err := ParseTimeout(flags.Timeout)
	if err != nil {
		return opts, err
	}
	if timeout > 0 {
		opts.ExecTimeout = timeout
	}

	if p.Markup && !flags.Raw {
		opts.Beautifier = newBeautifier()
	}
	opts.Logger = logger.NewEnvLogger("[session " + p.Name + "]")
	return opts, nil
}

// openSession loads the profile named by flags and starts its session. The
// caller must Close the returned session.
func openSession(ctx context.Context, flags SessionFlags, status io.Writer) (*session.Session, config.Profile, error) {
	cfg, _, err := loadConfig()
	if err != nil {
		return nil, config.Profile{}, err
	}

	p, err := resolveProfile(cfg, flags.Profile)
	if err != nil {
		return nil, config.Profile{}, err
	}

	opts, err := sessionOptions(p, flags)
	if err != nil {
		return nil, p, err
	}

	s := session.New(supervisorFor(p, logger.NewEnvLogger("[process]")), opts)
	err = withSpinner(status, "Starting "+profileTarget(p), func() error {
		return s.Start(ctx)
	})
	if err != nil {
		return nil, p, err
	}
	return s, p, nil
}

// withSpinner runs fn with a spinner on status when it is a terminal.
func withSpinner(status io.Writer, label string, fn func() error) error {
	f, ok := status.(*os.File)
	if !ok || !ui.IsTerminal(f) {
		return fn()
	}
	sp := ui.NewSpinner(status, label)
	sp.Start()
	defer sp.Stop()
	return fn()
}

// printOutput writes a statement's output followed by a newline, unless it
// produced nothing.
func printOutput(w io.Writer, out string) {
	if out == "" {
		return
	}
	io.WriteString(w, out)
	if out[len(out)-1] != '\n' {
		io.WriteString(w, "\n")
	}
}

package doctor

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rileyhilliard/vorax/internal/config"
	"github.com/rileyhilliard/vorax/internal/util"
	"github.com/rileyhilliard/vorax/pkg/sshutil"
)

// InterpreterCheck looks for a local profile's executable and working
// directory.
type InterpreterCheck struct {
	Profile config.Profile
	// LookPath defaults to exec.LookPath.
	LookPath func(file string) (string, error)
}

func (c *InterpreterCheck) Name() string     { return "interpreter_" + c.Profile.Name }
func (c *InterpreterCheck) Category() string { return CategoryInterpreter }

func (c *InterpreterCheck) Run(context.Context) Result {
	p := c.Profile
	lookPath := c.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}

	path, err := lookPath(p.Executable)
	if err != nil {
		return fail("Install SQL*Plus (e.g. Oracle Instant Client) or set 'executable' to its full path",
			"%s: %s not found", p.Name, p.Executable)
	}
	if p.Dir != "" {
		if info, err := os.Stat(p.Dir); err != nil || !info.IsDir() {
			return fail("Create the directory or fix 'dir' in the profile",
				"%s: working directory %s doesn't exist", p.Name, p.Dir)
		}
	}
	return pass("%s: %s", p.Name, path)
}

type dialFunc func(host string, timeout time.Duration) (*sshutil.Client, error)

// RemoteCheck connects to a remote profile's host and looks for the
// executable there.
type RemoteCheck struct {
	Profile config.Profile
	Timeout time.Duration
	dial    dialFunc
}

// NewRemoteCheck returns a check that dials over SSH with timeout.
func NewRemoteCheck(p config.Profile, timeout time.Duration) *RemoteCheck {
	return &RemoteCheck{Profile: p, Timeout: timeout, dial: sshutil.Dial}
}

func (c *RemoteCheck) Name() string     { return "remote_" + c.Profile.Name }
func (c *RemoteCheck) Category() string { return CategorySSH }

func (c *RemoteCheck) Run(context.Context) Result {
	p := c.Profile
	start := time.Now()
	client, err := c.dial(p.Host, c.Timeout)
	if err != nil {
		msg, hint := describe(err)
		return fail(hint, "%s: %s", p.Name, msg)
	}
	defer client.Close()
	latency := time.Since(start)

	out, code, err := client.Output("command -v " + util.ShellQuote(p.Executable))
	if err != nil {
		msg, hint := describe(err)
		return fail(hint, "%s: connected to %s but %s", p.Name, p.Host, msg)
	}
	if code != 0 {
		return fail("Non-interactive SSH shells may have a shorter PATH; set 'executable' to a full path",
			"%s: %s not found on %s", p.Name, p.Executable, p.Host)
	}
	return pass("%s: %s at %s (%s)", p.Name, p.Host, strings.TrimSpace(out), latency.Round(time.Millisecond))
}

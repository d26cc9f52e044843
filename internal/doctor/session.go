package doctor

import (
	"context"
	"time"

	"github.com/rileyhilliard/vorax/internal/config"
	"github.com/rileyhilliard/vorax/internal/process"
	"github.com/rileyhilliard/vorax/internal/session"
)

// SessionCheck starts a real session and closes it again. Start only
// returns once the interpreter has echoed the completion marker, so a pass
// means statements will work.
type SessionCheck struct {
	Profile    config.Profile
	Supervisor process.Supervisor
	Options    session.Options
}

func (c *SessionCheck) Name() string     { return "session_" + c.Profile.Name }
func (c *SessionCheck) Category() string { return CategorySession }

func (c *SessionCheck) Run(ctx context.Context) Result {
	s := session.New(c.Supervisor, c.Options)
	start := time.Now()
	if err := s.Start(ctx); err != nil {
		msg, hint := describe(err)
		return fail(hint, "%s: %s", c.Profile.Name, msg)
	}
	ready := time.Since(start)

	if err := s.Close(); err != nil {
		msg, _ := describe(err)
		return warn("The interpreter may not honor the profile's exit_command",
			"%s: ready in %s but didn't exit cleanly: %s", c.Profile.Name, ready.Round(time.Millisecond), msg)
	}
	return pass("%s: ready in %s", c.Profile.Name, ready.Round(time.Millisecond))
}

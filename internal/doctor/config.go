package doctor

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/rileyhilliard/vorax/internal/config"
	"github.com/rileyhilliard/vorax/internal/errors"
)

// ConfigCheck reports on the profiles file as a whole.
type ConfigCheck struct {
	// Path is the file that was loaded, or empty when none was found.
	Path   string
	Config *config.Config
	// Err is the error from finding or loading the file.
	Err error
}

func (c *ConfigCheck) Name() string     { return "profiles_file" }
func (c *ConfigCheck) Category() string { return CategoryConfig }

func (c *ConfigCheck) Run(context.Context) Result {
	if c.Err != nil {
		msg, hint := describe(c.Err)
		return fail(hint, "Can't load profiles: %s", msg)
	}
	if c.Path == "" {
		return warn("Save one with: vorax profile add <name>",
			"No profiles file found, using the built-in defaults")
	}
	if c.Config != nil && c.Config.Default != "" {
		if _, ok := c.Config.Profiles[c.Config.Default]; !ok {
			return fail("Fix 'default' or run: vorax profile add "+c.Config.Default,
				"Default profile '%s' is not defined in %s", c.Config.Default, c.Path)
		}
	}
	return pass("Profiles file: %s", c.Path)
}

// ProfileCheck validates one profile's settings.
type ProfileCheck struct {
	Profile config.Profile
}

func (c *ProfileCheck) Name() string     { return "profile_" + c.Profile.Name }
func (c *ProfileCheck) Category() string { return CategoryProfiles }

func (c *ProfileCheck) Run(context.Context) Result {
	p := c.Profile
	if err := config.ValidateProfile(p); err != nil {
		msg, hint := describe(err)
		return fail(hint, "%s: %s", p.Name, msg)
	}

	where := "local"
	if p.IsRemote() {
		where = "on " + p.Host
	}
	output := "plain text"
	if p.Markup {
		output = "html markup"
	}
	return pass("%s: %s %s, %s, %s", p.Name, p.Executable, p.DisplayConnect(), where, output)
}

// describe splits a structured error into its message and suggestion.
func describe(err error) (string, string) {
	var vxErr *errors.Error
	if stderrors.As(err, &vxErr) {
		return vxErr.Message, vxErr.Suggestion
	}
	msg, _, _ := strings.Cut(err.Error(), "\n")
	return msg, ""
}

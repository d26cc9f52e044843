package cli

import (
	"fmt"
	"time"

	"github.com/rileyhilliard/vorax/internal/errors"
	"github.com/spf13/cobra"
)

// SessionFlags holds the flags shared by every command that opens a session.
type SessionFlags struct {
	Profile string
	Timeout string
	Raw     bool
}

// AddSessionFlags registers --profile, --timeout and --raw on a command.
func AddSessionFlags(cmd *cobra.Command, flags *SessionFlags) {
	cmd.Flags().StringVarP(&flags.Profile, "profile", "p", "", "profile to run (default: the file's default profile)")
	cmd.Flags().StringVar(&flags.Timeout, "timeout", "", "per-statement timeout, overriding the profile (e.g., 30s, 5m)")
	cmd.Flags().BoolVar(&flags.Raw, "raw", false, "print interpreter output as-is, without HTML beautifying")
}

// ParseTimeout parses a timeout flag into a duration.
// Returns zero duration if the flag is empty.
func ParseTimeout(flag string) (time.Duration, error) {
	if flag == "" {
		return 0, nil
	}

	duration, err := time.ParseDuration(flag)
	if err != nil || duration <= 0 {
		return 0, errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("'%s' doesn't look like a valid timeout", flag),
			"Try something like 30s, 5m, or 500ms.")
	}
	return duration, nil
}

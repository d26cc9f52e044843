package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rileyhilliard/vorax/internal/errors"
	"github.com/rileyhilliard/vorax/internal/session"
	"github.com/rileyhilliard/vorax/internal/splitter"
	"github.com/rileyhilliard/vorax/internal/ui"
	"github.com/rileyhilliard/vorax/internal/util"
	"github.com/spf13/cobra"
)

var (
	runFlags       SessionFlags
	runStopOnError bool
	runTerminator  string
)

var runCmd = &cobra.Command{
	Use:   "run <file|->",
	Short: "Run a script statement by statement",
	Long: `Split a script into statements and run them one at a time in a single
session. Use - to read the script from stdin.

Statements end at the terminator (";" by default) outside quotes and
comments. PL/SQL blocks end at a line holding only "/", and SQL*Plus commands
such as SET or PROMPT end at the end of their line.

When a statement fails the error is reported and, if the interpreter died,
the session is restarted before moving on. --stop-on-error stops at the first
failure instead.

Examples:
  vorax run schema.sql
  vorax run -p prod --stop-on-error migrate.sql
  cat checks.sql | vorax run -`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScript(cmd, runFlags, args[0])
	},
}

func init() {
	AddSessionFlags(runCmd, &runFlags)
	runCmd.Flags().BoolVar(&runStopOnError, "stop-on-error", false, "stop at the first failing statement")
	runCmd.Flags().StringVar(&runTerminator, "terminator", splitter.DefaultTerminator, "statement terminator")
	rootCmd.AddCommand(runCmd)
}

func readScript(cmd *cobra.Command, path string) (string, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("Can't read script %s", path),
			"Check the path and its permissions.")
	}
	return string(data), nil
}

func runScript(cmd *cobra.Command, flags SessionFlags, path string) error {
	script, err := readScript(cmd, path)
	if err != nil {
		return err
	}
	statements := splitter.New(runTerminator).Split(script)
	if len(statements) == 0 {
		ui.Info(cmd.ErrOrStderr(), "No statements in %s", path)
		return nil
	}

	ctx := cmd.Context()
	s, _, err := openSession(ctx, flags, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer s.Close()

	failed := 0
	for i, stmt := range statements {
		var out string
		err := withSpinner(cmd.ErrOrStderr(), firstLine(stmt), func() error {
			var err error
			out, err = s.Execute(ctx, stmt)
			return err
		})
		if err == nil {
			printOutput(cmd.OutOrStdout(), out)
			continue
		}

		failed++
		if runStopOnError || ctx.Err() != nil {
			return err
		}
		ui.Failure(cmd.ErrOrStderr(), "Statement %d failed: %s", i+1, firstLine(stmt))
		fmt.Fprint(cmd.ErrOrStderr(), formatError(err))

		if err := recoverSession(ctx, s, err); err != nil {
			return err
		}
	}

	if failed > 0 {
		ui.Warning(cmd.ErrOrStderr(), "%d of %d %s failed", failed, len(statements),
			util.Pluralize(len(statements), "statement", "statements"))
		return errors.NewExitError(1)
	}
	return nil
}

// recoverSession restarts the session after a failure that left it dead.
// Errors the session survives need nothing.
func recoverSession(ctx context.Context, s *session.Session, cause error) error {
	if s.State() != session.Dead || !errors.IsRestartable(cause) {
		return nil
	}
	return s.Restart(ctx)
}

// firstLine shortens a statement for status lines.
func firstLine(stmt string) string {
	line, _, more := strings.Cut(strings.TrimSpace(stmt), "\n")
	const limit = 60
	if r := []rune(line); len(r) > limit {
		return string(r[:limit]) + "..."
	}
	if more {
		return line + " ..."
	}
	return line
}

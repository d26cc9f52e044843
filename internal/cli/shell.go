package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/rileyhilliard/vorax/internal/errors"
	"github.com/rileyhilliard/vorax/internal/session"
	"github.com/rileyhilliard/vorax/internal/splitter"
	"github.com/rileyhilliard/vorax/internal/ui"
	"github.com/spf13/cobra"
)

var (
	shellFlags      SessionFlags
	shellTerminator string
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Interactive statement prompt",
	Long: `Open a session and read statements from the terminal. Input is buffered
until it holds a complete statement, so multi-line queries and PL/SQL blocks
can be typed naturally.

Shell commands (at the start of an empty buffer):
  :restart   kill the interpreter and start a fresh session
  :status    show the session state
  :quit      close the session and leave (also exit, quit, Ctrl-D)

When stdin is not a terminal no prompt is shown, which makes the shell
usable in pipelines.

Examples:
  vorax shell
  vorax shell -p prod
  echo "select 1 from dual;" | vorax shell`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runShell(cmd, shellFlags)
	},
}

func init() {
	AddSessionFlags(shellCmd, &shellFlags)
	shellCmd.Flags().StringVar(&shellTerminator, "terminator", splitter.DefaultTerminator, "statement terminator")
	rootCmd.AddCommand(shellCmd)
}

type shellState struct {
	ctx         context.Context
	s           *session.Session
	name        string
	out         io.Writer
	status      io.Writer
	interactive bool
}

func runShell(cmd *cobra.Command, flags SessionFlags) error {
	in := cmd.InOrStdin()
	f, isFile := in.(*os.File)
	interactive := isFile && ui.IsTerminal(f)

	s, p, err := openSession(cmd.Context(), flags, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer s.Close()

	sh := &shellState{
		ctx:         cmd.Context(),
		s:           s,
		name:        p.Name,
		out:         cmd.OutOrStdout(),
		status:      cmd.ErrOrStderr(),
		interactive: interactive,
	}
	if interactive {
		ui.Info(sh.status, "Connected with profile %s. Type :quit to leave.", p.Name)
	}

	var input lineReader
	if interactive {
		input, err = newPromptReader(p.Name, sh.status)
		if err != nil {
			return errors.WrapWithCode(err, errors.ErrExec, "Failed to open the terminal for input", "Pipe statements into the shell instead.")
		}
	} else {
		input = newScanReader(in)
	}
	defer input.Close()

	return sh.loop(input, splitter.New(shellTerminator))
}

// loop feeds input lines to the splitter and runs each statement as soon as
// it is complete. Ctrl-C at the prompt discards a partly typed statement,
// or ends the shell when there is none.
func (sh *shellState) loop(input lineReader, split *splitter.TerminatorSplitter) error {
	pending := ""
	for {
		line, err := input.ReadLine(strings.TrimSpace(pending) != "")
		if err == readline.ErrInterrupt {
			if strings.TrimSpace(pending) == "" && strings.TrimSpace(line) == "" {
				return nil
			}
			pending = ""
			continue
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.WrapWithCode(err, errors.ErrExec, "Failed to read input", "")
		}

		if strings.TrimSpace(pending) == "" {
			quit, err := sh.meta(line)
			if err != nil {
				return err
			}
			if quit {
				return nil
			}
			if isMeta(line) {
				continue
			}
		}

		pending += line + "\n"
		var stmts []string
		stmts, pending = split.SplitComplete(pending)
		for _, stmt := range stmts {
			if err := sh.execute(stmt); err != nil {
				return err
			}
		}
	}

	for _, stmt := range split.Split(pending) {
		if err := sh.execute(stmt); err != nil {
			return err
		}
	}
	return nil
}

// isMeta reports whether line is a shell command rather than input for the
// interpreter.
func isMeta(line string) bool {
	word := strings.ToLower(strings.TrimRight(strings.TrimSpace(line), ";"))
	switch word {
	case "exit", "quit":
		return true
	}
	return strings.HasPrefix(word, ":")
}

// meta handles a shell command. It reports whether the shell should quit.
func (sh *shellState) meta(line string) (bool, error) {
	if !isMeta(line) {
		return false, nil
	}

	word := strings.ToLower(strings.TrimRight(strings.TrimSpace(line), ";"))
	switch word {
	case ":quit", ":q", ":exit", "exit", "quit":
		return true, nil
	case ":restart":
		err := withSpinner(sh.status, "Restarting", func() error { return sh.s.Restart(sh.ctx) })
		if err != nil {
			if sh.ctx.Err() != nil {
				return false, err
			}
			fmt.Fprint(sh.status, formatError(err))
			return false, nil
		}
		ui.Success(sh.status, "Session restarted")
	case ":status":
		ui.Info(sh.status, "Session is %s", sh.s.State())
	default:
		ui.Warning(sh.status, "Unknown shell command %s (try :restart, :status or :quit)", word)
	}
	return false, nil
}

// execute runs one statement. Failures are reported and the shell carries
// on; only cancellation ends it.
func (sh *shellState) execute(stmt string) error {
	var out string
	err := withSpinner(sh.status, firstLine(stmt), func() error {
		var err error
		out, err = sh.s.Execute(sh.ctx, stmt)
		return err
	})
	if err == nil {
		printOutput(sh.out, out)
		return nil
	}
	if sh.ctx.Err() != nil {
		return err
	}

	fmt.Fprint(sh.status, formatError(err))
	if sh.s.State() != session.Dead {
		return nil
	}
	if sh.interactive {
		ui.Warning(sh.status, "The session is dead. Type :restart to start a new one.")
		return nil
	}
	return recoverSession(sh.ctx, sh.s, err)
}

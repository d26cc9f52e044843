package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/rileyhilliard/vorax/internal/errors"
	"github.com/rileyhilliard/vorax/internal/logger"
	"github.com/rileyhilliard/vorax/internal/ui"
	"github.com/spf13/cobra"
)

// Global flags
var (
	cfgFile string
	verbose bool
	noColor bool
)

var rootCmd = &cobra.Command{
	Use:   "vorax",
	Short: "Drive SQL*Plus sessions from the command line",
	Long: `vorax keeps an interactive interpreter such as SQL*Plus running in the
background, sends it statements, and knows when each one has finished by
waiting for a unique completion marker. HTML output from SET MARKUP HTML is
turned back into aligned plain text.

Sessions are described by profiles in ~/.config/vorax/profiles.yaml (or a
.vorax.yaml next to your scripts). A profile can run the interpreter locally
or on another machine over SSH.

Examples:
  vorax exec "select sysdate from dual;"
  vorax run --profile prod reports/daily.sql
  vorax shell
  sqlplus -M "HTML ON" ... | vorax beautify`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			os.Setenv(logger.DebugEnvVar, "1")
		}
		if noColor || os.Getenv("NO_COLOR") != "" || !ui.IsTerminal(os.Stdout) {
			ui.DisableColors()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "profiles file (default: .vorax.yaml or ~/.config/vorax/profiles.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log session and process activity")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

// Execute runs the root command and exits with the right status.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return
	}

	if isUnknownCommandError(err) {
		fmt.Fprintln(os.Stderr, unknownCommandHelp(err))
		os.Exit(2)
	}

	// A plain exit code carries no message; the command already reported.
	var exitErr *errors.ExitError
	if stderrors.As(err, &exitErr) && exitErr == err {
		os.Exit(exitErr.Code)
	}

	fmt.Fprint(os.Stderr, formatError(err))
	if code, ok := errors.GetExitCode(err); ok && code > 0 {
		os.Exit(code)
	}
	os.Exit(1)
}

// formatError renders structured errors as they are and plain ones with the
// failure symbol.
func formatError(err error) string {
	var vxErr *errors.Error
	if stderrors.As(err, &vxErr) {
		return err.Error()
	}
	return fmt.Sprintf("%s %s\n", ui.SymbolFail, err)
}

func isUnknownCommandError(err error) bool {
	msg := err.Error()
	return strings.HasPrefix(msg, "unknown command") || strings.HasPrefix(msg, "unknown flag")
}

// extractUnknownCommand pulls the command name out of cobra's
// `unknown command "foo" for "vorax"` message.
func extractUnknownCommand(err error) string {
	msg := err.Error()
	start := strings.Index(msg, `"`)
	if start < 0 {
		return ""
	}
	end := strings.Index(msg[start+1:], `"`)
	if end < 0 {
		return ""
	}
	return msg[start+1 : start+1+end]
}

func unknownCommandHelp(err error) string {
	name := extractUnknownCommand(err)
	if name == "" {
		return fmt.Sprintf("%s %s\n\n  Run 'vorax --help' for usage.", ui.SymbolFail, err)
	}
	msg := fmt.Sprintf("%s Unknown command '%s'", ui.SymbolFail, name)
	if strings.HasSuffix(name, ".sql") {
		return msg + fmt.Sprintf("\n\n  To run a script: vorax run %s", name)
	}
	return msg + "\n\n  Run 'vorax --help' to see the available commands."
}

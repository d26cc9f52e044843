package cli

import (
	"github.com/spf13/cobra"
)

var execFlags SessionFlags

var execCmd = &cobra.Command{
	Use:   "exec <statement>...",
	Short: "Run statements in a fresh session",
	Long: `Start a session, run each argument as one statement, print the output,
and close the session.

Arguments are sent exactly as given, so include the terminator.

Examples:
  vorax exec "select sysdate from dual;"
  vorax exec -p prod "set serveroutput on" "exec dbms_output.put_line('hi');"
  vorax exec --raw "select * from emp;"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return execStatements(cmd, execFlags, args)
	},
}

func init() {
	AddSessionFlags(execCmd, &execFlags)
	rootCmd.AddCommand(execCmd)
}

func execStatements(cmd *cobra.Command, flags SessionFlags, statements []string) error {
	ctx := cmd.Context()
	s, _, err := openSession(ctx, flags, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer s.Close()

	for _, stmt := range statements {
		var out string
		err := withSpinner(cmd.ErrOrStderr(), firstLine(stmt), func() error {
			var err error
			out, err = s.Execute(ctx, stmt)
			return err
		})
		if err != nil {
			return err
		}
		printOutput(cmd.OutOrStdout(), out)
	}
	return nil
}

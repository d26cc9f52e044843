package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/rileyhilliard/vorax/internal/errors"
	"github.com/spf13/cobra"
)

var beautifyCmd = &cobra.Command{
	Use:   "beautify [file]",
	Short: "Turn SQL*Plus HTML output into plain text",
	Long: `Read HTML produced by SQL*Plus with SET MARKUP HTML ON and print it as
aligned plain text. Reads stdin when no file is given. No interpreter is
started.

Examples:
  vorax beautify report.html
  sqlplus -S -M "HTML ON" scott/tiger @q.sql | vorax beautify`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var in io.Reader = cmd.InOrStdin()
		name := "stdin"
		if len(args) == 1 && args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return errors.WrapWithCode(err, errors.ErrConfig,
					fmt.Sprintf("Can't open %s", args[0]),
					"Check the path and its permissions.")
			}
			defer f.Close()
			in, name = f, args[0]
		}

		data, err := io.ReadAll(in)
		if err != nil {
			return errors.WrapWithCode(err, errors.ErrExec, "Failed to read "+name, "")
		}
		printOutput(cmd.OutOrStdout(), newBeautifier().Beautify(string(data)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(beautifyCmd)
}

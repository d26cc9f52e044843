package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/rileyhilliard/vorax/internal/config"
	"github.com/rileyhilliard/vorax/internal/doctor"
	"github.com/rileyhilliard/vorax/internal/errors"
	"github.com/rileyhilliard/vorax/internal/logger"
	"github.com/rileyhilliard/vorax/internal/ui"
	"github.com/spf13/cobra"
)

var (
	doctorProfile string
	doctorStart   bool
	doctorJSON    bool
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check profiles, interpreters and SSH hosts",
	Long: `Diagnose why a session won't start. Checks that the profiles file loads,
that every profile is valid, that each interpreter can be found (locally or
on its SSH host), and with --start that a session really comes up.

Exits non-zero when any check fails.

Examples:
  vorax doctor
  vorax doctor -p prod --start
  vorax doctor --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDoctor(cmd)
	},
}

func init() {
	doctorCmd.Flags().StringVarP(&doctorProfile, "profile", "p", "", "check only this profile")
	doctorCmd.Flags().BoolVar(&doctorStart, "start", false, "start a session for each profile")
	doctorCmd.Flags().BoolVar(&doctorJSON, "json", false, "print the report as JSON")
	rootCmd.AddCommand(doctorCmd)
}

type doctorReport struct {
	Results []doctor.Result `json:"results"`
	Summary doctorSummary   `json:"summary"`
}

type doctorSummary struct {
	Pass int `json:"pass"`
	Warn int `json:"warn"`
	Fail int `json:"fail"`
}

func runDoctor(cmd *cobra.Command) error {
	checks, err := doctorChecks()
	if err != nil {
		return err
	}

	var results []doctor.Result
	err = withSpinner(cmd.ErrOrStderr(), "Running checks", func() error {
		results = doctor.Run(cmd.Context(), checks)
		return nil
	})
	if err != nil {
		return err
	}

	if doctorJSON {
		counts := doctor.CountByStatus(results)
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		err := enc.Encode(doctorReport{
			Results: results,
			Summary: doctorSummary{
				Pass: counts[doctor.StatusPass],
				Warn: counts[doctor.StatusWarn],
				Fail: counts[doctor.StatusFail],
			},
		})
		if err != nil {
			return errors.WrapWithCode(err, errors.ErrExec, "Failed to write the report", "")
		}
	} else {
		renderDoctor(cmd.OutOrStdout(), results)
	}

	if doctor.HasFailures(results) {
		return errors.NewExitError(1)
	}
	return nil
}

// doctorChecks builds the checks for the profiles in scope. A profiles file
// that fails to load still yields a report with that failure in it.
func doctorChecks() ([]doctor.Check, error) {
	path, err := config.Find(cfgFile)
	cfgCheck := &doctor.ConfigCheck{Path: path, Err: err}
	if err != nil {
		return []doctor.Check{cfgCheck}, nil
	}

	cfg := config.DefaultConfig()
	if path != "" {
		if cfg, err = config.Load(path); err != nil {
			cfgCheck.Err = err
			return []doctor.Check{cfgCheck}, nil
		}
	}
	cfgCheck.Config = cfg

	names := cfg.ProfileNames()
	if doctorProfile != "" {
		p, err := cfg.LoadProfile(doctorProfile)
		if err != nil {
			return nil, err
		}
		names = []string{p.Name}
	}

	checks := []doctor.Check{cfgCheck}
	for _, name := range names {
		p := cfg.Profiles[name]
		checks = append(checks, &doctor.ProfileCheck{Profile: p})
		if config.ValidateProfile(p) != nil {
			continue
		}

		if p.IsRemote() {
			checks = append(checks, doctor.NewRemoteCheck(p, sshDialTimeout))
		} else {
			checks = append(checks, &doctor.InterpreterCheck{Profile: p})
		}

		if doctorStart {
			opts := p.SessionOptions()
			opts.Logger = logger.NewEnvLogger("[doctor " + p.Name + "]")
			checks = append(checks, &doctor.SessionCheck{
				Profile:    p,
				Supervisor: supervisorFor(p, logger.NewEnvLogger("[process]")),
				Options:    opts,
			})
		}
	}
	return checks, nil
}

func renderDoctor(w io.Writer, results []doctor.Result) {
	header := ui.BoldStyle()
	muted := ui.MutedStyle()

	for _, g := range doctor.GroupByCategory(results) {
		fmt.Fprintln(w, header.Render(g.Category))
		for _, r := range g.Results {
			fmt.Fprintf(w, "  %s %s\n", statusSymbol(r.Status), r.Message)
			if r.Suggestion != "" && r.Status != doctor.StatusPass {
				for _, line := range strings.Split(r.Suggestion, "\n") {
					fmt.Fprintf(w, "    %s\n", muted.Render(line))
				}
			}
		}
		fmt.Fprintln(w)
	}

	summary := doctor.Summary(results)
	switch {
	case doctor.HasFailures(results):
		fmt.Fprintln(w, ui.ErrorStyle().Render(summary))
	case summary != doctor.Summary(nil):
		fmt.Fprintln(w, ui.WarningStyle().Render(summary))
	default:
		fmt.Fprintln(w, ui.SuccessStyle().Render(summary))
	}
}

func statusSymbol(s doctor.Status) string {
	switch s {
	case doctor.StatusPass:
		return ui.SuccessStyle().Render(ui.SymbolSuccess)
	case doctor.StatusWarn:
		return ui.WarningStyle().Render(ui.SymbolWarning)
	default:
		return ui.ErrorStyle().Render(ui.SymbolFail)
	}
}

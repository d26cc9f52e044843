package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/rileyhilliard/vorax/internal/config"
	"github.com/rileyhilliard/vorax/internal/errors"
	"github.com/rileyhilliard/vorax/internal/ui"
	"github.com/rileyhilliard/vorax/pkg/sshutil"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// profileAddOptions holds the flags of `profile add`.
type profileAddOptions struct {
	Executable     string
	Args           []string
	Connect        string
	Host           string
	Dir            string
	Encoding       string
	Env            map[string]string
	Init           []string
	EchoCommand    string
	ErrEchoCommand string
	ExitCommand    string
	NoMarkup       bool
	MakeDefault    bool
	NonInteractive bool
}

var profileAdd profileAddOptions

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage session profiles",
	Long: `List, inspect, add and remove the profiles that describe how to start an
interpreter session.

Profiles live in ~/.config/vorax/profiles.yaml unless --config points
elsewhere or a .vorax.yaml is found in the current directory or a parent.`,
}

var profileListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List profiles",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, path, err := loadConfig()
		if err != nil {
			return err
		}

		rows := make([]ui.ProfileRow, 0, len(cfg.Profiles))
		for _, name := range cfg.ProfileNames() {
			p := cfg.Profiles[name]
			rows = append(rows, ui.ProfileRow{
				Name:    name,
				Target:  profileTarget(p),
				Connect: p.DisplayConnect(),
				Markup:  p.Markup,
			})
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, ui.RenderProfileTable(rows, cfg.Default))
		if path == "" {
			fmt.Fprintln(out, ui.MutedStyle().Render("(built-in defaults; no profiles file found)"))
		} else {
			fmt.Fprintln(out, ui.MutedStyle().Render(path))
		}
		return nil
	},
}

var profileShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show a profile's settings",
	Long: `Print the fully resolved settings of a profile, defaults included. The
password in the connect string is masked.

Examples:
  vorax profile show
  vorax profile show prod`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		name := ""
		if len(args) == 1 {
			name = args[0]
		}
		p, err := cfg.LoadProfile(name)
		if err != nil {
			return err
		}
		return showProfile(cmd, p)
	},
}

var profileAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add or replace a profile",
	Long: `Write a profile to the profiles file, replacing one with the same name.
On a terminal, settings not given as flags are asked for in a short form.

Examples:
  vorax profile add dev --connect scott/tiger@localhost/XEPDB1
  vorax profile add prod --host db1 --connect app@PROD --default
  vorax profile add sh --executable /bin/sh --no-markup --echo "echo %s" --non-interactive`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return addProfile(cmd, args[0], profileAdd)
	},
}

var profileRemoveCmd = &cobra.Command{
	Use:     "remove <name>",
	Aliases: []string{"rm"},
	Short:   "Remove a profile",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := writablePath()
		if err != nil {
			return err
		}
		removed, err := config.RemoveProfile(path, args[0])
		if err != nil {
			return err
		}
		if !removed {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("Profile '%s' not found in %s", args[0], path),
				"Run 'vorax profile list' to see what is there.")
		}
		ui.Success(cmd.OutOrStdout(), "Removed profile %s", args[0])
		return nil
	},
}

func init() {
	f := profileAddCmd.Flags()
	f.StringVar(&profileAdd.Executable, "executable", "", "interpreter to launch (default: sqlplus)")
	f.StringArrayVar(&profileAdd.Args, "arg", nil, "argument before the connect string (repeatable)")
	f.StringVar(&profileAdd.Connect, "connect", "", "connect string, e.g. scott/tiger@db")
	f.StringVar(&profileAdd.Host, "host", "", "run over SSH on this host")
	f.StringVar(&profileAdd.Dir, "dir", "", "working directory")
	f.StringVar(&profileAdd.Encoding, "encoding", "", "interpreter charset when not UTF-8 (e.g., windows-1252)")
	f.StringToStringVar(&profileAdd.Env, "env", nil, "environment variable KEY=VALUE (repeatable)")
	f.StringArrayVar(&profileAdd.Init, "init", nil, "command to run at startup (repeatable)")
	f.StringVar(&profileAdd.EchoCommand, "echo", "", "command that prints the completion marker, with %s for the marker")
	f.StringVar(&profileAdd.ErrEchoCommand, "err-echo", "", "command that prints the marker on stderr, for interpreters that write to it")
	f.StringVar(&profileAdd.ExitCommand, "exit", "", "command that ends the interpreter")
	f.BoolVar(&profileAdd.NoMarkup, "no-markup", false, "keep the interpreter's plain text output")
	f.BoolVar(&profileAdd.MakeDefault, "default", false, "make this the default profile")
	f.BoolVar(&profileAdd.NonInteractive, "non-interactive", false, "never prompt")

	profileCmd.AddCommand(profileListCmd, profileShowCmd, profileAddCmd, profileRemoveCmd)
	rootCmd.AddCommand(profileCmd)
}

// writablePath is where profile edits go: the file in use, or the global
// one when there is none yet.
func writablePath() (string, error) {
	path, err := config.Find(cfgFile)
	if err != nil {
		return "", err
	}
	if path != "" {
		return path, nil
	}
	if cfgFile != "" {
		return cfgFile, nil
	}
	if global := config.GlobalPath(); global != "" {
		return global, nil
	}
	return "", errors.New(errors.ErrConfig,
		"Can't tell where to save profiles",
		"Pass --config with a path for the profiles file.")
}

func showProfile(cmd *cobra.Command, p config.Profile) error {
	shown := p
	shown.Connect = p.DisplayConnect()

	data, err := yaml.Marshal(map[string]config.Profile{p.Name: shown})
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, "Failed to render profile", "")
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

// buildProfile turns flags into a profile on top of the defaults.
func buildProfile(name string, opts profileAddOptions) config.Profile {
	p := config.DefaultProfile(name)
	if opts.Executable != "" {
		p.Executable = opts.Executable
	}
	if opts.Args != nil {
		p.Args = opts.Args
	}
	if opts.Connect != "" {
		p.Connect = opts.Connect
	}
	p.Host = opts.Host
	p.Dir = opts.Dir
	p.Encoding = opts.Encoding
	if len(opts.Env) > 0 {
		p.Env = opts.Env
	}
	if opts.Init != nil {
		p.InitCommands = opts.Init
	}
	if opts.EchoCommand != "" {
		p.EchoCommand = opts.EchoCommand
	}
	if opts.ErrEchoCommand != "" {
		p.ErrEchoCommand = opts.ErrEchoCommand
	}
	if opts.ExitCommand != "" {
		p.ExitCommand = opts.ExitCommand
	}
	p.Markup = !opts.NoMarkup
	return p
}

func addProfile(cmd *cobra.Command, name string, opts profileAddOptions) error {
	path, err := writablePath()
	if err != nil {
		return err
	}

	interactive := !opts.NonInteractive && ui.IsTerminal(os.Stdin) && ui.IsTerminal(os.Stdout)
	if interactive && !cmd.Flags().Changed("connect") {
		if err := promptProfile(&opts); err != nil {
			return err
		}
	}

	p := buildProfile(name, opts)
	if err := config.AddProfile(path, p); err != nil {
		return err
	}
	if opts.MakeDefault {
		if err := config.SetDefault(path, name); err != nil {
			return err
		}
	}

	ui.Success(cmd.OutOrStdout(), "Saved profile %s to %s", name, path)
	return nil
}

// localHost is the host choice meaning "run on this machine".
const localHost = ""

// promptProfile asks for the connect string, where to run, and whether to
// use HTML markup.
func promptProfile(opts *profileAddOptions) error {
	markup := !opts.NoMarkup
	hostOptions := []huh.Option[string]{huh.NewOption("This machine", localHost)}
	if entries, err := sshutil.ListHosts(); err == nil {
		for _, e := range entries {
			hostOptions = append(hostOptions, huh.NewOption(e.Alias+" ("+e.Description()+")", e.Alias))
		}
	}

	fields := []huh.Field{
		huh.NewInput().
			Title("Connect string").
			Description("user/password@database, or /nolog to connect later").
			Placeholder("/nolog").
			Value(&opts.Connect),
	}
	if len(hostOptions) > 1 && opts.Host == "" {
		fields = append(fields, huh.NewSelect[string]().
			Title("Where should the interpreter run?").
			Options(hostOptions...).
			Value(&opts.Host))
	}
	fields = append(fields, huh.NewConfirm().
		Title("Use HTML markup and beautify the output?").
		Value(&markup))

	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to get your input",
			"Pass the settings as flags with --non-interactive instead.")
	}

	opts.Connect = strings.TrimSpace(opts.Connect)
	opts.NoMarkup = !markup
	if opts.Host != localHost {
		ui.Info(os.Stderr, "Remote profile: the interpreter will be started on %s over SSH", opts.Host)
	}
	return nil
}

package config

import (
	"sort"

	"github.com/rileyhilliard/vorax/internal/process"
	"github.com/rileyhilliard/vorax/internal/session"
)

// markupOn switches SQL*Plus to HTML output without a full page wrapper.
const markupOn = "set markup html on spool off preformat off entmap on"

// markupEcho prints the completion marker as plain text; in HTML mode
// PROMPT output would carry a trailing <br>.
const markupEcho = "set markup html off\nprompt %s\n" + markupOn

// ProcessSpec converts the profile into what a supervisor spawns.
func (p Profile) ProcessSpec() process.Spec {
	args := append([]string(nil), p.Args...)
	if p.Connect != "" {
		args = append(args, p.Connect)
	}

	keys := make([]string, 0, len(p.Env))
	for k := range p.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	env := make([]string, 0, len(keys))
	for _, k := range keys {
		env = append(env, k+"="+p.Env[k])
	}

	return process.Spec{
		Command:     p.Executable,
		Args:        args,
		Env:         env,
		Dir:         p.Dir,
		Encoding:    p.Encoding,
		ExitCommand: p.ExitCommand,
		GracePeriod: p.GracePeriod,
	}
}

// SessionOptions converts the profile into session options. The caller
// attaches a Beautifier and Logger. With Markup set, HTML output is turned
// on before the user's init commands run.
func (p Profile) SessionOptions() session.Options {
	opts := session.Options{
		Spec:           p.ProcessSpec(),
		EchoCommand:    p.EchoCommand,
		ErrEchoCommand: p.ErrEchoCommand,
		StartupTimeout: p.StartupTimeout,
		ExecTimeout:    p.ExecTimeout,
		RingSize:       p.RingSize,
	}

	if p.Markup {
		opts.InitCommands = append([]string{markupOn}, p.InitCommands...)
		if opts.EchoCommand == "" || opts.EchoCommand == "prompt %s" {
			opts.EchoCommand = markupEcho
		}
	} else {
		opts.InitCommands = append([]string(nil), p.InitCommands...)
	}
	return opts
}

package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/rileyhilliard/vorax/internal/config"
	"github.com/rileyhilliard/vorax/internal/ui"
)

// lineReader feeds the shell one line at a time. It returns io.EOF at the
// end of input and readline.ErrInterrupt when Ctrl-C is pressed at the
// prompt. continuation is set while a statement is still being typed.
type lineReader interface {
	ReadLine(continuation bool) (string, error)
	Close() error
}

// scanReader reads piped input. It never prompts.
type scanReader struct {
	scanner *bufio.Scanner
}

func newScanReader(r io.Reader) *scanReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	return &scanReader{scanner: scanner}
}

func (r *scanReader) ReadLine(bool) (string, error) {
	if r.scanner.Scan() {
		return r.scanner.Text(), nil
	}
	if err := r.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (r *scanReader) Close() error { return nil }

// promptReader reads from the terminal with line editing and history.
type promptReader struct {
	rl     *readline.Instance
	prompt string
	cont   string
}

func newPromptReader(name string, out io.Writer) (*promptReader, error) {
	prompt := fmt.Sprintf("%s %s ", name, ui.InfoStyle().Render(ui.SymbolPrompt))

	history := config.HistoryPath()
	if history != "" {
		if err := os.MkdirAll(filepath.Dir(history), 0o755); err != nil {
			history = ""
		}
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     history,
		InterruptPrompt: "^C",
		EOFPrompt:       ":quit",
		Stdout:          out,
		Stderr:          out,
	})
	if err != nil {
		return nil, err
	}
	return &promptReader{
		rl:     rl,
		prompt: prompt,
		cont:   strings.Repeat(" ", len(name)) + " . ",
	}, nil
}

func (r *promptReader) ReadLine(continuation bool) (string, error) {
	if continuation {
		r.rl.SetPrompt(r.cont)
	} else {
		r.rl.SetPrompt(r.prompt)
	}
	return r.rl.Readline()
}

func (r *promptReader) Close() error { return r.rl.Close() }

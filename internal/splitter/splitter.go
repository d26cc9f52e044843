// Package splitter cuts a buffer of SQL*Plus input into statements that can
// be sent to the interpreter one at a time.
//
// It is a scanner, not a parser: it knows about quotes, comments, PL/SQL
// blocks terminated by a lone "/" and SQL*Plus commands that end at the end
// of their line, which is enough to drive a session.
package splitter

import "strings"

// Splitter splits buffered input into statements.
type Splitter interface {
	Split(buffer string) []string
}

// DefaultTerminator ends a plain SQL statement.
const DefaultTerminator = ";"

// TerminatorSplitter splits on a statement terminator. The zero value uses
// DefaultTerminator.
type TerminatorSplitter struct {
	Terminator string
}

// New returns a splitter for terminator, or the default one when it is
// empty.
func New(terminator string) *TerminatorSplitter {
	return &TerminatorSplitter{Terminator: terminator}
}

func (s TerminatorSplitter) terminator() string {
	if s.Terminator == "" {
		return DefaultTerminator
	}
	return s.Terminator
}

// Split returns every statement in buffer. A trailing statement without a
// terminator is returned as well. Statements keep their terminator (or
// their closing "/" line) so the interpreter runs them as written.
func (s TerminatorSplitter) Split(buffer string) []string {
	stmts, _ := s.scan(buffer, true)
	return stmts
}

// SplitComplete returns the statements that are complete and the
// unfinished remainder, which the caller keeps buffering. An interactive
// prompt uses this to decide when to execute.
func (s TerminatorSplitter) SplitComplete(buffer string) ([]string, string) {
	return s.scan(buffer, false)
}

type kind int

const (
	kindSQL kind = iota
	kindPLSQL
	kindCommand
)

func (s TerminatorSplitter) scan(buf string, final bool) ([]string, string) {
	var stmts []string
	pos := 0
	for {
		start := skipSpace(buf, pos)
		if start >= len(buf) {
			return stmts, ""
		}

		// A stray "/" re-runs the SQL*Plus buffer; statements here always
		// carry their own terminator, so it is dropped.
		if line, next := lineAt(buf, start); strings.TrimSpace(line) == "/" && next > 0 {
			pos = next
			continue
		}

		words := leadingWords(buf, start, 6)
		if len(words) == 0 {
			// Only comments left.
			if final || strings.HasSuffix(buf, "\n") {
				return stmts, ""
			}
			return stmts, buf[start:]
		}

		var end int
		switch classify(words) {
		case kindCommand:
			end = commandEnd(buf, start)
		case kindPLSQL:
			end = slashEnd(buf, start)
		default:
			end = s.sqlEnd(buf, start)
		}

		if end < 0 {
			if final {
				if stmt := strings.TrimSpace(buf[start:]); stmt != "" {
					stmts = append(stmts, stmt)
				}
				return stmts, ""
			}
			return stmts, buf[start:]
		}

		if stmt := strings.TrimSpace(buf[start:end]); stmt != "" {
			stmts = append(stmts, stmt)
		}
		pos = end
	}
}

// sqlEnd finds the end of a plain SQL statement: just past the terminator,
// or the end of a line holding only "/". Returns -1 when the statement is
// unfinished.
func (s TerminatorSplitter) sqlEnd(buf string, start int) int {
	term := s.terminator()
	i := start
	lineStart := true
	for i < len(buf) {
		if lineStart {
			if line, next := lineAt(buf, i); strings.TrimSpace(line) == "/" {
				if next < 0 {
					return len(buf)
				}
				return next
			}
			lineStart = false
		}

		switch {
		case strings.HasPrefix(buf[i:], "--"):
			nl := strings.IndexByte(buf[i:], '\n')
			if nl < 0 {
				return -1
			}
			i += nl
		case strings.HasPrefix(buf[i:], "/*"):
			closing := strings.Index(buf[i+2:], "*/")
			if closing < 0 {
				return -1
			}
			i += 2 + closing + 2
			continue
		case buf[i] == '\'' || buf[i] == '"':
			closing := strings.IndexByte(buf[i+1:], buf[i])
			if closing < 0 {
				return -1
			}
			i += 1 + closing + 1
			continue
		case strings.HasPrefix(buf[i:], term):
			return i + len(term)
		}

		if buf[i] == '\n' {
			lineStart = true
		}
		i++
	}
	return -1
}

// commandEnd returns the end of a SQL*Plus command line. A trailing "-"
// continues the command on the next line.
func commandEnd(buf string, start int) int {
	i := start
	for {
		line, next := lineAt(buf, i)
		if next < 0 {
			return -1
		}
		if !strings.HasSuffix(strings.TrimRight(line, " \t\r"), "-") {
			return next
		}
		i = next
	}
}

// slashEnd returns the end of the line holding only "/" that closes a
// PL/SQL block.
func slashEnd(buf string, start int) int {
	i := start
	for i < len(buf) {
		line, next := lineAt(buf, i)
		if i > start && strings.TrimSpace(line) == "/" {
			if next < 0 {
				return len(buf)
			}
			return next
		}
		if next < 0 {
			return -1
		}
		i = next
	}
	return -1
}

// lineAt returns the line starting at i without its newline, and the index
// just past the newline, or -1 when the line is not terminated.
func lineAt(buf string, i int) (string, int) {
	nl := strings.IndexByte(buf[i:], '\n')
	if nl < 0 {
		return buf[i:], -1
	}
	return buf[i : i+nl], i + nl + 1
}

func skipSpace(buf string, i int) int {
	for i < len(buf) && isSpace(buf[i]) {
		i++
	}
	return i
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isWordByte(c byte) bool {
	return c == '_' || c == '$' || c == '#' || c == '@' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// leadingWords returns up to n upper-cased words from i, skipping
// whitespace and comments. Scanning stops at the first non-word character.
func leadingWords(buf string, i, n int) []string {
	var words []string
	for len(words) < n && i < len(buf) {
		i = skipSpace(buf, i)
		switch {
		case i >= len(buf):
			return words
		case strings.HasPrefix(buf[i:], "--"):
			nl := strings.IndexByte(buf[i:], '\n')
			if nl < 0 {
				return words
			}
			i += nl + 1
			continue
		case strings.HasPrefix(buf[i:], "/*"):
			closing := strings.Index(buf[i+2:], "*/")
			if closing < 0 {
				return words
			}
			i += 2 + closing + 2
			continue
		}

		j := i
		for j < len(buf) && isWordByte(buf[j]) {
			j++
		}
		if j == i {
			return words
		}
		words = append(words, strings.ToUpper(buf[i:j]))
		i = j
	}
	return words
}

var sqlplusCommands = map[string]bool{
	"ACC": true, "ACCEPT": true, "APPEND": true, "ARCHIVE": true, "ATTRIBUTE": true,
	"BREAK": true, "BTITLE": true, "CLEAR": true, "COL": true, "COLUMN": true,
	"COMPUTE": true, "CONN": true, "CONNECT": true, "COPY": true, "DEF": true,
	"DEFINE": true, "DESC": true, "DESCRIBE": true, "DISC": true, "DISCONNECT": true,
	"EXEC": true, "EXECUTE": true, "EXIT": true, "HELP": true, "HOST": true,
	"PASSWORD": true, "PAUSE": true, "PRI": true, "PRINT": true, "PRO": true,
	"PROMPT": true, "QUIT": true, "RECOVER": true, "REM": true, "REMARK": true,
	"REPFOOTER": true, "REPHEADER": true, "SET": true, "SHO": true, "SHOW": true,
	"SHUTDOWN": true, "SPO": true, "SPOOL": true, "STA": true, "START": true,
	"STARTUP": true, "STORE": true, "TIMING": true, "TTITLE": true, "UNDEF": true,
	"UNDEFINE": true, "VAR": true, "VARIABLE": true, "WHENEVER": true,
}

// setSQL lists the words after SET that make it a SQL statement.
var setSQL = map[string]bool{
	"TRANSACTION": true, "ROLE": true, "CONSTRAINT": true, "CONSTRAINTS": true,
}

var plsqlObjects = map[string]bool{
	"PROCEDURE": true, "FUNCTION": true, "PACKAGE": true, "TRIGGER": true,
	"TYPE": true, "LIBRARY": true, "JAVA": true,
}

func classify(words []string) kind {
	first := words[0]
	switch {
	case strings.HasPrefix(first, "@"):
		return kindCommand
	case first == "SET":
		if len(words) > 1 && setSQL[words[1]] {
			return kindSQL
		}
		return kindCommand
	case sqlplusCommands[first]:
		return kindCommand
	case first == "DECLARE" || first == "BEGIN":
		return kindPLSQL
	case first == "CREATE":
		for _, w := range words[1:] {
			if w == "OR" || w == "REPLACE" || w == "EDITIONABLE" || w == "NONEDITIONABLE" {
				continue
			}
			if plsqlObjects[w] {
				return kindPLSQL
			}
			return kindSQL
		}
	}
	return kindSQL
}

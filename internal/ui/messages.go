package ui

import (
	"fmt"
	"io"
)

// Success writes a green check line to w.
func Success(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, "%s %s\n", SuccessStyle().Render(SymbolSuccess), fmt.Sprintf(format, args...))
}

// Warning writes a yellow warning line to w.
func Warning(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, "%s %s\n", WarningStyle().Render(SymbolWarning), fmt.Sprintf(format, args...))
}

// Info writes a cyan info line to w.
func Info(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, "%s %s\n", InfoStyle().Render(SymbolInfo), fmt.Sprintf(format, args...))
}

// Failure writes a red cross line to w.
func Failure(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, "%s %s\n", ErrorStyle().Render(SymbolFail), fmt.Sprintf(format, args...))
}

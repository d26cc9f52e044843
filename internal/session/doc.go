// Package session drives a long-lived interpreter such as SQL*Plus through a
// process.Supervisor.
//
// Completion is detected with a marker rather than by parsing prompts:
// after every statement the session sends a command that echoes a unique
// sentinel (for SQL*Plus "prompt <marker>") and reads output until that
// sentinel shows up at the tail of the ring buffer. Prompt customization in
// the interpreter therefore has no effect on detection.
//
// A session is Stopped until started, Ready between commands and Busy while
// one runs. Only one command runs at a time; a concurrent Execute fails fast
// with errors.ErrSessionBusy. A command that times out, or a child that dies,
// leaves the session Dead. Partial output is discarded and the caller must
// Restart and resubmit.
package session

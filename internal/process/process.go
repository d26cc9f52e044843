package process

import (
	"context"
	"time"
)

// Supervisor is the capability every process backend provides. The local
// backend (POSIX or Windows, picked at build time) and the SSH backend share
// this contract; only the spawn, probe and kill primitives differ.
type Supervisor interface {
	// Spawn starts the child with stdin, stdout and stderr wired to pipes.
	// Errors wrap errors.ErrSpawnFailed.
	Spawn(ctx context.Context, spec Spec) (*Handle, error)

	// Write sends raw bytes to the child's stdin. Errors wrap
	// errors.ErrBrokenPipe once the child has exited.
	Write(h *Handle, p []byte) error

	// ReadLine blocks for at most timeout waiting for the next output line.
	// A timeout is reported through ReadResult.Status, never as an error.
	ReadLine(h *Handle, timeout time.Duration) ReadResult

	// IsAlive is a non-blocking liveness probe.
	IsAlive(h *Handle) bool

	// Terminate stops the child. With graceful set it first writes the
	// Spec.ExitCommand and waits up to the grace period. Calling it on an
	// already terminated handle is a no-op.
	Terminate(h *Handle, graceful bool) error
}

// Spec describes the child to spawn.
type Spec struct {
	// Command is the executable name or path.
	Command string
	// Args are passed to the executable as-is.
	Args []string
	// Env entries (KEY=VALUE) are appended to the inherited environment.
	Env []string
	// Dir is the working directory. Empty means the current one.
	Dir string
	// Encoding is the charset the child reads and writes (htmlindex name,
	// e.g. "windows-1252"). Empty or UTF-8 means no conversion.
	Encoding string
	// ExitCommand is written to stdin on graceful termination (e.g. "exit").
	ExitCommand string
	// GracePeriod bounds the wait after ExitCommand before force-killing.
	GracePeriod time.Duration
	// QueueSize bounds the decoded line queue between readers and consumer.
	QueueSize int
}

const (
	defaultGracePeriod = 3 * time.Second
	defaultQueueSize   = 1024

	// reapGrace is how long ReadLine waits for the exit status once both
	// output streams have closed.
	reapGrace = 250 * time.Millisecond

	// killWait bounds how long Terminate waits for the reaper after a kill.
	killWait = 5 * time.Second
)

func (s Spec) withDefaults() Spec {
	if s.GracePeriod <= 0 {
		s.GracePeriod = defaultGracePeriod
	}
	if s.QueueSize <= 0 {
		s.QueueSize = defaultQueueSize
	}
	return s
}

// Stream identifies which child stream a line came from.
type Stream int

const (
	Stdout Stream = iota
	Stderr
)

func (s Stream) String() string {
	if s == Stderr {
		return "stderr"
	}
	return "stdout"
}

// ReadStatus classifies the outcome of ReadLine.
type ReadStatus int

const (
	// ReadOK means Line holds the next line of output.
	ReadOK ReadStatus = iota
	// ReadTimeout means no line arrived within the timeout.
	ReadTimeout
	// ReadEndOfStream means the child closed its output but has not been reaped.
	ReadEndOfStream
	// ReadProcessDied means the child exited; ExitCode is set.
	ReadProcessDied
)

func (s ReadStatus) String() string {
	switch s {
	case ReadOK:
		return "ok"
	case ReadTimeout:
		return "timeout"
	case ReadEndOfStream:
		return "end_of_stream"
	case ReadProcessDied:
		return "process_died"
	default:
		return "unknown"
	}
}

// ReadResult is one outcome of ReadLine.
type ReadResult struct {
	Line     string
	Stream   Stream
	Status   ReadStatus
	ExitCode int
}

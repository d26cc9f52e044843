package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rileyhilliard/vorax/internal/errors"
	"github.com/rileyhilliard/vorax/internal/logger"
	"github.com/rileyhilliard/vorax/internal/process"
	"github.com/rileyhilliard/vorax/internal/ring"
)

const (
	DefaultEchoCommand    = "prompt %s"
	DefaultStartupTimeout = 30 * time.Second
	DefaultExecTimeout    = 10 * time.Minute
	DefaultRingSize       = 256

	markerPrefix = "vorax-eoc-"

	// pollInterval caps a single ReadLine wait so context cancellation is
	// noticed while a long statement runs.
	pollInterval = 100 * time.Millisecond
)

// Beautifier turns raw interpreter output into display text.
type Beautifier interface {
	Beautify(html string) string
}

// Options configures a Session. Zero values fall back to the defaults above.
type Options struct {
	// Spec is handed to the supervisor on every (re)start.
	Spec process.Spec
	// Marker is the completion sentinel. Empty generates "vorax-eoc-<uuid>".
	Marker string
	// EchoCommand is a format string with one %s for the marker, e.g.
	// "prompt %s" for SQL*Plus or "echo %s" for a POSIX shell.
	EchoCommand string
	// ErrEchoCommand, when set, prints the marker on stderr too, e.g.
	// "echo %s >&2". A call then completes only once the marker arrived on
	// both streams, so late stderr lines stay with the call that caused them.
	ErrEchoCommand string
	// InitCommands are written once after spawning, before the first marker.
	InitCommands []string

	StartupTimeout time.Duration
	ExecTimeout    time.Duration
	RingSize       int

	// Beautifier, when set, is applied to Execute output.
	Beautifier Beautifier
	Logger     logger.Logger
}

// Session is a supervised interpreter with marker-based completion
// detection. All methods are safe for concurrent use.
type Session struct {
	sup  process.Supervisor
	opts Options
	log  logger.Logger

	// buf and errBuf are only touched by the goroutine that moved the
	// session to Starting or Busy.
	buf    *ring.RingBuffer
	errBuf *ring.RingBuffer

	mu     sync.Mutex
	state  State
	handle *process.Handle
}

// New creates a stopped session. Call Start before Execute.
func New(sup process.Supervisor, opts Options) *Session {
	if opts.Marker == "" {
		opts.Marker = markerPrefix + uuid.NewString()
	}
	if opts.EchoCommand == "" {
		opts.EchoCommand = DefaultEchoCommand
	}
	if opts.StartupTimeout <= 0 {
		opts.StartupTimeout = DefaultStartupTimeout
	}
	if opts.ExecTimeout <= 0 {
		opts.ExecTimeout = DefaultExecTimeout
	}
	if opts.RingSize <= 0 {
		opts.RingSize = DefaultRingSize
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewEnvLogger("[session]")
	}

	return &Session{
		sup:   sup,
		opts:  opts,
		log:   opts.Logger,
		buf:    ring.New(opts.RingSize),
		errBuf: ring.New(opts.RingSize),
		state:  Stopped,
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Marker returns the completion sentinel this session waits for.
func (s *Session) Marker() string { return s.opts.Marker }

// echoLine is the command that makes the interpreter print the marker.
func (s *Session) echoLine() string {
	return formatEcho(s.opts.EchoCommand, s.opts.Marker)
}

// echoInput is what follows every batch of input: the echo command, plus
// the stderr echo command when one is configured. Newline terminated.
func (s *Session) echoInput() string {
	in := s.echoLine() + "\n"
	if s.opts.ErrEchoCommand != "" {
		in += formatEcho(s.opts.ErrEchoCommand, s.opts.Marker) + "\n"
	}
	return in
}

func formatEcho(command, marker string) string {
	if strings.Contains(command, "%s") {
		return fmt.Sprintf(command, marker)
	}
	return command + " " + marker
}

func (s *Session) setState(next State) {
	if s.state != next {
		s.log.Debug("%s -> %s", s.state, next)
	}
	s.state = next
}

// Start spawns the interpreter, sends the init commands and waits for the
// first marker. Valid from Stopped and Dead. A spawn failure leaves the
// session Stopped; a startup timeout kills the child and leaves it Dead.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case Stopped, Dead:
	default:
		state := s.state
		s.mu.Unlock()
		return errors.New(errors.ErrSession,
			fmt.Sprintf("Session is already %s", state),
			"Close or restart the session first.")
	}
	stale := s.handle
	s.handle = nil
	s.setState(Starting)
	s.mu.Unlock()

	if stale != nil {
		_ = s.sup.Terminate(stale, false)
	}

	h, err := s.sup.Spawn(ctx, s.opts.Spec)
	if err != nil {
		s.mu.Lock()
		s.setState(Stopped)
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.handle = h
	s.mu.Unlock()

	var input strings.Builder
	for _, c := range s.opts.InitCommands {
		input.WriteString(c)
		input.WriteByte('\n')
	}
	input.WriteString(s.echoInput())

	if err := s.sup.Write(h, []byte(input.String())); err != nil {
		return s.fail(h, errors.Lifecycle(errors.ErrProcessDied, err, errors.ErrDied,
			"The interpreter exited during startup",
			"Check the executable and connect string in your profile."))
	}

	banner, err := s.collect(ctx, h, s.opts.StartupTimeout)
	if err != nil {
		if errors.IsCode(err, errors.ErrTimeout) {
			err = errors.Lifecycle(errors.ErrStartupTimeout, err, errors.ErrTimeout,
				fmt.Sprintf("The interpreter didn't become ready within %s", s.opts.StartupTimeout),
				"Check the connect string, or raise startup_timeout in your profile.")
		}
		return s.fail(h, err)
	}
	for _, line := range banner {
		s.log.Debug("startup: %s", line)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handle != h {
		return closedDuringCall()
	}
	s.setState(Ready)
	return nil
}

// Execute runs text and returns its output, beautified when a Beautifier is
// configured. See ExecuteLines for the state rules.
func (s *Session) Execute(ctx context.Context, text string) (string, error) {
	lines, err := s.ExecuteLines(ctx, text)
	if err != nil {
		return "", err
	}
	out := strings.Join(lines, "\n")
	if s.opts.Beautifier != nil {
		out = s.opts.Beautifier.Beautify(out)
	}
	return out, nil
}

// ExecuteLines runs text and returns the raw output lines, without the
// marker line. Only valid from Ready: a Busy session fails fast with
// ErrSessionBusy and a Dead one with ErrSessionDead. A timeout or context
// cancellation kills the child and leaves the session Dead.
func (s *Session) ExecuteLines(ctx context.Context, text string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	h, err := s.acquire()
	if err != nil {
		return nil, err
	}

	if !s.sup.IsAlive(h) {
		return nil, s.fail(h, s.diedError(h, nil))
	}

	payload := strings.TrimRight(text, "\r\n") + "\n" + s.echoInput()
	if err := s.sup.Write(h, []byte(payload)); err != nil {
		return nil, s.fail(h, s.diedError(h, err))
	}

	lines, err := s.collect(ctx, h, s.opts.ExecTimeout)
	if err != nil {
		if errors.IsCode(err, errors.ErrTimeout) {
			err = errors.Lifecycle(errors.ErrExecutionTimeout, err, errors.ErrTimeout,
				"The statement didn't finish in time",
				"The interpreter was killed. Restart the session and resubmit.")
		}
		return nil, s.fail(h, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handle != h {
		return nil, closedDuringCall()
	}
	s.setState(Ready)
	return lines, nil
}

// acquire moves a Ready session to Busy and returns its handle.
func (s *Session) acquire() (*process.Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case Ready:
		s.setState(Busy)
		return s.handle, nil
	case Busy:
		return nil, errors.Lifecycle(errors.ErrSessionBusy, nil, errors.ErrSession,
			"Another statement is still running",
			"Wait for it to finish; sessions run one statement at a time.")
	case Dead:
		return nil, errors.Lifecycle(errors.ErrSessionDead, nil, errors.ErrSession,
			"The interpreter session is dead",
			"Restart the session, then resubmit the statement.")
	default:
		return nil, errors.Lifecycle(errors.ErrSessionNotReady, nil, errors.ErrSession,
			fmt.Sprintf("Session is %s", s.state),
			"Start the session first.")
	}
}

// collect reads lines into the ring buffers until the marker sits at the
// tail of stdout, and of stderr when ErrEchoCommand is set. Every other line
// is returned in arrival order.
func (s *Session) collect(ctx context.Context, h *process.Handle, timeout time.Duration) ([]string, error) {
	deadline := time.Now().Add(timeout)
	var lines []string

	s.buf.Clear()
	s.errBuf.Clear()
	outDone := false
	errDone := s.opts.ErrEchoCommand == ""

	for {
		if err := ctx.Err(); err != nil {
			return nil, errors.WrapWithCode(err, errors.ErrTimeout, "Cancelled while waiting for output", "")
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, errors.New(errors.ErrTimeout, fmt.Sprintf("No completion marker after %s", timeout), "")
		}

		res := s.sup.ReadLine(h, min(remaining, pollInterval))
		switch res.Status {
		case process.ReadOK:
			buf, done := s.buf, &outDone
			if res.Stream == process.Stderr {
				buf, done = s.errBuf, &errDone
			}
			buf.Push(res.Line)
			if buf.TailMatches(s.opts.Marker) {
				*done = true
				if outDone && errDone {
					return lines, nil
				}
				continue
			}
			lines = append(lines, res.Line)
		case process.ReadTimeout:
		default:
			return nil, s.diedError(h, nil)
		}
	}
}

func (s *Session) diedError(h *process.Handle, cause error) error {
	code := h.ExitCode()
	if cause == nil {
		cause = errors.NewExitError(code)
	}
	msg := "The interpreter exited unexpectedly"
	if code >= 0 {
		msg = fmt.Sprintf("The interpreter exited unexpectedly (exit code %d)", code)
	}
	return errors.Lifecycle(errors.ErrProcessDied, cause, errors.ErrDied, msg,
		"Restart the session; the statement that was running has to be resubmitted.")
}

// fail kills h and marks the session Dead, unless Close or Restart already
// replaced the handle.
func (s *Session) fail(h *process.Handle, err error) error {
	if termErr := s.sup.Terminate(h, false); termErr != nil {
		s.log.Warn("could not kill %s: %v", h.ID(), termErr)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handle != h {
		return closedDuringCall()
	}
	s.setState(Dead)
	return err
}

func closedDuringCall() error {
	return errors.Lifecycle(errors.ErrSessionNotReady, nil, errors.ErrSession,
		"The session was closed while the statement was running", "")
}

// IsAlive probes the child. A session whose child is gone moves to Dead.
func (s *Session) IsAlive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handle == nil || s.state == Dead {
		return false
	}
	if s.sup.IsAlive(s.handle) {
		return true
	}
	s.setState(Dead)
	return false
}

// Close terminates the child gracefully and moves to Stopped. Closing a
// stopped session is a no-op.
func (s *Session) Close() error {
	s.mu.Lock()
	h := s.handle
	s.handle = nil
	s.setState(Stopped)
	s.mu.Unlock()

	if h == nil {
		return nil
	}
	return s.sup.Terminate(h, true)
}

// Restart force-kills whatever child is left and starts a fresh one.
func (s *Session) Restart(ctx context.Context) error {
	s.mu.Lock()
	h := s.handle
	s.handle = nil
	s.setState(Stopped)
	s.mu.Unlock()

	if h != nil {
		if err := s.sup.Terminate(h, false); err != nil {
			s.log.Warn("could not kill %s: %v", h.ID(), err)
		}
	}
	return s.Start(ctx)
}

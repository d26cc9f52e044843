package process

import (
	"bufio"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/rileyhilliard/vorax/internal/errors"
	"github.com/sourcegraph/conc"
	"golang.org/x/text/encoding"
)

// backend holds the platform or transport specific primitives of a handle.
type backend interface {
	alive() bool
	kill() error
}

// Handle is an exclusively owned running child. It is created by a
// Supervisor and must only be used with the Supervisor that created it.
type Handle struct {
	id   string
	pid  int
	spec Spec

	stdin   io.WriteCloser
	encoder *encoding.Encoder
	closers []io.Closer
	backend backend

	// lines is fed by one reader goroutine per output stream and closed once
	// both have hit end of stream. quit unblocks readers stuck on a full queue.
	lines chan ReadResult
	quit  chan struct{}
	done  chan struct{}

	writeMu   sync.Mutex
	mu        sync.Mutex
	exitCode  int
	waitErr   error
	stdinOnce sync.Once
	quitOnce  sync.Once
	closeOnce sync.Once
}

func newHandle(id string, spec Spec, stdin io.WriteCloser, enc encoding.Encoding) *Handle {
	h := &Handle{
		id:       id,
		spec:     spec,
		stdin:    stdin,
		lines:    make(chan ReadResult, spec.QueueSize),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
		exitCode: -1,
	}
	if enc != nil {
		h.encoder = enc.NewEncoder()
	}
	return h
}

// ID identifies the child for logs: "pid:<n>" locally, "ssh://<host>" remotely.
func (h *Handle) ID() string { return h.id }

// PID returns the OS process id, or 0 for remote children.
func (h *Handle) PID() int { return h.pid }

// Done is closed once the child has exited and been reaped.
func (h *Handle) Done() <-chan struct{} { return h.done }

// ExitCode returns the exit status, or -1 while running or when unknown.
func (h *Handle) ExitCode() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.exitCode
}

// WaitErr returns the error reported when the child was reaped, if any.
func (h *Handle) WaitErr() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.waitErr
}

func (h *Handle) exited() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

func (h *Handle) markExited(code int, err error) {
	h.mu.Lock()
	h.exitCode = code
	h.waitErr = err
	h.mu.Unlock()
	close(h.done)
}

// startReaders launches one pump per stream and closes the line queue once
// every pump has finished.
func (h *Handle) startReaders(stdout, stderr io.Reader, dec func(io.Reader) io.Reader) {
	var wg conc.WaitGroup
	wg.Go(func() { h.pump(dec(stdout), Stdout) })
	wg.Go(func() { h.pump(dec(stderr), Stderr) })
	go func() {
		wg.Wait()
		close(h.lines)
	}()
}

// pump splits r into lines and queues them. CR before LF is dropped so
// Windows interpreters produce the same lines as POSIX ones. A final
// unterminated line is delivered at end of stream.
func (h *Handle) pump(r io.Reader, stream Stream) {
	br := bufio.NewReaderSize(r, 64*1024)
	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			line = strings.TrimSuffix(line, "\n")
			line = strings.TrimSuffix(line, "\r")
			select {
			case h.lines <- ReadResult{Line: line, Stream: stream, Status: ReadOK}:
			case <-h.quit:
				return
			}
		}
		if err != nil {
			return
		}
	}
}

func (h *Handle) write(p []byte) error {
	if h.exited() {
		return errors.Lifecycle(errors.ErrBrokenPipe, errors.NewExitError(h.ExitCode()), errors.ErrPipe,
			"The interpreter has already exited",
			"Restart the session before sending more commands.")
	}

	if h.encoder != nil {
		if encoded, err := h.encoder.Bytes(p); err == nil {
			p = encoded
		}
	}

	h.writeMu.Lock()
	defer h.writeMu.Unlock()
	if _, err := h.stdin.Write(p); err != nil {
		return errors.Lifecycle(errors.ErrBrokenPipe, err, errors.ErrPipe,
			"Couldn't write to the interpreter",
			"The process probably exited. Restart the session.")
	}
	return nil
}

func (h *Handle) readLine(timeout time.Duration) ReadResult {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res, ok := <-h.lines:
		if ok {
			return res
		}
		return h.endOfStream(timeout)
	case <-timer.C:
		return ReadResult{Status: ReadTimeout}
	}
}

// endOfStream decides between ProcessDied and EndOfStream once the queue is
// drained and closed.
func (h *Handle) endOfStream(timeout time.Duration) ReadResult {
	wait := reapGrace
	if timeout < wait {
		wait = timeout
	}
	select {
	case <-h.done:
		return ReadResult{Status: ReadProcessDied, ExitCode: h.ExitCode()}
	case <-time.After(wait):
		return ReadResult{Status: ReadEndOfStream}
	}
}

func (h *Handle) closeStdin() {
	h.stdinOnce.Do(func() {
		h.writeMu.Lock()
		defer h.writeMu.Unlock()
		_ = h.stdin.Close()
	})
}

// release unblocks and closes everything the readers hold.
func (h *Handle) release() {
	h.quitOnce.Do(func() { close(h.quit) })
	h.closeOnce.Do(func() {
		for _, c := range h.closers {
			_ = c.Close()
		}
	})
}

func waitDone(h *Handle, d time.Duration) bool {
	if d <= 0 {
		return h.exited()
	}
	select {
	case <-h.done:
		return true
	case <-time.After(d):
		return false
	}
}

// terminate is the shared Terminate sequence: exit command, close stdin,
// then kill.
func terminate(h *Handle, graceful bool) error {
	defer h.release()

	if h.exited() {
		h.closeStdin()
		return nil
	}

	if graceful {
		if h.spec.ExitCommand != "" {
			_ = h.write([]byte(h.spec.ExitCommand + "\n"))
			if waitDone(h, h.spec.GracePeriod) {
				h.closeStdin()
				return nil
			}
		}
		h.closeStdin()
		if waitDone(h, h.spec.GracePeriod/4) {
			return nil
		}
	} else {
		h.closeStdin()
	}

	if err := h.backend.kill(); err != nil && !h.exited() {
		return errors.WrapWithCode(err, errors.ErrExec,
			"Couldn't stop the interpreter ("+h.id+")",
			"Kill the process manually.")
	}
	if !waitDone(h, killWait) {
		return errors.New(errors.ErrExec,
			"The interpreter ("+h.id+") didn't exit after being killed",
			"Kill the process manually.")
	}
	return nil
}

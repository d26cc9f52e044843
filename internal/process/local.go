package process

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/rileyhilliard/vorax/internal/errors"
	"github.com/rileyhilliard/vorax/internal/logger"
)

// LocalSupervisor runs the interpreter as a child of this process.
// Process-group setup, liveness probing and killing live in
// local_unix.go and local_windows.go.
type LocalSupervisor struct {
	log logger.Logger
}

// NewLocalSupervisor creates a supervisor for local children. A nil logger
// falls back to the VORAX_DEBUG-aware environment logger.
func NewLocalSupervisor(log logger.Logger) *LocalSupervisor {
	if log == nil {
		log = logger.NewEnvLogger("[process]")
	}
	return &LocalSupervisor{log: log}
}

// Spawn starts spec.Command with its own pipes. Output pipes are created
// with os.Pipe rather than cmd.StdoutPipe so the reaper can call Wait while
// the readers are still draining.
func (s *LocalSupervisor) Spawn(ctx context.Context, spec Spec) (*Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, spawnError(spec.Command, err)
	}
	if spec.Command == "" {
		return nil, errors.Lifecycle(errors.ErrSpawnFailed, nil, errors.ErrSpawn,
			"No interpreter executable configured",
			"Set 'executable' in your profile (e.g. sqlplus).")
	}
	spec = spec.withDefaults()

	enc, err := lookupEncoding(spec.Encoding)
	if err != nil {
		return nil, err
	}

	cmd := exec.Command(spec.Command, spec.Args...)
	cmd.Dir = spec.Dir
	cmd.Env = append(os.Environ(), spec.Env...)
	setProcAttr(cmd)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, spawnError(spec.Command, err)
	}
	outR, outW, err := os.Pipe()
	if err != nil {
		return nil, spawnError(spec.Command, err)
	}
	errR, errW, err := os.Pipe()
	if err != nil {
		closeAll(outR, outW)
		return nil, spawnError(spec.Command, err)
	}
	cmd.Stdout = outW
	cmd.Stderr = errW

	startErr := cmd.Start()
	// The child owns its copies of the write ends now.
	closeAll(outW, errW)
	if startErr != nil {
		closeAll(outR, errR, stdin)
		return nil, spawnError(spec.Command, startErr)
	}

	pid := cmd.Process.Pid
	h := newHandle(fmt.Sprintf("pid:%d", pid), spec, stdin, enc)
	h.pid = pid
	h.closers = []io.Closer{outR, errR}
	h.backend = &localBackend{cmd: cmd}

	go func() {
		waitErr := cmd.Wait()
		code := exitStatus(cmd.ProcessState)
		s.log.Debug("child %s exited with code %d", h.id, code)
		h.markExited(code, waitErr)
	}()
	h.startReaders(outR, errR, decoderFor(enc))

	s.log.Debug("spawned %s as %s", spec.Command, h.id)
	return h, nil
}

// Write sends p to the child's stdin.
func (s *LocalSupervisor) Write(h *Handle, p []byte) error {
	return h.write(p)
}

// ReadLine returns the next line of stdout or stderr.
func (s *LocalSupervisor) ReadLine(h *Handle, timeout time.Duration) ReadResult {
	return h.readLine(timeout)
}

// IsAlive reports false once the child was reaped; otherwise it asks the OS.
func (s *LocalSupervisor) IsAlive(h *Handle) bool {
	if h.exited() {
		return false
	}
	return h.backend.alive()
}

// Terminate stops the child, gracefully first when asked to.
func (s *LocalSupervisor) Terminate(h *Handle, graceful bool) error {
	s.log.Debug("terminating %s (graceful=%t)", h.id, graceful)
	return terminate(h, graceful)
}

type localBackend struct {
	cmd *exec.Cmd
}

func (b *localBackend) alive() bool {
	return probeAlive(b.cmd.Process.Pid)
}

func (b *localBackend) kill() error {
	return killTree(b.cmd.Process)
}

func spawnError(command string, err error) error {
	return errors.Lifecycle(errors.ErrSpawnFailed, err, errors.ErrSpawn,
		fmt.Sprintf("Couldn't start '%s'", command),
		"Make sure the interpreter is installed and 'executable' in your profile points to it.")
}

func closeAll(closers ...io.Closer) {
	for _, c := range closers {
		if c != nil {
			_ = c.Close()
		}
	}
}

package process

import (
	"context"
	"io"
	"time"

	"github.com/rileyhilliard/vorax/internal/errors"
	"github.com/rileyhilliard/vorax/internal/logger"
	"github.com/rileyhilliard/vorax/internal/util"
	"github.com/rileyhilliard/vorax/pkg/sshutil"
)

// dialFunc matches sshutil.Dial.
type dialFunc func(host string, timeout time.Duration) (*sshutil.Client, error)

// RemoteSupervisor runs the interpreter on another host over SSH. Each
// Spawn opens its own connection so a dead session never takes another
// one down with it.
type RemoteSupervisor struct {
	host        string
	dialTimeout time.Duration
	dial        dialFunc
	log         logger.Logger
}

// NewRemoteSupervisor creates a supervisor that starts children on host.
// host accepts anything sshutil.Dial does: an ssh_config alias, user@host
// or host:port.
func NewRemoteSupervisor(host string, dialTimeout time.Duration, log logger.Logger) *RemoteSupervisor {
	if dialTimeout <= 0 {
		dialTimeout = 10 * time.Second
	}
	if log == nil {
		log = logger.NewEnvLogger("[process]")
	}
	return &RemoteSupervisor{host: host, dialTimeout: dialTimeout, dial: sshutil.Dial, log: log}
}

// Host returns the target host as configured.
func (s *RemoteSupervisor) Host() string { return s.host }

// Spawn dials the host and starts spec.Command through the remote login
// shell. Env and Dir are applied on the remote side.
func (s *RemoteSupervisor) Spawn(ctx context.Context, spec Spec) (*Handle, error) {
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

	client, err := s.dial(s.host, s.dialTimeout)
	if err != nil {
		return nil, errors.Lifecycle(errors.ErrSpawnFailed, err, errors.ErrSSH,
			"Couldn't connect to '"+s.host+"'",
			"Check that 'ssh "+s.host+"' works from this machine.")
	}

	line := util.RemoteCommandLine(spec.Dir, spec.Env, spec.Command, spec.Args)
	stream, err := client.StartStream(line)
	if err != nil {
		client.Close()
		return nil, spawnError(spec.Command, err)
	}

	h := newHandle("ssh://"+s.host, spec, stream.Stdin, enc)
	h.closers = []io.Closer{stream, client}
	h.backend = &remoteBackend{client: client, stream: stream, done: h.done}

	go func() {
		code, waitErr := stream.Wait()
		s.log.Debug("remote child %s exited with code %d", h.id, code)
		h.markExited(code, waitErr)
	}()
	h.startReaders(stream.Stdout, stream.Stderr, decoderFor(enc))

	s.log.Debug("spawned %s on %s", spec.Command, s.host)
	return h, nil
}

// Write sends p to the remote stdin.
func (s *RemoteSupervisor) Write(h *Handle, p []byte) error {
	return h.write(p)
}

// ReadLine returns the next line of remote stdout or stderr.
func (s *RemoteSupervisor) ReadLine(h *Handle, timeout time.Duration) ReadResult {
	return h.readLine(timeout)
}

// IsAlive reports whether the remote command is still running and the
// connection still answers keepalives.
func (s *RemoteSupervisor) IsAlive(h *Handle) bool {
	if h.exited() {
		return false
	}
	return h.backend.alive()
}

// Terminate stops the remote command, gracefully first when asked to.
func (s *RemoteSupervisor) Terminate(h *Handle, graceful bool) error {
	s.log.Debug("terminating %s (graceful=%t)", h.id, graceful)
	return terminate(h, graceful)
}

type remoteBackend struct {
	client *sshutil.Client
	stream *sshutil.Stream
	done   <-chan struct{}
}

func (b *remoteBackend) alive() bool {
	return b.client.Alive()
}

// kill signals the remote command and then drops the connection. Dropping
// the connection is what actually unblocks Wait when the server ignores
// signal requests.
func (b *remoteBackend) kill() error {
	_ = b.stream.Kill()
	select {
	case <-b.done:
		return nil
	case <-time.After(reapGrace):
	}
	_ = b.stream.Close()
	return b.client.Close()
}

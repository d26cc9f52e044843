package sshutil

import (
	"io"

	"github.com/rileyhilliard/vorax/internal/errors"
	"golang.org/x/crypto/ssh"
)

// Stream is a long-running remote command with its stdio exposed as pipes.
// Unlike a one-shot exec, nothing is buffered: the caller drains Stdout and
// Stderr and calls Wait to collect the exit status.
type Stream struct {
	session *ssh.Session

	Stdin  io.WriteCloser
	Stdout io.Reader
	Stderr io.Reader
}

// StartStream opens a session and starts cmd without a pseudo-terminal, so
// the remote program sees plain pipes just like a local child would.
func (c *Client) StartStream(cmd string) (*Stream, error) {
	session, err := c.Client.NewSession()
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrSSH,
			"Failed to create SSH session",
			"Connection may have been closed. Try reconnecting.")
	}

	stdin, err := session.StdinPipe()
	if err != nil {
		session.Close()
		return nil, errors.WrapWithCode(err, errors.ErrSSH, "Failed to open remote stdin", "")
	}
	stdout, err := session.StdoutPipe()
	if err != nil {
		session.Close()
		return nil, errors.WrapWithCode(err, errors.ErrSSH, "Failed to open remote stdout", "")
	}
	stderr, err := session.StderrPipe()
	if err != nil {
		session.Close()
		return nil, errors.WrapWithCode(err, errors.ErrSSH, "Failed to open remote stderr", "")
	}

	if err := session.Start(cmd); err != nil {
		session.Close()
		return nil, errors.WrapWithCode(err, errors.ErrExec,
			"Failed to start remote command",
			"Check if the interpreter exists on the remote host.")
	}

	return &Stream{session: session, Stdin: stdin, Stdout: stdout, Stderr: stderr}, nil
}

// Wait blocks until the remote command exits and returns its exit code.
// A non-zero exit is not an error. Exit code is -1 when the status was lost,
// e.g. because the connection dropped.
func (s *Stream) Wait() (int, error) {
	err := s.session.Wait()
	if err == nil {
		return 0, nil
	}
	if exitErr, ok := err.(*ssh.ExitError); ok {
		return exitErr.ExitStatus(), nil
	}
	return -1, err
}

// Kill asks the server to SIGKILL the remote command. Many servers ignore
// signal requests, so callers should also close the session.
func (s *Stream) Kill() error {
	return s.session.Signal(ssh.SIGKILL)
}

// Close tears down the session channel.
func (s *Stream) Close() error {
	return s.session.Close()
}

// Output runs cmd to completion and returns its stdout and exit code. It is
// meant for short probes; stderr is discarded.
func (c *Client) Output(cmd string) (string, int, error) {
	session, err := c.Client.NewSession()
	if err != nil {
		return "", -1, errors.WrapWithCode(err, errors.ErrSSH,
			"Failed to create SSH session",
			"Connection may have been closed. Try reconnecting.")
	}
	defer session.Close()

	out, err := session.Output(cmd)
	if err != nil {
		if exitErr, ok := err.(*ssh.ExitError); ok {
			return string(out), exitErr.ExitStatus(), nil
		}
		return "", -1, errors.WrapWithCode(err, errors.ErrSSH, "Failed to run "+cmd, "")
	}
	return string(out), 0, nil
}

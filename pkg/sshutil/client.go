// Package sshutil opens SSH connections the way the ssh command would,
// honoring ~/.ssh/config, the agent and known_hosts, and starts long-running
// remote commands over them.
package sshutil

import (
	stderrors "errors"
	"fmt"
	"net"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rileyhilliard/vorax/internal/errors"
	"github.com/rileyhilliard/vorax/internal/logger"
	"golang.org/x/crypto/ssh"
)

// Client is an SSH connection plus the target it was opened for.
type Client struct {
	*ssh.Client
	Host    string
	Address string
}

// Log receives warnings about the SSH setup.
var Log = logger.NewEnvLogger("[ssh]")

var matchWarning sync.Once

// Dial connects to host, which may be an ssh_config alias, a hostname,
// user@host or host:port. timeout bounds both the TCP connect and the
// handshake.
func Dial(host string, timeout time.Duration) (*Client, error) {
	t := ResolveTarget(host)
	if t.hiddenBy > 0 && !t.configured {
		matchWarning.Do(func() {
			Log.Warn("host %q not found before the Match block at line %d of %s; entries after it are ignored",
				t.Alias, t.hiddenBy, ConfigPath())
		})
	}

	auth, err := authFor(t)
	if err != nil {
		return nil, err
	}
	hostKeys, err := knownHostsCallback(filepath.Join(homeDir(), ".ssh", "known_hosts"))
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrSSH,
			"Can't read ~/.ssh/known_hosts",
			"Check the file's permissions.")
	}

	cfg := &ssh.ClientConfig{
		User:            t.User,
		Auth:            auth.methods,
		HostKeyCallback: hostKeys,
		Timeout:         timeout,
	}

	addr := t.Address()
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrSSH,
			fmt.Sprintf("Can't reach '%s' at %s", host, addr),
			dialHint(err))
	}

	if timeout > 0 {
		conn.SetDeadline(time.Now().Add(timeout))
	}
	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, cfg)
	if err != nil {
		conn.Close()
		var mismatch *HostKeyMismatchError
		if stderrors.As(err, &mismatch) {
			return nil, errors.New(errors.ErrSSH, mismatch.Error(), mismatch.Suggestion())
		}
		return nil, errors.WrapWithCode(err, errors.ErrSSH,
			fmt.Sprintf("SSH handshake with '%s' failed", host),
			handshakeHint(err, auth.encrypted))
	}
	conn.SetDeadline(time.Time{})

	return &Client{Client: ssh.NewClient(sshConn, chans, reqs), Host: host, Address: addr}, nil
}

// Close closes the connection. A zero Client closes cleanly.
func (c *Client) Close() error {
	if c.Client == nil {
		return nil
	}
	return c.Client.Close()
}

// Alive sends a keepalive request, which fails as soon as the transport is
// gone.
func (c *Client) Alive() bool {
	if c.Client == nil {
		return false
	}
	_, _, err := c.Client.SendRequest("keepalive@openssh.com", true, nil)
	return err == nil
}

func dialHint(err error) string {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "connection refused"):
		return "Is sshd running on the database host? Try: ssh <host>"
	case strings.Contains(msg, "no route to host"), strings.Contains(msg, "network is unreachable"):
		return "Can't route to the host. Check your network connection."
	case strings.Contains(msg, "timeout"):
		return "Connection timed out. The host may be down or behind a firewall."
	}
	return "Make sure the host is reachable: ping <host>"
}

func handshakeHint(err error, encrypted []string) string {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "unable to authenticate"), strings.Contains(msg, "no supported methods"):
		if len(encrypted) > 0 {
			return addKeyHint(encrypted)
		}
		return "Authentication failed. Check your keys are loaded: ssh-add -l"
	case strings.Contains(msg, "host key"):
		return "Host key problem. Connect once by hand first: ssh <host>"
	}
	return "Try connecting by hand to see what the server says: ssh <host>"
}

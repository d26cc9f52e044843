package sshutil

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/rileyhilliard/vorax/internal/errors"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
)

// encryptedKeyError marks a private key that needs a passphrase.
type encryptedKeyError struct {
	path string
}

func (e *encryptedKeyError) Error() string {
	return fmt.Sprintf("SSH key at %s is passphrase protected", e.path)
}

// authenticator collects auth methods for one target and remembers the
// keys it had to skip because they are encrypted.
type authenticator struct {
	methods   []ssh.AuthMethod
	encrypted []string
	tried     map[string]bool
}

// authFor builds the auth methods for t: the agent, then VORAX_SSH_KEY,
// then the configured IdentityFile, then the usual default keys.
func authFor(t Target) (*authenticator, error) {
	a := &authenticator{tried: make(map[string]bool)}
	if m := agentAuth(); m != nil {
		a.methods = append(a.methods, m)
	}

	keys := []string{os.Getenv("VORAX_SSH_KEY"), t.IdentityFile}
	for _, name := range []string{"id_ed25519", "id_rsa", "id_ecdsa"} {
		keys = append(keys, filepath.Join(homeDir(), ".ssh", name))
	}
	for _, k := range keys {
		a.addKey(k)
	}

	if len(a.methods) > 0 {
		return a, nil
	}
	if len(a.encrypted) > 0 {
		return nil, errors.New(errors.ErrSSH,
			"Found SSH keys but they're encrypted: "+strings.Join(a.encrypted, ", "),
			addKeyHint(a.encrypted))
	}
	return nil, errors.New(errors.ErrSSH,
		"No SSH auth methods available",
		"Check your keys are loaded: ssh-add -l")
}

func (a *authenticator) addKey(path string) {
	if path == "" || a.tried[path] {
		return
	}
	a.tried[path] = true

	m, err := keyFileAuth(path)
	var encErr *encryptedKeyError
	switch {
	case err == nil:
		a.methods = append(a.methods, m)
	case stderrors.As(err, &encErr):
		a.encrypted = append(a.encrypted, path)
	}
}

func keyFileAuth(path string) (ssh.AuthMethod, error) {
	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	signer, err := ssh.ParsePrivateKey(pem)
	if err != nil {
		var missing *ssh.PassphraseMissingError
		if stderrors.As(err, &missing) || isEncryptedPEM(pem) {
			return nil, &encryptedKeyError{path: path}
		}
		return nil, err
	}
	return ssh.PublicKeys(signer), nil
}

func isEncryptedPEM(data []byte) bool {
	return bytes.Contains(data, []byte("ENCRYPTED"))
}

// addKeyHint tells the user how to load passphrase protected keys.
func addKeyHint(keys []string) string {
	var sb strings.Builder
	sb.WriteString("Add your keys to the agent:\n")
	for _, key := range keys {
		if runtime.GOOS == "darwin" {
			fmt.Fprintf(&sb, "  ssh-add --apple-use-keychain %s\n", key)
		} else {
			fmt.Fprintf(&sb, "  ssh-add %s\n", key)
		}
	}
	sb.WriteString("\nNot sure which key? Check with: ssh -v <host>")
	return sb.String()
}

var (
	agentOnce   sync.Once
	agentConn   net.Conn
	agentClient agent.ExtendedAgent
)

// agentAuth returns agent auth when SSH_AUTH_SOCK points at an agent that
// holds at least one key. The agent connection is shared by every dial.
func agentAuth() ssh.AuthMethod {
	socket := os.Getenv("SSH_AUTH_SOCK")
	if socket == "" {
		return nil
	}
	agentOnce.Do(func() {
		conn, err := net.Dial("unix", socket)
		if err != nil {
			return
		}
		agentConn = conn
		agentClient = agent.NewClient(conn)
	})
	if agentClient == nil {
		return nil
	}

	// An empty agent placed first makes servers reject the later methods.
	if signers, err := agentClient.Signers(); err != nil || len(signers) == 0 {
		return nil
	}
	return ssh.PublicKeysCallback(agentClient.Signers)
}

// CloseAgent releases the shared agent connection.
func CloseAgent() {
	if agentConn != nil {
		agentConn.Close()
	}
}

// HostKeyMismatchError is returned when the server's key doesn't match
// known_hosts.
type HostKeyMismatchError struct {
	Hostname     string
	ReceivedType string
	KnownHosts   string
	Want         []knownhosts.KnownKey
}

func (e *HostKeyMismatchError) Error() string {
	return fmt.Sprintf("host key mismatch for %s: server sent %s key", e.Hostname, e.ReceivedType)
}

// Suggestion explains how to refresh known_hosts.
func (e *HostKeyMismatchError) Suggestion() string {
	host := e.Hostname
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	known := "unknown"
	if len(e.Want) > 0 {
		types := make([]string, len(e.Want))
		for i, k := range e.Want {
			types[i] = k.Key.Type()
		}
		known = strings.Join(types, ", ")
	}
	return fmt.Sprintf("known_hosts has %s, the server sent %s.\n"+
		"  Refresh the entry with:\n"+
		"    ssh-keygen -R %s && ssh-keyscan %s >> %s",
		known, e.ReceivedType, host, host, e.KnownHosts)
}

// knownHostsCallback verifies host keys against path, creating an empty
// file when there is none yet.
func knownHostsCallback(path string) (ssh.HostKeyCallback, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, err
		}
		if err := os.WriteFile(path, nil, 0o600); err != nil {
			return nil, err
		}
	}

	check, err := knownhosts.New(path)
	if err != nil {
		return nil, err
	}
	return func(hostname string, remote net.Addr, key ssh.PublicKey) error {
		err := check(hostname, remote, key)
		var keyErr *knownhosts.KeyError
		if stderrors.As(err, &keyErr) && len(keyErr.Want) > 0 {
			return &HostKeyMismatchError{
				Hostname:     hostname,
				ReceivedType: key.Type(),
				KnownHosts:   path,
				Want:         keyErr.Want,
			}
		}
		return err
	}, nil
}

//go:build !windows

package process

import (
	"context"
	stderrors "errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rileyhilliard/vorax/internal/errors"
	"github.com/rileyhilliard/vorax/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTimeout = 5 * time.Second

func spawnShell(t *testing.T, spec Spec) (*LocalSupervisor, *Handle) {
	t.Helper()
	if spec.Command == "" {
		spec.Command = "/bin/sh"
	}
	sup := NewLocalSupervisor(logger.NewBufferLogger())
	h, err := sup.Spawn(context.Background(), spec)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sup.Terminate(h, false) })
	return sup, h
}

// nextLine reads until a line arrives, failing on anything else.
func nextLine(t *testing.T, sup Supervisor, h *Handle) ReadResult {
	t.Helper()
	res := sup.ReadLine(h, testTimeout)
	require.Equal(t, ReadOK, res.Status, "expected a line, got %s", res.Status)
	return res
}

// waitDeath drains output until the child is reported dead.
func waitDeath(t *testing.T, sup Supervisor, h *Handle) ReadResult {
	t.Helper()
	deadline := time.Now().Add(testTimeout)
	for time.Now().Before(deadline) {
		res := sup.ReadLine(h, testTimeout)
		switch res.Status {
		case ReadProcessDied:
			return res
		case ReadTimeout:
			t.Fatal("timed out waiting for the child to die")
		}
	}
	t.Fatal("child never died")
	return ReadResult{}
}

func TestLocalSpawn_EchoRoundTrip(t *testing.T) {
	sup, h := spawnShell(t, Spec{})

	assert.Greater(t, h.PID(), 0)
	assert.Contains(t, h.ID(), "pid:")
	assert.True(t, sup.IsAlive(h))

	require.NoError(t, sup.Write(h, []byte("echo hello\n")))
	res := nextLine(t, sup, h)
	assert.Equal(t, "hello", res.Line)
	assert.Equal(t, Stdout, res.Stream)
}

func TestLocalSpawn_StderrIsQueuedToo(t *testing.T) {
	sup, h := spawnShell(t, Spec{})

	require.NoError(t, sup.Write(h, []byte("echo oops >&2\n")))
	res := nextLine(t, sup, h)
	assert.Equal(t, "oops", res.Line)
	assert.Equal(t, Stderr, res.Stream)
}

func TestLocalSpawn_StripsCarriageReturns(t *testing.T) {
	sup, h := spawnShell(t, Spec{})

	require.NoError(t, sup.Write(h, []byte("printf 'a\\r\\nb\\n'\n")))
	assert.Equal(t, "a", nextLine(t, sup, h).Line)
	assert.Equal(t, "b", nextLine(t, sup, h).Line)
}

func TestLocalReadLine_Timeout(t *testing.T) {
	sup, h := spawnShell(t, Spec{})

	start := time.Now()
	res := sup.ReadLine(h, 50*time.Millisecond)
	assert.Equal(t, ReadTimeout, res.Status)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.True(t, sup.IsAlive(h), "a timeout must not affect the child")
}

func TestLocalReadLine_ProcessDiedCarriesExitCode(t *testing.T) {
	sup, h := spawnShell(t, Spec{})

	require.NoError(t, sup.Write(h, []byte("exit 7\n")))
	res := waitDeath(t, sup, h)
	assert.Equal(t, 7, res.ExitCode)
	assert.Equal(t, 7, h.ExitCode())
	assert.False(t, sup.IsAlive(h))
}

func TestLocalReadLine_UnterminatedLastLine(t *testing.T) {
	sup, h := spawnShell(t, Spec{})

	require.NoError(t, sup.Write(h, []byte("printf tail; exit 0\n")))
	assert.Equal(t, "tail", nextLine(t, sup, h).Line)
	assert.Equal(t, 0, waitDeath(t, sup, h).ExitCode)
}

func TestLocalWrite_AfterExitIsBrokenPipe(t *testing.T) {
	sup, h := spawnShell(t, Spec{})

	require.NoError(t, sup.Write(h, []byte("exit 0\n")))
	waitDeath(t, sup, h)

	err := sup.Write(h, []byte("echo nope\n"))
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrBrokenPipe))
	assert.True(t, errors.IsCode(err, errors.ErrPipe))
}

func TestLocalSpawn_Failures(t *testing.T) {
	sup := NewLocalSupervisor(logger.NewBufferLogger())

	tests := []struct {
		name string
		spec Spec
	}{
		{"empty command", Spec{}},
		{"missing executable", Spec{Command: "/nonexistent/vorax-no-such-binary"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := sup.Spawn(context.Background(), tt.spec)
			require.Error(t, err)
			assert.Nil(t, h)
			assert.True(t, stderrors.Is(err, errors.ErrSpawnFailed))
		})
	}
}

func TestLocalSpawn_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLocalSupervisor(nil).Spawn(ctx, Spec{Command: "/bin/sh"})
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrSpawnFailed))
	assert.True(t, stderrors.Is(err, context.Canceled))
}

func TestLocalSpawn_UnknownEncoding(t *testing.T) {
	_, err := NewLocalSupervisor(nil).Spawn(context.Background(), Spec{Command: "/bin/sh", Encoding: "klingon-8"})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
}

func TestLocalSpawn_EnvAndDir(t *testing.T) {
	dir := t.TempDir()
	sup, h := spawnShell(t, Spec{Env: []string{"VORAX_PROCESS_TEST=from-env"}, Dir: dir})

	require.NoError(t, sup.Write(h, []byte("echo $VORAX_PROCESS_TEST; pwd -P\n")))
	assert.Equal(t, "from-env", nextLine(t, sup, h).Line)

	want, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	assert.Equal(t, want, nextLine(t, sup, h).Line)
}

func TestLocalSpawn_DecodesLegacyCharset(t *testing.T) {
	sup, h := spawnShell(t, Spec{Encoding: "windows-1252"})

	// 0xE9 is e-acute in windows-1252.
	require.NoError(t, sup.Write(h, []byte("printf '\\351t\\351\\n'\n")))
	assert.Equal(t, "été", nextLine(t, sup, h).Line)
}

func TestLocalTerminate_GracefulUsesExitCommand(t *testing.T) {
	sup, h := spawnShell(t, Spec{ExitCommand: "exit 3", GracePeriod: 2 * time.Second})

	require.NoError(t, sup.Terminate(h, true))
	assert.False(t, sup.IsAlive(h))
	assert.Equal(t, 3, h.ExitCode())

	// A second call is a no-op.
	assert.NoError(t, sup.Terminate(h, true))
}

func TestLocalTerminate_ForceKillsStuckChild(t *testing.T) {
	sup, h := spawnShell(t, Spec{Command: "/bin/sh", Args: []string{"-c", "trap '' TERM; sleep 30"}})

	start := time.Now()
	require.NoError(t, sup.Terminate(h, false))
	assert.Less(t, time.Since(start), killWait)
	assert.False(t, sup.IsAlive(h))
	assert.Equal(t, 128+9, h.ExitCode())
}

func TestLocalTerminate_GracefulFallsBackToKill(t *testing.T) {
	sup, h := spawnShell(t, Spec{
		Command:     "/bin/sh",
		Args:        []string{"-c", "sleep 30"},
		ExitCommand: "ignored",
		GracePeriod: 100 * time.Millisecond,
	})

	require.NoError(t, sup.Terminate(h, true))
	assert.False(t, sup.IsAlive(h))
}

func TestLocalSpawn_ManyLinesDoNotDeadlock(t *testing.T) {
	sup, h := spawnShell(t, Spec{QueueSize: 4})

	require.NoError(t, sup.Write(h, []byte("i=0; while [ $i -lt 200 ]; do echo line$i; echo err$i >&2; i=$((i+1)); done\n")))

	var out, errs int
	for out+errs < 400 {
		res := nextLine(t, sup, h)
		if res.Stream == Stdout {
			out++
		} else {
			errs++
		}
	}
	assert.Equal(t, 200, out)
	assert.Equal(t, 200, errs)
}

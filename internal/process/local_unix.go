//go:build !windows

package process

import (
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// setProcAttr puts the child in its own process group so a kill reaches any
// helpers the interpreter forked.
func setProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// probeAlive sends signal 0. EPERM still proves the pid exists.
func probeAlive(pid int) bool {
	err := unix.Kill(pid, 0)
	return err == nil || err == unix.EPERM
}

// killTree sends SIGKILL to the child's process group, falling back to the
// child alone.
func killTree(p *os.Process) error {
	if err := unix.Kill(-p.Pid, unix.SIGKILL); err == nil || err == unix.ESRCH {
		return nil
	}
	return p.Kill()
}

// exitStatus maps a reaped child to an exit code; signal deaths become
// 128+signal like a POSIX shell reports them.
func exitStatus(state *os.ProcessState) int {
	if state == nil {
		return -1
	}
	if ws, ok := state.Sys().(syscall.WaitStatus); ok {
		if ws.Exited() {
			return ws.ExitStatus()
		}
		if ws.Signaled() {
			return 128 + int(ws.Signal())
		}
	}
	return state.ExitCode()
}

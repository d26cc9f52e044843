//go:build !windows

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rileyhilliard/vorax/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// shProfiles runs /bin/sh in place of SQL*Plus so the commands can be
// driven end to end.
const shProfiles = `version: 1
default: sh
profiles:
  sh:
    executable: /bin/sh
    args: ["-s"]
    connect: ""
    markup: false
    echo_command: "echo %s"
    err_echo_command: "echo %s >&2"
    exit_command: exit
    init_commands: []
    startup_timeout: 5s
    exec_timeout: 10s
    grace_period: 1s
  html:
    executable: /bin/sh
    args: ["-s"]
    connect: ""
    markup: true
    echo_command: "echo %s"
    err_echo_command: "echo %s >&2"
    exit_command: exit
    init_commands: []
    startup_timeout: 5s
    exec_timeout: 10s
    grace_period: 1s
`

type cliResult struct {
	stdout string
	stderr string
	err    error
}

// runCLI runs the root command with args, resetting the flag variables a
// previous run may have left behind.
func runCLI(t *testing.T, stdin string, args ...string) cliResult {
	t.Helper()

	cfgFile, verbose, noColor = "", false, false
	execFlags, runFlags, shellFlags = SessionFlags{}, SessionFlags{}, SessionFlags{}
	runStopOnError = false
	runTerminator, shellTerminator = ";", ";"
	profileAdd = profileAddOptions{}
	versionShort = false
	doctorProfile, doctorStart, doctorJSON = "", false, false

	var stdout, stderr bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetIn(strings.NewReader(stdin))
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetIn(nil)
	})

	err := rootCmd.ExecuteContext(context.Background())
	return cliResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func writeProfiles(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	require.NoError(t, os.WriteFile(path, []byte(shProfiles), 0o600))
	return path
}

func writeScript(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "script.sql")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestExecCommand(t *testing.T) {
	cfg := writeProfiles(t)

	res := runCLI(t, "", "--config", cfg, "exec", "echo one;", "echo two;")
	require.NoError(t, res.err, res.stderr)
	assert.Equal(t, "one\ntwo\n", res.stdout)
}

func TestExecCommand_Beautifies(t *testing.T) {
	cfg := writeProfiles(t)

	res := runCLI(t, "", "--config", cfg, "exec", "-p", "html", "echo '<p>a &amp; b</p>';")
	require.NoError(t, res.err, res.stderr)
	assert.Equal(t, "a & b\n", res.stdout)

	raw := runCLI(t, "", "--config", cfg, "exec", "-p", "html", "--raw", "echo '<p>a &amp; b</p>';")
	require.NoError(t, raw.err, raw.stderr)
	assert.Equal(t, "<p>a &amp; b</p>\n", raw.stdout)
}

func TestExecCommand_UnknownProfile(t *testing.T) {
	cfg := writeProfiles(t)

	res := runCLI(t, "", "--config", cfg, "exec", "-p", "shh", "echo hi;")
	require.Error(t, res.err)
	assert.True(t, errors.IsCode(res.err, errors.ErrConfig))
	assert.Contains(t, res.err.Error(), "Did you mean sh?")
	assert.Empty(t, res.stdout)
}

func TestExecCommand_InvalidTimeout(t *testing.T) {
	cfg := writeProfiles(t)

	res := runCLI(t, "", "--config", cfg, "exec", "--timeout", "soon", "echo hi;")
	require.Error(t, res.err)
	assert.True(t, errors.IsCode(res.err, errors.ErrConfig))
}

func TestRunCommand(t *testing.T) {
	cfg := writeProfiles(t)
	script := writeScript(t, "echo a;\necho 'multi\nline';\n")

	res := runCLI(t, "", "--config", cfg, "run", script)
	require.NoError(t, res.err, res.stderr)
	assert.Equal(t, "a\nmulti\nline\n", res.stdout)
}

func TestRunCommand_RecoversFromDeadInterpreter(t *testing.T) {
	cfg := writeProfiles(t)
	script := writeScript(t, "echo a;\nexit 3;\necho b;\n")

	res := runCLI(t, "", "--config", cfg, "run", script)
	require.Error(t, res.err)
	code, ok := errors.GetExitCode(res.err)
	require.True(t, ok)
	assert.Equal(t, 1, code)

	assert.Equal(t, "a\nb\n", res.stdout, "the session is restarted after the failure")
	assert.Contains(t, res.stderr, "Statement 2 failed: exit 3;")
	assert.Contains(t, res.stderr, "1 of 3 statements failed")
}

func TestRunCommand_StopOnError(t *testing.T) {
	cfg := writeProfiles(t)
	script := writeScript(t, "echo a;\nexit 3;\necho b;\n")

	res := runCLI(t, "", "--config", cfg, "run", "--stop-on-error", script)
	require.Error(t, res.err)
	assert.True(t, errors.IsCode(res.err, errors.ErrDied))
	assert.Equal(t, "a\n", res.stdout)
}

func TestRunCommand_Stdin(t *testing.T) {
	cfg := writeProfiles(t)

	res := runCLI(t, "echo from stdin;\n", "--config", cfg, "run", "-")
	require.NoError(t, res.err, res.stderr)
	assert.Equal(t, "from stdin\n", res.stdout)
}

func TestRunCommand_CustomTerminator(t *testing.T) {
	cfg := writeProfiles(t)
	script := writeScript(t, "echo x #\necho y #\n")

	res := runCLI(t, "", "--config", cfg, "run", "--terminator", "#", script)
	require.NoError(t, res.err, res.stderr)
	assert.Equal(t, "x\ny\n", res.stdout)
}

func TestRunCommand_EmptyScript(t *testing.T) {
	cfg := writeProfiles(t)
	script := writeScript(t, "-- nothing to do\n")

	res := runCLI(t, "", "--config", cfg, "run", script)
	require.NoError(t, res.err)
	assert.Empty(t, res.stdout)
	assert.Contains(t, res.stderr, "No statements in "+script)
}

func TestRunCommand_MissingScript(t *testing.T) {
	cfg := writeProfiles(t)

	res := runCLI(t, "", "--config", cfg, "run", filepath.Join(t.TempDir(), "nope.sql"))
	require.Error(t, res.err)
	assert.True(t, errors.IsCode(res.err, errors.ErrConfig))
}

func TestShellCommand_Piped(t *testing.T) {
	cfg := writeProfiles(t)
	input := "echo one;\necho 'x\ny';\n:status\n:bogus\nexit\necho never;\n"

	res := runCLI(t, input, "--config", cfg, "shell")
	require.NoError(t, res.err, res.stderr)
	assert.Equal(t, "one\nx\ny\n", res.stdout)
	assert.Contains(t, res.stderr, "Session is")
	assert.Contains(t, res.stderr, "Unknown shell command :bogus")
	assert.NotContains(t, res.stdout, "never")
}

func TestShellCommand_FlushesAtEOF(t *testing.T) {
	cfg := writeProfiles(t)

	res := runCLI(t, "echo first;\necho last", "--config", cfg, "shell")
	require.NoError(t, res.err, res.stderr)
	assert.Equal(t, "first\nlast\n", res.stdout)
}

func TestShellCommand_RestartsDeadSessionWhenPiped(t *testing.T) {
	cfg := writeProfiles(t)

	res := runCLI(t, "exit 4;\necho after;\n", "--config", cfg, "shell")
	require.NoError(t, res.err, res.stderr)
	assert.Equal(t, "after\n", res.stdout)
	assert.NotEmpty(t, res.stderr)
}

func TestShellCommand_Restart(t *testing.T) {
	cfg := writeProfiles(t)

	res := runCLI(t, "x=1;\n:restart\necho \"[$x]\";\n", "--config", cfg, "shell")
	require.NoError(t, res.err, res.stderr)
	assert.Equal(t, "[]\n", res.stdout, "a restart gives a fresh interpreter")
	assert.Contains(t, res.stderr, "Session restarted")
}

func TestBeautifyCommand(t *testing.T) {
	res := runCLI(t, "<table><tr><th>ID</th></tr><tr><td>7</td></tr></table><p>Tom &amp; Jerry</p>", "beautify")
	require.NoError(t, res.err)
	assert.Equal(t, "ID\n--\n7\n\nTom & Jerry\n", res.stdout)
}

func TestBeautifyCommand_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.html")
	require.NoError(t, os.WriteFile(path, []byte("first<br>second"), 0o644))

	res := runCLI(t, "", "beautify", path)
	require.NoError(t, res.err)
	assert.Equal(t, "first\nsecond\n", res.stdout)

	missing := runCLI(t, "", "beautify", filepath.Join(t.TempDir(), "missing.html"))
	require.Error(t, missing.err)
	assert.True(t, errors.IsCode(missing.err, errors.ErrConfig))
}

func TestProfileCommands(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	work := filepath.Join(home, "work")
	require.NoError(t, os.MkdirAll(work, 0o755))
	t.Chdir(work)

	list := runCLI(t, "", "profile", "list")
	require.NoError(t, list.err)
	assert.Contains(t, list.stdout, "built-in defaults")

	add := runCLI(t, "", "profile", "add", "dev", "--connect", "scott/tiger@db", "--non-interactive", "--default")
	require.NoError(t, add.err, add.stderr)
	globalPath := filepath.Join(home, ".config", "vorax", "profiles.yaml")
	assert.Contains(t, add.stdout, "Saved profile dev to "+globalPath)
	assert.FileExists(t, globalPath)

	list = runCLI(t, "", "profile", "ls")
	require.NoError(t, list.err, list.stderr)
	assert.Contains(t, list.stdout, "dev *")
	assert.Contains(t, list.stdout, "scott/***@db")
	assert.NotContains(t, list.stdout, "tiger")

	show := runCLI(t, "", "profile", "show", "dev")
	require.NoError(t, show.err, show.stderr)
	assert.Contains(t, show.stdout, "connect: scott/***@db")
	assert.Contains(t, show.stdout, "executable: sqlplus")
	assert.NotContains(t, show.stdout, "tiger")

	remove := runCLI(t, "", "profile", "rm", "dev")
	require.NoError(t, remove.err, remove.stderr)
	assert.Contains(t, remove.stdout, "Removed profile dev")

	again := runCLI(t, "", "profile", "remove", "dev")
	require.Error(t, again.err)
	assert.Contains(t, again.err.Error(), "not found")
}

func TestProfileAdd_RejectsInvalidProfile(t *testing.T) {
	cfg := writeProfiles(t)

	res := runCLI(t, "", "--config", cfg, "profile", "add", "bad name", "--non-interactive")
	require.Error(t, res.err)
	assert.True(t, errors.IsCode(res.err, errors.ErrConfig))

	data, err := os.ReadFile(cfg)
	require.NoError(t, err)
	assert.Equal(t, shProfiles, string(data), "a rejected profile leaves the file alone")
}

func TestVersionCommand_Short(t *testing.T) {
	withVersion(t, "3.1.4", "none", "unknown")

	res := runCLI(t, "", "version", "--short")
	require.NoError(t, res.err)
	assert.Equal(t, "3.1.4\n", res.stdout)
}

func TestDoctorCommand(t *testing.T) {
	cfg := writeProfiles(t)

	res := runCLI(t, "", "--config", cfg, "doctor", "--start")
	require.NoError(t, res.err, res.stdout)
	assert.Contains(t, res.stdout, "CONFIG")
	assert.Contains(t, res.stdout, "Profiles file: "+cfg)
	assert.Contains(t, res.stdout, "sh: /bin/sh")
	assert.Contains(t, res.stdout, "SESSION")
	assert.Contains(t, res.stdout, "html: ready in")
	assert.Contains(t, res.stdout, "Everything looks good")
}

func TestDoctorCommand_JSON(t *testing.T) {
	cfg := writeProfiles(t)

	res := runCLI(t, "", "--config", cfg, "doctor", "--json", "-p", "sh")
	require.NoError(t, res.err, res.stdout)

	var report doctorReport
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &report))
	assert.Equal(t, 3, report.Summary.Pass, "config, profile and interpreter")
	assert.Zero(t, report.Summary.Fail)
	for _, r := range report.Results {
		assert.NotContains(t, r.Name, "html")
	}
}

func TestDoctorCommand_Failures(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`profiles:
  gone:
    executable: /nonexistent/sqlplus
`), 0o600))

	res := runCLI(t, "", "--config", path, "doctor")
	require.Error(t, res.err)
	code, ok := errors.GetExitCode(res.err)
	require.True(t, ok)
	assert.Equal(t, 1, code)
	assert.Contains(t, res.stdout, "gone: /nonexistent/sqlplus not found")
	assert.Contains(t, res.stdout, "1 issue found")
}

func TestDoctorCommand_BrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	require.NoError(t, os.WriteFile(path, []byte("profiles: [unclosed"), 0o600))

	res := runCLI(t, "", "--config", path, "doctor")
	require.Error(t, res.err)
	assert.Contains(t, res.stdout, "Can't load profiles")
}

// Package process supervises interpreter child processes.
//
// A Supervisor spawns a child with piped stdin, stdout and stderr, feeds it
// input and hands back its output one line at a time. Both output streams
// are read concurrently into a single bounded queue so a chatty stderr can
// never stall stdout. Two backends exist:
//
//   - LocalSupervisor runs the child on this machine. The POSIX build puts
//     it in its own process group and probes it with signal 0; the Windows
//     build uses process handles.
//   - RemoteSupervisor runs the child on another host through an SSH
//     session (see pkg/sshutil).
//
// Output can be transcoded from a legacy charset to UTF-8 on the way in and
// input transcoded back on the way out.
package process

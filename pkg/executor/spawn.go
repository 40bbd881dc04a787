// Package executor spawns and hands off the local executor child process
// that supervises a task-launched container, implementing a scoped-subprocess
// handshake.
//
// The child must never run unsupervised before its pid has been persisted:
// it enters its own session, changes into the task's working directory, and
// then blocks reading a single byte from stdin before exec'ing the real
// executor command. The parent writes that byte only after checkpointing
// succeeds; on any failure before that point the parent closes its end of
// the pipe, which causes the child's blocking read to fail and the child to
// exit without ever having executed the real command.
package executor

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"
)

// Options describes the child to spawn.
type Options struct {
	// Command is the real program and arguments to run once the handshake
	// releases the child (e.g. the framework's executor binary, already
	// augmented with an --override clause).
	Command []string

	// Env is the composed environment (agent-supplied executor environment
	// plus any command-level variables) to expose to the child.
	Env []string

	// Dir is the task's working directory. The child changes into it
	// itself, before it blocks on the handshake read; a `cd` failure makes
	// the child exit without reading the byte or running the real command.
	Dir string

	// StdoutPath/StderrPath are files under Dir that the child's stdout and
	// stderr are redirected to.
	StdoutPath string
	StderrPath string
}

// Handle is a spawned, not-yet-released child: the parent holds Stdin to
// complete the handshake and Cmd to wait on exit.
type Handle struct {
	Cmd   *exec.Cmd
	Pid   int
	stdin *os.File
}

// Spawn starts the child in the blocked, pre-handshake state and returns
// once it is running (but still waiting on stdin).
func Spawn(opts Options) (*Handle, error) {
	if len(opts.Command) == 0 {
		return nil, fmt.Errorf("executor: empty command")
	}

	stdoutFile, err := os.OpenFile(opts.StdoutPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("executor: open stdout: %w", err)
	}
	defer stdoutFile.Close()

	stderrFile, err := os.OpenFile(opts.StderrPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("executor: open stderr: %w", err)
	}
	defer stderrFile.Close()

	stdinRead, stdinWrite, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("executor: create handshake pipe: %w", err)
	}

	// The handshake (cd, then blocking one-byte read, then exec the real
	// command) is expressed as a shell wrapper rather than a Go pre-exec
	// hook: os/exec performs fork+exec as one step with no window to run
	// Go code in the child's address space between them, so the handshake
	// has to be encoded into what gets exec'd. The one-byte read uses dd
	// rather than the shell's own "read -n 1" builtin, since -n is a
	// bash/ksh extension that dash's POSIX "sh" read does not accept.
	shellScript := "cd \"$1\" && shift && dd bs=1 count=1 >/dev/null 2>&1 && exec \"$@\""
	args := append([]string{"sh", "-c", shellScript, "sh", opts.Dir}, opts.Command...)

	cmd := exec.Command(args[0], args[1:]...)
	cmd.Stdin = stdinRead
	cmd.Stdout = stdoutFile
	cmd.Stderr = stderrFile
	cmd.Env = opts.Env
	// setsid: the child enters its own session so that signals delivered to
	// the agent (e.g. a terminal SIGHUP) do not cascade to it.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		stdinRead.Close()
		stdinWrite.Close()
		return nil, fmt.Errorf("executor: start: %w", err)
	}

	// The child now owns its copy of the read end; the parent only needs
	// the write end to release the handshake (or abort it).
	stdinRead.Close()

	return &Handle{Cmd: cmd, Pid: cmd.Process.Pid, stdin: stdinWrite}, nil
}

// Release writes the handshake byte, allowing the child (already in its
// working directory) to exec the real command.
func (h *Handle) Release() error {
	if _, err := h.stdin.Write([]byte{0}); err != nil {
		return fmt.Errorf("executor: write handshake byte: %w", err)
	}
	return h.stdin.Close()
}

// Abort closes the handshake pipe without releasing it, causing the child's
// blocked read to fail and the child to exit without ever reaching the real
// command. Used when pid persistence fails before Release is called.
func (h *Handle) Abort() error {
	return h.stdin.Close()
}

// ComposeOverride appends an --override clause: a shell command that runs
// the engine CLI's `wait <name>` and exits with the exit code that command
// prints, so the executor's lifecycle and exit status are tied to the
// container's.
func ComposeOverride(command []string, engineBin, containerName string) []string {
	overrideCmd := fmt.Sprintf("exit $(%s wait %s)", shellQuote(engineBin), shellQuote(containerName))
	return append(append([]string{}, command...), "--override", overrideCmd)
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

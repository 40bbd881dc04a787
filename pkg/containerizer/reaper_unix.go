//go:build !windows

package containerizer

import (
	"os"
	"syscall"
)

// processAlive reports whether pid still refers to a live process, by
// sending the null signal, the portable POSIX liveness check.
func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}

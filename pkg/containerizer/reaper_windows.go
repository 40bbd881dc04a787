//go:build windows

package containerizer

import "os"

// processAlive reports whether pid still refers to a live process.
func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// os.FindProcess on Windows opens a handle only if the process exists.
	state, err := proc.Wait()
	return err == nil && state == nil
}

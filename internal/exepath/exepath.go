// Package exepath checks for external programs the tool depends on.
package exepath

import "os/exec"

// Available reports whether program can be found on PATH. A program given as
// a path is checked directly.
func Available(program string) bool {
	if program == "" {
		return false
	}
	_, err := exec.LookPath(program)
	return err == nil
}

//go:build !windows

package procman

import "syscall"

// detachAttr puts the daemon in its own session so it survives the
// launching terminal.
func detachAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setsid: true}
}

//go:build windows

package procman

import "syscall"

func detachAttr() *syscall.SysProcAttr {
	// CREATE_NEW_PROCESS_GROUP, so the daemon ignores the console's ctrl-c.
	return &syscall.SysProcAttr{CreationFlags: 0x00000200}
}

//go:build unix

package draft

import (
	"os"
	"syscall"
)

func (l *fileLock) tryLock() error {
	return syscall.Flock(int(l.file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
}

func (l *fileLock) unlock() {
	syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN)
}

func isProcessAlive(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// Signal 0 only checks for existence.
	return process.Signal(syscall.Signal(0)) == nil
}

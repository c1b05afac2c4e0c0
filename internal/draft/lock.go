package draft

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultLockTimeout = 2 * time.Second
	initialBackoff     = 5 * time.Millisecond
	maxBackoff         = 50 * time.Millisecond
)

// fileLock serializes draft access across optsync processes using OS file
// locks. The OS drops the lock when the holder exits, even on a crash.
type fileLock struct {
	path string
	file *os.File
}

func newFileLock(draftPath string) *fileLock {
	return &fileLock{path: draftPath + ".lock"}
}

// acquire takes the exclusive lock, retrying with backoff until timeout.
func (l *fileLock) acquire(timeout time.Duration) error {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return fmt.Errorf("open lock file: %w", err)
	}
	l.file = f

	deadline := time.Now().Add(timeout)
	backoff := initialBackoff
	for {
		if err := l.tryLock(); err == nil {
			l.writeHolder()
			return nil
		}
		if time.Now().After(deadline) {
			holder := l.readHolder()
			l.file.Close()
			l.file = nil
			return fmt.Errorf("draft is locked by another optsync process (%s) after %v", holder, timeout)
		}
		time.Sleep(backoff)
		backoff = min(backoff*2, maxBackoff)
	}
}

func (l *fileLock) release() {
	if l.file == nil {
		return
	}
	l.file.Truncate(0)
	l.unlock()
	l.file.Close()
	l.file = nil
}

func (l *fileLock) writeHolder() {
	l.file.Truncate(0)
	l.file.Seek(0, 0)
	fmt.Fprintf(l.file, "pid:%d\ntime:%s\n", os.Getpid(), time.Now().Format(time.RFC3339))
	l.file.Sync()
}

// readHolder describes the current holder for error messages.
func (l *fileLock) readHolder() string {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return "holder unknown"
	}
	var pid, since string
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if v, ok := strings.CutPrefix(line, "pid:"); ok {
			pid = v
		} else if v, ok := strings.CutPrefix(line, "time:"); ok {
			since = v
		}
	}
	if pid == "" {
		return "holder unknown"
	}
	if n, err := strconv.Atoi(pid); err == nil && !isProcessAlive(n) {
		return fmt.Sprintf("pid %s since %s, stale", pid, since)
	}
	return fmt.Sprintf("pid %s since %s", pid, since)
}

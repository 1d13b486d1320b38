// Package pid guards against two monitors sharing one acquisition device.
package pid

import (
	"os"
	"strconv"
	"strings"
	"syscall"

	"codeberg.org/mutker/powermon/internal/errors"
)

// Write writes the current process ID to path. It fails with
// ErrAlreadyRunning when path names a live process; a stale file is
// overwritten.
func Write(path string) error {
	errFactory := errors.New()
	if path == "" {
		return errFactory.WithMessage(errors.ErrInvalidArgument, "empty pid file path")
	}

	if _, err := os.Stat(path); err == nil {
		// PID file exists, check if the process is running
		bytes, err := os.ReadFile(path)
		if err != nil {
			return errFactory.Wrap(errors.ErrInternal, err)
		}

		if running(strings.TrimSpace(string(bytes))) {
			return errFactory.WithData(errors.ErrAlreadyRunning, path)
		}
	}

	err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o600)
	if err != nil {
		return errFactory.Wrap(errors.ErrInternal, err)
	}

	return nil
}

func running(contents string) bool {
	pid, err := strconv.Atoi(contents)
	if err != nil || pid <= 0 {
		return false
	}
	if pid == os.Getpid() {
		return false
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}

// Remove removes the PID file at path. A missing file is not an error.
func Remove(path string) error {
	errFactory := errors.New()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	if err := os.Remove(path); err != nil {
		return errFactory.Wrap(errors.ErrInternal, err)
	}

	return nil
}

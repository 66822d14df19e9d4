//go:build !windows

package fsutil

import (
	"os"

	"golang.org/x/sys/unix"
)

func platformLockExclusive(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_EX)
}

func platformUnlock(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_UN)
}

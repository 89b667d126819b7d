//go:build windows

package targeter

import "syscall"

// Windows has no ENOTSUP errno; symlink creation there fails with
// access-denied style errors already covered by EACCES/EPERM.
func isPlatformUnsupported(errno syscall.Errno) bool {
	return false
}

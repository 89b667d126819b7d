//go:build !windows

package targeter

import "syscall"

// isPlatformUnsupported covers the remaining errno spec.md §4.7 names that
// are not universally defined across platforms (ENOTSUP is absent on
// Windows, so it lives behind this build tag rather than in the shared
// switch).
func isPlatformUnsupported(errno syscall.Errno) bool {
	return errno == syscall.ENOTSUP
}

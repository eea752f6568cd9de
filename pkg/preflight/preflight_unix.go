//go:build !windows

package preflight

import (
	"golang.org/x/sys/unix"
)

// checkVolumeExists is a no-op on Unix; every path hangs off "/".
func checkVolumeExists(path string) error {
	return nil
}

// platformCheckWritable asks the kernel whether the process may create
// entries in dir, which also covers read-only mounts.
func platformCheckWritable(dir string) error {
	return unix.Access(dir, unix.W_OK|unix.X_OK)
}

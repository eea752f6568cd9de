//go:build windows

package preflight

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// checkVolumeExists verifies that the drive or network share root for a given
// path exists. For example, for "Z:\mods", it checks if "Z:\" exists. An
// unplugged drive or a dropped share fails here with a readable message
// instead of a bare "path not found" from the extractor.
func checkVolumeExists(path string) error {
	volume := filepath.VolumeName(path)
	if volume == "" {
		return nil // Relative path, nothing to check.
	}

	// The volume is either a drive ("C:") or a share ("\\Server\Share").
	checkVol := volume

	// A bare drive needs its separator, otherwise "C:" names the current
	// directory on that drive rather than its root.
	if !strings.HasSuffix(checkVol, string(filepath.Separator)) {
		checkVol += string(filepath.Separator)
	}

	// Normalize before the stat.
	checkVol = filepath.Clean(checkVol)

	if _, err := os.Stat(checkVol); os.IsNotExist(err) {
		return fmt.Errorf("volume root does not exist: %s. Ensure the drive is connected", checkVol)
	}
	return nil
}

// platformCheckWritable relies on the write test file; ACLs make permission bits
// meaningless here.
func platformCheckWritable(dir string) error {
	return nil
}

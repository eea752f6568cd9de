// Package preflight provides checks that run before a pipeline begins. They
// inspect the filesystem without changing it, with the exception of the short
// lived write test file the write check creates and removes again.
package preflight

import (
	"fmt"
	"os"

	"github.com/paulschiretz/pgl-modpack/pkg/perr"
)

// writeTestPattern names the write test file created by CheckOutputDirWritable.
const writeTestPattern = ".pgl-modpack-writetest-*.tmp"

// Run executes the checks enabled in p for the bundle at src, whose archive
// will be written to outputDir.
func Run(src, outputDir string, p *Plan) error {
	if p.SourceAccessible {
		if err := CheckSourceAccessible(src); err != nil {
			return err
		}
	}
	if p.OutputWritable {
		if err := CheckOutputDirWritable(outputDir); err != nil {
			return err
		}
	}
	return nil
}

// CheckSourceAccessible validates that src exists and is either a regular
// file or a directory. Whether a file is a supported archive is decided by
// the extractor.
func CheckSourceAccessible(src string) error {
	info, err := os.Stat(src)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: source %s does not exist", perr.ErrUnsupportedInput, src)
		}
		return fmt.Errorf("%w: cannot stat source %s: %w", perr.ErrUnsupportedInput, src, err)
	}
	if !info.IsDir() && !info.Mode().IsRegular() {
		return fmt.Errorf("%w: source %s is neither a file nor a directory", perr.ErrUnsupportedInput, src)
	}
	return nil
}

// CheckOutputDirWritable ensures the archive can be created in dir.
//
// The checks include:
//  1. On Windows, verifies that the drive or network share holding dir exists.
//  2. dir exists and is a directory.
//  3. On Unix, the process has write and search permission on dir.
//  4. A write test file can actually be created and removed in dir.
func CheckOutputDirWritable(dir string) error {
	if err := checkVolumeExists(dir); err != nil {
		return err
	}

	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: output directory %s does not exist", perr.ErrIo, dir)
		}
		return fmt.Errorf("%w: cannot access output directory %s: %w", perr.ErrIo, dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: output path %s is not a directory", perr.ErrIo, dir)
	}

	if err := platformCheckWritable(dir); err != nil {
		return fmt.Errorf("%w: output directory %s is not writable: %w", perr.ErrIo, dir, err)
	}

	f, err := os.CreateTemp(dir, writeTestPattern)
	if err != nil {
		return fmt.Errorf("%w: output directory %s is not writable: %w", perr.ErrIo, dir, err)
	}
	f.Close()
	_ = os.Remove(f.Name())
	return nil
}

// Package workspace implements the scratch directory that carries a mod bundle
// through the pipeline.
//
// A Workspace owns a fresh temporary directory and the ordered list of
// regular files below it. Extraction populates it through Create, which is the
// only entry point for untrusted names, minification rewrites file contents in
// place, archiving reads the list, and Dispose removes everything again.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/paulschiretz/pgl-modpack/pkg/perr"
	"github.com/paulschiretz/pgl-modpack/pkg/plog"
	"github.com/paulschiretz/pgl-modpack/pkg/util"
)

// tempPattern is the os.MkdirTemp pattern for scratch directories.
const tempPattern = "pgl-modpack-*"

// Workspace is a scratch directory plus the relative paths of the files it holds.
type Workspace struct {
	root  string
	files []string
	index map[string]struct{}

	disposeOnce sync.Once
	disposeErr  error
}

// New allocates a unique scratch directory below baseDir. An empty baseDir
// uses the system temp directory.
func New(baseDir string) (*Workspace, error) {
	root, err := os.MkdirTemp(baseDir, tempPattern)
	if err != nil {
		return nil, fmt.Errorf("%w: failed creating temp dir: %w", perr.ErrIo, err)
	}
	return &Workspace{
		root:  root,
		index: make(map[string]struct{}),
	}, nil
}

// Root returns the absolute scratch directory.
func (w *Workspace) Root() string {
	return w.root
}

// Files returns the relative slash paths in discovery order.
// The returned slice is a copy.
func (w *Workspace) Files() []string {
	return slices.Clone(w.files)
}

// Len returns the number of files.
func (w *Workspace) Len() int {
	return len(w.files)
}

// Abs resolves a recorded relative path to its location on disk.
func (w *Workspace) Abs(rel string) string {
	return filepath.Join(w.root, filepath.FromSlash(rel))
}

// CleanEntryName validates an untrusted entry name and returns its normalized
// relative form. Names that are not UTF-8, are absolute, or would resolve
// outside root are rejected with perr.ErrInvalidPath.
func CleanEntryName(root, name string) (string, error) {
	if !utf8.ValidString(name) {
		return "", fmt.Errorf("%w: entry name is not valid UTF-8: %q", perr.ErrInvalidPath, name)
	}
	if strings.ContainsRune(name, 0) {
		return "", fmt.Errorf("%w: entry name contains NUL: %q", perr.ErrInvalidPath, name)
	}

	rel := util.NormalizePath(name)
	if !util.IsLocalPath(rel) {
		return "", fmt.Errorf("%w: illegal file path in archive: %s", perr.ErrInvalidPath, name)
	}

	// Security: Zip Slip protection.
	// Joining must still land strictly inside root once the OS has its say.
	absTarget := filepath.Join(root, filepath.FromSlash(rel))
	if !strings.HasPrefix(absTarget, filepath.Clean(root)+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: illegal file path in archive: %s", perr.ErrInvalidPath, name)
	}
	return rel, nil
}

// Create validates name, creates its parent directories and opens a fresh file
// for writing. The normalized path is recorded on first sight; a later entry
// with the same normalized name overwrites the bytes but keeps the original
// position in the file list.
func (w *Workspace) Create(name string) (*os.File, string, error) {
	rel, err := CleanEntryName(w.root, name)
	if err != nil {
		return nil, "", err
	}

	absTarget := w.Abs(rel)
	if err := os.MkdirAll(filepath.Dir(absTarget), util.UserWritableDirPerms); err != nil {
		return nil, "", fmt.Errorf("%w: failed creating entry's parent folder(s) for %s: %w", perr.ErrIo, rel, err)
	}

	// Security: remove whatever sits at the target so an earlier entry can never
	// redirect this write through a symlink.
	if err := os.Remove(absTarget); err != nil && !os.IsNotExist(err) {
		return nil, "", fmt.Errorf("%w: failed replacing %s: %w", perr.ErrIo, rel, err)
	}

	f, err := os.OpenFile(absTarget, os.O_WRONLY|os.O_CREATE|os.O_EXCL, util.UserWritableFilePerms)
	if err != nil {
		return nil, "", fmt.Errorf("%w: failed creating output file for %s: %w", perr.ErrIo, rel, err)
	}

	if _, seen := w.index[rel]; seen {
		plog.Debug("Duplicate entry, last writer wins", "file", rel)
	} else {
		w.index[rel] = struct{}{}
		w.files = append(w.files, rel)
	}
	return f, rel, nil
}

// Dispose recursively removes the scratch directory. It is safe to call more
// than once; later calls return the first result.
func (w *Workspace) Dispose() error {
	w.disposeOnce.Do(func() {
		if err := os.RemoveAll(w.root); err != nil {
			w.disposeErr = fmt.Errorf("%w: %w", perr.ErrCleanup, err)
			return
		}
		plog.Debug("Removed scratch directory", "path", w.root)
	})
	return w.disposeErr
}

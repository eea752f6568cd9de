package util

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Permission constants for file and directory modes.
const (
	// UserWritableDirPerms represents the standard permissions for newly created directories (rwxr-xr-x).
	UserWritableDirPerms os.FileMode = 0755
	// UserWritableFilePerms represents the standard permissions for newly created files (rw-r--r--).
	UserWritableFilePerms os.FileMode = 0644
)

// ExpandPath expands the tilde (~) prefix in a path to the user's home directory.
func ExpandPath(p string) (string, error) {
	if !strings.HasPrefix(p, "~") {
		return p, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not get user home directory: %w", err)
	}
	return filepath.Join(home, p[1:]), nil
}

// InvertMap takes a map[K]V and returns a map[V]K.
// It's a generic helper for creating reverse lookup maps for enums.
func InvertMap[K comparable, V comparable](m map[K]V) map[V]K {
	inv := make(map[V]K, len(m))
	for k, v := range m {
		inv[v] = k
	}
	return inv
}

// NormalizePath converts an OS or archive path into the slash separated form
// used as a key throughout the pipeline. Backslashes are treated as separators
// because archives produced on Windows frequently contain them.
func NormalizePath(p string) string {
	p = strings.ReplaceAll(filepath.ToSlash(p), "\\", "/")
	if p == "" {
		return ""
	}
	return path.Clean(p)
}

// IsLocalPath reports whether a normalized slash path stays below its root.
// Absolute paths, drive letters and paths that climb out via ".." are rejected.
func IsLocalPath(p string) bool {
	if p == "" || p == "." || strings.HasPrefix(p, "/") {
		return false
	}
	if len(p) >= 2 && p[1] == ':' {
		return false
	}
	if p == ".." || strings.HasPrefix(p, "../") {
		return false
	}
	return true
}

// FileStem returns the final path element without its last extension.
func FileStem(p string) string {
	base := path.Base(p)
	return strings.TrimSuffix(base, path.Ext(base))
}

// Ext returns the extension of p without the leading dot.
func Ext(p string) string {
	return strings.TrimPrefix(path.Ext(p), ".")
}

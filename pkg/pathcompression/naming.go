package pathcompression

import (
	"path/filepath"
	"strings"
)

const (
	outSuffix    = ".out"
	fallbackName = "file"
)

// inputSuffixes are the recognized archive suffixes, longest first so that
// ".tar.zst" is stripped as a whole.
var inputSuffixes = []string{".tar.zst", ".tzst", ".zip"}

// OutputBaseName returns the output file name without the format extension:
// one recognized archive suffix is stripped from the input's base name and
// ".out" is appended. A name that is only a suffix (".zip") becomes ".out".
// An existing ".out" is kept, so "a.out.tzst" yields "a.out.out".
func OutputBaseName(inputPath string) string {
	name := filepath.Base(filepath.Clean(inputPath))
	if name == string(filepath.Separator) || name == "." || name == "" {
		name = fallbackName
	}
	for _, suffix := range inputSuffixes {
		if stem, ok := strings.CutSuffix(name, suffix); ok {
			name = stem
			break
		}
	}
	return name + outSuffix
}

// OutputPath returns the archive path for inputPath: the output base name plus
// the format extension, placed in the input's parent directory.
func OutputPath(inputPath string, format Format) string {
	dir := filepath.Dir(filepath.Clean(inputPath))
	return filepath.Join(dir, OutputBaseName(inputPath)+"."+format.Extension())
}

// hasInputSuffix reports whether name ends in a recognized archive suffix.
func hasInputSuffix(name string) (string, bool) {
	for _, suffix := range inputSuffixes {
		if strings.HasSuffix(name, suffix) {
			return suffix, true
		}
	}
	return "", false
}

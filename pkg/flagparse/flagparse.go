// Package flagparse declares the command line flags of pgl-modpack and turns
// the ones the user actually set into config overrides.
package flagparse

import (
	"strings"

	"github.com/spf13/pflag"
)

// Flag names.
const (
	FlagConfig       = "config"
	FlagFormat       = "format"
	FlagNoJSON       = "no-json"
	FlagNoImages     = "no-images"
	FlagNoTiles      = "no-tiles"
	FlagLogLevel     = "log-level"
	FlagQuiet        = "quiet"
	FlagProgress     = "progress"
	FlagWorkers      = "workers"
	FlagBufferSizeKB = "buffer-size-kb"
	FlagMetrics      = "metrics"
	FlagMemoryLimit  = "memory-limit-mb"
	FlagTempDir      = "temp-dir"
	FlagExclude      = "exclude"
)

// cliFlags holds the values bound to the flag set. Defaults are zero values;
// only flags reported as changed are turned into overrides, so the real
// defaults live in the config package.
type cliFlags struct {
	ConfigFile   string
	Format       string
	NoJSON       bool
	NoImages     bool
	NoTiles      bool
	LogLevel     string
	Quiet        bool
	Progress     string
	Workers      int
	BufferSizeKB int
	Metrics      bool
	MemoryLimit  int
	TempDir      string
	Exclude      string
}

// Flags is the registered flag set of one command.
type Flags struct {
	fs *pflag.FlagSet
	f  cliFlags
}

// Register defines every flag on fs.
func Register(fs *pflag.FlagSet) *Flags {
	r := &Flags{fs: fs}
	f := &r.f
	fs.StringVar(&f.ConfigFile, FlagConfig, "", "Config file (.toml or .yaml). Default: pgl-modpack.toml or pgl-modpack.yaml in the working directory, then in the user config directory.")
	fs.StringVar(&f.Format, FlagFormat, "zstd", "Output archive format: 'zstd' (tar+zstd, .tzst) or 'zip'.")
	fs.BoolVar(&f.NoJSON, FlagNoJSON, false, "Do not minify JSON files.")
	fs.BoolVar(&f.NoImages, FlagNoImages, false, "Do not recompress PNG images.")
	fs.BoolVar(&f.NoTiles, FlagNoTiles, false, "Do not minify Tiled maps and tilesets (tmx, tsx).")
	fs.StringVar(&f.LogLevel, FlagLogLevel, "info", "Set the logging level: 'debug', 'notice', 'info', 'warn', 'error'.")
	fs.BoolVarP(&f.Quiet, FlagQuiet, "q", false, "Only log warnings and errors.")
	fs.StringVar(&f.Progress, FlagProgress, "auto", "Progress output: 'auto', 'bar', 'log' or 'none'.")
	fs.IntVar(&f.Workers, FlagWorkers, 0, "Number of files minified in parallel (0 = one per CPU).")
	fs.IntVar(&f.BufferSizeKB, FlagBufferSizeKB, 256, "Size of the I/O buffer in kilobytes for extraction and archiving.")
	fs.BoolVar(&f.Metrics, FlagMetrics, true, "Log file counts and byte savings per stage.")
	fs.IntVar(&f.MemoryLimit, FlagMemoryLimit, 512, "Memory in megabytes that files being minified may hold at once (0 = no limit).")
	fs.StringVar(&f.TempDir, FlagTempDir, "", "Directory for scratch data (default: system temp directory).")
	fs.StringVar(&f.Exclude, FlagExclude, "", "Comma-separated gitignore patterns to leave out of folder sources.")
	return r
}

// ConfigFile returns the --config value.
func (r *Flags) ConfigFile() string {
	return r.f.ConfigFile
}

// Overrides returns the changed flags keyed by their config key.
func (r *Flags) Overrides() map[string]any {
	used := make(map[string]bool)
	r.fs.Visit(func(fl *pflag.Flag) { used[fl.Name] = true })

	m := make(map[string]any)
	addIfUsed(m, used, FlagFormat, "format", r.f.Format)
	addIfUsed(m, used, FlagLogLevel, "log_level", r.f.LogLevel)
	addIfUsed(m, used, FlagQuiet, "quiet", r.f.Quiet)
	addIfUsed(m, used, FlagProgress, "progress", r.f.Progress)
	addIfUsed(m, used, FlagWorkers, "engine.workers", r.f.Workers)
	addIfUsed(m, used, FlagBufferSizeKB, "engine.buffer_size_kb", r.f.BufferSizeKB)
	addIfUsed(m, used, FlagMetrics, "engine.metrics", r.f.Metrics)
	addIfUsed(m, used, FlagMemoryLimit, "engine.memory_limit_mb", r.f.MemoryLimit)
	addIfUsed(m, used, FlagTempDir, "engine.temp_dir", r.f.TempDir)

	// The --no-* switches disable a minifier.
	addIfUsed(m, used, FlagNoJSON, "minify.json", !r.f.NoJSON)
	addIfUsed(m, used, FlagNoImages, "minify.images", !r.f.NoImages)
	addIfUsed(m, used, FlagNoTiles, "minify.tiles", !r.f.NoTiles)

	if used[FlagExclude] {
		m["exclude"] = ParseExcludeList(r.f.Exclude)
	}
	return m
}

// addIfUsed adds value under key if the flag name was set.
func addIfUsed[T any](m map[string]any, used map[string]bool, name, key string, value T) {
	if used[name] {
		m[key] = value
	}
}

// ParseExcludeList parses a comma-separated list of patterns. Single or double
// quotes group an item that contains commas or spaces and are removed.
// Backslashes are literal so Windows paths survive.
func ParseExcludeList(s string) []string {
	var list []string
	var current strings.Builder
	var quoteChar rune

	appendItem := func() {
		trimmed := strings.TrimSpace(current.String())
		if trimmed != "" {
			list = append(list, trimmed)
		}
		current.Reset()
	}

	for _, r := range s {
		switch {
		case r == '\'' || r == '"':
			if quoteChar == 0 {
				quoteChar = r
			} else if quoteChar == r {
				quoteChar = 0
			} else {
				// The other quote character is literal inside a quoted item.
				current.WriteRune(r)
			}
		case r == ',' && quoteChar == 0:
			appendItem()
		default:
			current.WriteRune(r)
		}
	}
	appendItem()
	return list
}

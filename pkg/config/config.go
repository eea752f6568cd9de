// Package config loads the settings of a pgl-modpack run.
//
// Values are layered, each layer overriding the one before it:
//  1. built-in defaults (NewDefault)
//  2. an optional TOML or YAML config file, from the working directory or
//     else the user config directory
//  3. PGL_MODPACK_* environment variables
//  4. command line flags the user explicitly set
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/paulschiretz/pgl-modpack/pkg/pathcompression"
	"github.com/paulschiretz/pgl-modpack/pkg/plog"
	"github.com/paulschiretz/pgl-modpack/pkg/progress"
	"github.com/paulschiretz/pgl-modpack/pkg/util"
)

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "PGL_MODPACK_"

// DefaultConfigNames are looked up in the working directory, then in the user
// config directory, when no config file is given explicitly. The first one
// found wins.
var DefaultConfigNames = []string{"pgl-modpack.toml", "pgl-modpack.yaml", "pgl-modpack.yml"}

// sections are the nested tables. Environment variables use "_" both as the
// nesting separator and inside key names, so only these prefixes are split.
var sections = []string{"minify", "engine"}

type MinifyConfig struct {
	JSON   bool `koanf:"json"`
	Images bool `koanf:"images"`
	Tiles  bool `koanf:"tiles"`
}

type EngineConfig struct {
	// Workers bounds concurrent minification. 0 means one per CPU.
	Workers      int  `koanf:"workers"`
	BufferSizeKB int  `koanf:"buffer_size_kb"`
	Metrics      bool `koanf:"metrics"`

	// MemoryLimitMB caps the memory held by files being minified. 0 means
	// no cap.
	MemoryLimitMB int `koanf:"memory_limit_mb"`

	// TempDir is where scratch directories are created. Empty means the
	// system temp directory.
	TempDir string `koanf:"temp_dir"`
}

type Config struct {
	Source   string       `koanf:"source"`
	Format   string       `koanf:"format"`
	LogLevel string       `koanf:"log_level"`
	Quiet    bool         `koanf:"quiet"`
	Progress string       `koanf:"progress"`
	Minify   MinifyConfig `koanf:"minify"`
	Engine   EngineConfig `koanf:"engine"`

	// Exclude holds extra gitignore patterns for folder sources.
	Exclude []string `koanf:"exclude"`
}

// LoadOptions controls where Load looks for values.
type LoadOptions struct {
	// ConfigFile is an explicit config file. It must exist when set.
	ConfigFile string
	// WorkDir is searched for DefaultConfigNames when ConfigFile is empty.
	WorkDir string
	// UserConfigDir is searched after WorkDir.
	UserConfigDir string
	// Overrides holds flag values keyed like the config ("minify.json").
	Overrides map[string]any
}

// NewDefault returns the built-in configuration: every minifier enabled,
// tar+zstd output and automatic progress selection.
func NewDefault() Config {
	return Config{
		Format:   pathcompression.Zstd.String(),
		LogLevel: "info",
		Progress: progress.Auto.String(),
		Minify: MinifyConfig{
			JSON:   true,
			Images: true,
			Tiles:  true,
		},
		Engine: EngineConfig{
			Workers:       0,
			BufferSizeKB:  pathcompression.DefaultBufferSizeKB,
			Metrics:       true,
			MemoryLimitMB: 512,
		},
	}
}

func defaultMap() map[string]any {
	d := NewDefault()
	return map[string]any{
		"source":                 d.Source,
		"format":                 d.Format,
		"log_level":              d.LogLevel,
		"quiet":                  d.Quiet,
		"progress":               d.Progress,
		"exclude":                d.Exclude,
		"minify.json":            d.Minify.JSON,
		"minify.images":          d.Minify.Images,
		"minify.tiles":           d.Minify.Tiles,
		"engine.workers":         d.Engine.Workers,
		"engine.buffer_size_kb":  d.Engine.BufferSizeKB,
		"engine.metrics":         d.Engine.Metrics,
		"engine.memory_limit_mb": d.Engine.MemoryLimitMB,
		"engine.temp_dir":        d.Engine.TempDir,
	}
}

// Load builds the effective configuration. It does not validate it.
func Load(opts LoadOptions) (Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(defaultMap(), "."), nil); err != nil {
		return Config{}, fmt.Errorf("failed to load default config: %w", err)
	}

	// 2. Config file
	path, err := findConfigFile(opts)
	if err != nil {
		return Config{}, err
	}
	if path != "" {
		parser, err := parserFor(path)
		if err != nil {
			return Config{}, err
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return Config{}, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
		plog.Debug("Loaded config file", "path", path)
	}

	// 3. Environment
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	if len(opts.Overrides) > 0 {
		if err := k.Load(confmap.Provider(opts.Overrides, "."), nil); err != nil {
			return Config{}, fmt.Errorf("failed to load flag overrides: %w", err)
		}
	}

	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			ErrorUnused:      true,
			DecodeHook:       mapstructure.StringToSliceHookFunc(","),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	return cfg, nil
}

func findConfigFile(opts LoadOptions) (string, error) {
	if opts.ConfigFile != "" {
		path, err := util.ExpandPath(opts.ConfigFile)
		if err != nil {
			return "", fmt.Errorf("could not expand config path: %w", err)
		}
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("cannot read config file %s: %w", path, err)
		}
		return path, nil
	}
	for _, dir := range []string{opts.WorkDir, opts.UserConfigDir} {
		if dir == "" {
			continue
		}
		for _, name := range DefaultConfigNames {
			path := filepath.Join(dir, name)
			if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
				return path, nil
			}
		}
	}
	return "", nil
}

func parserFor(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return toml.Parser(), nil
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	default:
		return nil, fmt.Errorf("unsupported config file type %q: use .toml, .yaml or .yml", filepath.Ext(path))
	}
}

// envKey maps PGL_MODPACK_ENGINE_BUFFER_SIZE_KB to engine.buffer_size_kb.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	for _, section := range sections {
		if rest, ok := strings.CutPrefix(key, section+"_"); ok {
			return section + "." + rest
		}
	}
	return key
}

// Validate checks the configuration and canonicalizes the source path.
func (c *Config) Validate() error {
	if c.Source == "" {
		return fmt.Errorf("source path cannot be empty")
	}
	src, err := util.ExpandPath(c.Source)
	if err != nil {
		return fmt.Errorf("could not expand source path: %w", err)
	}
	c.Source = filepath.Clean(src)

	if _, err := pathcompression.ParseFormat(c.Format); err != nil {
		return err
	}
	if _, err := progress.ParseMode(c.Progress); err != nil {
		return err
	}
	if !plog.IsValidLevel(c.LogLevel) {
		return fmt.Errorf("invalid log level: %q. Must be 'debug', 'notice', 'info', 'warn' or 'error'", c.LogLevel)
	}
	if c.Engine.Workers < 0 {
		return fmt.Errorf("engine.workers cannot be negative")
	}
	if c.Engine.Workers > 16*runtime.NumCPU() {
		return fmt.Errorf("engine.workers cannot exceed %d", 16*runtime.NumCPU())
	}
	if c.Engine.BufferSizeKB <= 0 {
		return fmt.Errorf("engine.buffer_size_kb must be positive")
	}
	if c.Engine.MemoryLimitMB < 0 {
		return fmt.Errorf("engine.memory_limit_mb cannot be negative")
	}
	if c.Engine.TempDir != "" {
		dir, err := util.ExpandPath(c.Engine.TempDir)
		if err != nil {
			return fmt.Errorf("could not expand temp dir: %w", err)
		}
		c.Engine.TempDir = filepath.Clean(dir)
	}
	return nil
}

// LogSummary logs the effective configuration.
func (c *Config) LogSummary() {
	var minifiers []string
	if c.Minify.JSON {
		minifiers = append(minifiers, "json")
	}
	if c.Minify.Images {
		minifiers = append(minifiers, "images")
	}
	if c.Minify.Tiles {
		minifiers = append(minifiers, "tiles")
	}
	minifySummary := "disabled"
	if len(minifiers) > 0 {
		minifySummary = strings.Join(minifiers, ",")
	}

	workers := fmt.Sprint(c.Engine.Workers)
	if c.Engine.Workers == 0 {
		workers = fmt.Sprintf("auto(%d)", runtime.NumCPU())
	}

	plog.Info("Configuration",
		"source", c.Source,
		"format", c.Format,
		"minify", minifySummary,
		"workers", workers,
		"buffer_size_kb", c.Engine.BufferSizeKB,
		"memory_limit_mb", c.Engine.MemoryLimitMB,
		"metrics", c.Engine.Metrics,
		"log_level", c.LogLevel,
		"progress", c.Progress,
	)
}

// Package planner turns a validated configuration into the immutable plan of
// a single run.
package planner

import (
	"fmt"

	"github.com/paulschiretz/pgl-modpack/pkg/assetminify"
	"github.com/paulschiretz/pgl-modpack/pkg/config"
	"github.com/paulschiretz/pgl-modpack/pkg/pathcompression"
	"github.com/paulschiretz/pgl-modpack/pkg/preflight"
)

// RunPlan is everything the engine needs to repackage one bundle.
type RunPlan struct {
	Source       string
	BufferSizeKB int
	Metrics      bool

	Preflight   *preflight.Plan
	Minify      *assetminify.Plan
	Compression *pathcompression.Plan
}

// GenerateRunPlan maps cfg onto the per-stage plans. cfg is expected to have
// passed Validate.
func GenerateRunPlan(cfg config.Config) (*RunPlan, error) {
	if cfg.Source == "" {
		return nil, fmt.Errorf("source path cannot be empty")
	}

	format, err := pathcompression.ParseFormat(cfg.Format)
	if err != nil {
		return nil, err
	}

	metrics := cfg.Engine.Metrics

	return &RunPlan{
		Source:       cfg.Source,
		BufferSizeKB: cfg.Engine.BufferSizeKB,
		Metrics:      metrics,
		Preflight: &preflight.Plan{
			SourceAccessible: true,
			OutputWritable:   true,
		},
		Minify: &assetminify.Plan{
			JSON:        cfg.Minify.JSON,
			Images:      cfg.Minify.Images,
			Tiles:       cfg.Minify.Tiles,
			Workers:     cfg.Engine.Workers,
			MemoryLimit: int64(cfg.Engine.MemoryLimitMB) * 1024 * 1024,
			Metrics:     metrics,
		},
		Compression: &pathcompression.Plan{
			Format:   format,
			TempDir:  cfg.Engine.TempDir,
			Excludes: cfg.Exclude,
			Metrics:  metrics,
		},
	}, nil
}

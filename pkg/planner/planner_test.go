package planner_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paulschiretz/pgl-modpack/pkg/config"
	"github.com/paulschiretz/pgl-modpack/pkg/pathcompression"
	"github.com/paulschiretz/pgl-modpack/pkg/planner"
)

func TestGenerateRunPlan(t *testing.T) {
	tests := []struct {
		name        string
		configMod   func(*config.Config)
		expectError bool
		validate    func(*testing.T, *planner.RunPlan)
	}{
		{
			name:      "Defaults",
			configMod: func(c *config.Config) {},
			validate: func(t *testing.T, p *planner.RunPlan) {
				assert.Equal(t, pathcompression.Zstd, p.Compression.Format)
				assert.True(t, p.Minify.JSON && p.Minify.Images && p.Minify.Tiles, "expected all minifiers enabled, got %+v", p.Minify)
				assert.True(t, p.Preflight.SourceAccessible && p.Preflight.OutputWritable, "expected all preflight checks enabled, got %+v", p.Preflight)
				assert.EqualValues(t, pathcompression.DefaultBufferSizeKB, p.BufferSizeKB)
				assert.EqualValues(t, 512*1024*1024, p.Minify.MemoryLimit)
			},
		},
		{
			name: "Toggles And Zip",
			configMod: func(c *config.Config) {
				c.Format = "zip"
				c.Minify.JSON = false
				c.Minify.Tiles = false
				c.Engine.Workers = 2
				c.Engine.Metrics = false
				c.Engine.TempDir = "/scratch"
				c.Engine.MemoryLimitMB = 0
			},
			validate: func(t *testing.T, p *planner.RunPlan) {
				assert.Equal(t, pathcompression.Zip, p.Compression.Format)
				assert.False(t, p.Minify.JSON)
				assert.False(t, p.Minify.Tiles)
				assert.True(t, p.Minify.Images)
				assert.EqualValues(t, 2, p.Minify.Workers)
				assert.False(t, p.Metrics || p.Minify.Metrics || p.Compression.Metrics, "expected metrics disabled in every stage")
				assert.Zero(t, p.Minify.MemoryLimit)
				assert.Equal(t, "/scratch", p.Compression.TempDir)
			},
		},
		{
			name:        "Invalid Format",
			configMod:   func(c *config.Config) { c.Format = "gzip" },
			expectError: true,
		},
		{
			name:        "Empty Source",
			configMod:   func(c *config.Config) { c.Source = "" },
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.NewDefault()
			cfg.Source = "mods/demo.zip"
			tt.configMod(&cfg)

			plan, err := planner.GenerateRunPlan(cfg)
			if tt.expectError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, cfg.Source, plan.Source)
			tt.validate(t, plan)
		})
	}
}

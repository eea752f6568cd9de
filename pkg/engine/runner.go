// Package engine runs the repackaging pipeline for one mod bundle.
//
// A run has four stages, each reported as a numbered step:
//
//  1. extract the bundle (zip, tar+zstd or folder) into a scratch workspace
//  2. minify the workspace in place
//  3. archive the workspace next to the input
//  4. remove the workspace
//
// The first failure ends the run. The workspace is removed no matter how the
// run ends; a failure to remove it is only reported when nothing else failed
// before it. The output archive is locked against other runs until Execute
// returns.
package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/paulschiretz/pgl-modpack/pkg/assetminify"
	"github.com/paulschiretz/pgl-modpack/pkg/lockfile"
	"github.com/paulschiretz/pgl-modpack/pkg/pathcompression"
	"github.com/paulschiretz/pgl-modpack/pkg/planner"
	"github.com/paulschiretz/pgl-modpack/pkg/plog"
	"github.com/paulschiretz/pgl-modpack/pkg/preflight"
	"github.com/paulschiretz/pgl-modpack/pkg/progress"
)

// Runner executes run plans. It can be reused across runs.
type Runner struct {
	compressor *pathcompression.PathCompressor
	minifier   *assetminify.AssetMinifier
	reporter   progress.Reporter
}

// NewRunner creates a Runner that reports progress to reporter and copies
// data through buffers of bufferSizeKB kilobytes.
func NewRunner(reporter progress.Reporter, bufferSizeKB int) *Runner {
	if reporter == nil {
		reporter = progress.NoopReporter{}
	}
	return &Runner{
		compressor: pathcompression.NewPathCompressor(bufferSizeKB),
		minifier:   assetminify.NewAssetMinifier(),
		reporter:   reporter,
	}
}

// disposer is the part of the workspace the cleanup step needs.
type disposer interface {
	Root() string
	Dispose() error
}

// Execute repackages p.Source and returns the path of the written archive.
func (r *Runner) Execute(ctx context.Context, p *planner.RunPlan) (outPath string, retErr error) {
	// Check for cancellation at the very beginning.
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	absSource, err := filepath.Abs(p.Source)
	if err != nil {
		return "", fmt.Errorf("could not resolve source path %s: %w", p.Source, err)
	}

	// The archive is written next to the input.
	if err := preflight.Run(absSource, filepath.Dir(absSource), p.Preflight); err != nil {
		return "", fmt.Errorf("preflight failed: %w", err)
	}

	// Two runs on the same input would write the same archive.
	lock, err := lockfile.Acquire(ctx, pathcompression.OutputPath(absSource, p.Compression.Format), absSource)
	if err != nil {
		return "", fmt.Errorf("could not lock output archive: %w", err)
	}
	defer lock.Release()

	plog.Info("Starting repack", "source", absSource, "format", p.Compression.Format)

	ws, err := r.compressor.Extract(ctx, absSource, p.Compression, r.reporter)
	if err != nil {
		return "", err
	}
	defer func() {
		retErr = r.cleanup(ws, retErr)
	}()

	if err := r.minifier.Minify(ctx, ws, p.Minify, r.reporter); err != nil {
		return "", err
	}

	outPath, err = r.compressor.Compress(ctx, ws, absSource, p.Compression, r.reporter)
	if err != nil {
		return "", err
	}

	if info, err := os.Stat(outPath); err == nil {
		plog.Info("Repack completed", "output", outPath, "size", info.Size())
	} else {
		plog.Info("Repack completed", "output", outPath)
	}
	return outPath, nil
}

// cleanup disposes ws under the final progress step. prevErr wins over a
// cleanup failure, which is then only logged.
func (r *Runner) cleanup(ws disposer, prevErr error) error {
	tracker := r.reporter.Spinner("[4/4] cleaning up", "cleaned up")
	if err := ws.Dispose(); err != nil {
		tracker.Abort()
		if prevErr != nil {
			plog.Warn("Failed cleaning up temp data", "path", ws.Root(), "error", err)
			return prevErr
		}
		return fmt.Errorf("failed cleaning up temp data: %w", err)
	}
	tracker.Finish()
	plog.Debug("Removed scratch directory", "path", ws.Root())
	return prevErr
}

// Package pathcompression moves mod bundles in and out of the scratch
// workspace.
//
// Extraction accepts a zip file, a zstd compressed tar (.tzst or .tar.zst) or
// a plain folder and fills a fresh workspace with its regular files.
// Archiving writes the workspace file list, in order, as a tar+zstd or zip
// archive named after the input (see OutputPath) next to it.
//
// Both directions stream through pooled copy buffers and report to a
// progress.Reporter. Every failure leaves nothing behind: a failed extraction
// disposes its workspace, a failed archive removes its temp file.
package pathcompression

import (
	"context"
	"fmt"

	"github.com/paulschiretz/pgl-modpack/pkg/pathcompressionmetrics"
	"github.com/paulschiretz/pgl-modpack/pkg/plog"
	"github.com/paulschiretz/pgl-modpack/pkg/pool"
	"github.com/paulschiretz/pgl-modpack/pkg/progress"
	"github.com/paulschiretz/pgl-modpack/pkg/workspace"
)

// DefaultBufferSizeKB is the copy buffer size used when none is configured.
const DefaultBufferSizeKB = 256

type PathCompressor struct {
	ioBufferPool *pool.FixedBufferPool
	ioBufferSize int
}

// NewPathCompressor creates a new PathCompressor whose copy buffers are
// bufferSizeKB kilobytes.
func NewPathCompressor(bufferSizeKB int) *PathCompressor {
	if bufferSizeKB <= 0 {
		bufferSizeKB = DefaultBufferSizeKB
	}
	bufferSize := bufferSizeKB * 1024
	return &PathCompressor{
		ioBufferSize: bufferSize,
		ioBufferPool: pool.NewFixedBufferPool(int64(bufferSize)),
	}
}

// Extract copies the regular files of src into a new workspace. On failure
// the workspace is already disposed and nil is returned.
func (c *PathCompressor) Extract(ctx context.Context, src string, p *Plan, reporter progress.Reporter) (*workspace.Workspace, error) {
	m := newMetrics(p)

	ex, err := newExtractor(src, c.ioBufferPool, reporter, m, p.Excludes)
	if err != nil {
		return nil, err
	}

	ws, err := workspace.New(p.TempDir)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ex.failure(), err)
	}

	if err := ex.Extract(ctx, src, ws); err != nil {
		if dErr := ws.Dispose(); dErr != nil {
			plog.Warn("Failed removing scratch directory after extraction error", "path", ws.Root(), "error", dErr)
		}
		return nil, fmt.Errorf("%s: %w", ex.failure(), err)
	}

	m.LogSummary("Extraction finished")
	return ws, nil
}

// Compress archives the workspace beside inputPath and returns the path of
// the written archive.
func (c *PathCompressor) Compress(ctx context.Context, ws *workspace.Workspace, inputPath string, p *Plan, reporter progress.Reporter) (string, error) {
	m := newMetrics(p)

	var comp compressor
	switch p.Format {
	case Zstd:
		comp = newTarCompressor(c.ioBufferPool, c.ioBufferSize, m)
	case Zip:
		comp = newZipCompressor(c.ioBufferPool, c.ioBufferSize, m)
	default:
		return "", fmt.Errorf("failed creating archive: unsupported format %s", p.Format)
	}

	outPath := OutputPath(inputPath, p.Format)
	plog.Info("Creating archive", "format", p.Format, "target", outPath, "files", ws.Len())

	tracker := reporter.Bar("[3/4] creating archive", "archive created", ws.Len())
	if err := writeArchive(ctx, comp, ws, outPath, tracker); err != nil {
		tracker.Abort()
		return "", fmt.Errorf("failed creating archive: %w", err)
	}
	tracker.Finish()

	m.LogSummary("Archive finished")
	return outPath, nil
}

func newMetrics(p *Plan) pathcompressionmetrics.Metrics {
	if p.Metrics {
		return &pathcompressionmetrics.CompressionMetrics{}
	}
	// Use the No-op implementation if metrics are disabled.
	return &pathcompressionmetrics.NoopMetrics{}
}

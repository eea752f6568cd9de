package pathcompression

import (
	"context"
	"errors"
	"fmt"

	"github.com/klauspost/compress/zip"
	"github.com/paulschiretz/pgl-modpack/pkg/pathcompressionmetrics"
	"github.com/paulschiretz/pgl-modpack/pkg/perr"
	"github.com/paulschiretz/pgl-modpack/pkg/plog"
	"github.com/paulschiretz/pgl-modpack/pkg/pool"
	"github.com/paulschiretz/pgl-modpack/pkg/progress"
	"github.com/paulschiretz/pgl-modpack/pkg/workspace"
)

type zipExtractor struct {
	bufferPool *pool.FixedBufferPool
	reporter   progress.Reporter
	metrics    pathcompressionmetrics.Metrics
}

func newZipExtractor(bufferPool *pool.FixedBufferPool, reporter progress.Reporter, metrics pathcompressionmetrics.Metrics) *zipExtractor {
	return &zipExtractor{
		bufferPool: bufferPool,
		reporter:   reporter,
		metrics:    metrics,
	}
}

func (e *zipExtractor) failure() string { return "failed extracting zip archive" }

func (e *zipExtractor) Extract(ctx context.Context, src string, ws *workspace.Workspace) (retErr error) {
	plog.Info("Extracting zip archive", "source", src, "target", ws.Root())

	r, err := zip.OpenReader(src)
	// ErrInsecurePath comes with a usable reader; names are vetted by the workspace.
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return fmt.Errorf("%w: failed opening zip file: %w", perr.ErrArchiveFormat, err)
	}
	defer r.Close()

	// The central directory gives the entry count up front.
	tracker := e.reporter.Bar("[1/4] extracting data", "data extracted", len(r.File))
	defer func() {
		if retErr != nil {
			tracker.Abort()
			return
		}
		tracker.Finish()
	}()

	bufPtr := e.bufferPool.Get()
	defer e.bufferPool.Put(bufPtr)

	for _, f := range r.File {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if !f.Mode().IsRegular() {
			plog.Debug("Skipping non-regular zip entry", "entry", f.Name, "mode", f.Mode())
			e.metrics.AddEntriesSkipped(1)
			tracker.Increment()
			continue
		}

		if err := e.extractFile(ws, f, *bufPtr); err != nil {
			return err
		}
		tracker.Increment()
	}
	return nil
}

func (e *zipExtractor) extractFile(ws *workspace.Workspace, f *zip.File, buf []byte) error {
	// Vet the name before touching the compressed stream.
	if _, err := workspace.CleanEntryName(ws.Root(), f.Name); err != nil {
		return err
	}

	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("%w: failed opening entry %s: %w", perr.ErrArchiveFormat, f.Name, err)
	}
	defer rc.Close()

	e.metrics.AddCompressedBytes(int64(f.CompressedSize64))
	return writeEntry(ws, f.Name, rc, buf, perr.ErrArchiveFormat, e.metrics)
}

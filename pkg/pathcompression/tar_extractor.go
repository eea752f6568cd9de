package pathcompression

import (
	"archive/tar"
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/paulschiretz/pgl-modpack/pkg/pathcompressionmetrics"
	"github.com/paulschiretz/pgl-modpack/pkg/perr"
	"github.com/paulschiretz/pgl-modpack/pkg/plog"
	"github.com/paulschiretz/pgl-modpack/pkg/pool"
	"github.com/paulschiretz/pgl-modpack/pkg/progress"
	"github.com/paulschiretz/pgl-modpack/pkg/workspace"
)

type tarExtractor struct {
	bufferPool *pool.FixedBufferPool
	reporter   progress.Reporter
	metrics    pathcompressionmetrics.Metrics
}

func newTarExtractor(bufferPool *pool.FixedBufferPool, reporter progress.Reporter, metrics pathcompressionmetrics.Metrics) *tarExtractor {
	return &tarExtractor{
		bufferPool: bufferPool,
		reporter:   reporter,
		metrics:    metrics,
	}
}

func (e *tarExtractor) failure() string { return "failed extracting tar.zst archive" }

func (e *tarExtractor) Extract(ctx context.Context, src string, ws *workspace.Workspace) (retErr error) {
	plog.Info("Extracting tar.zst archive", "source", src, "target", ws.Root())

	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("%w: failed opening archive: %w", perr.ErrIo, err)
	}
	defer f.Close()

	// The entry count is unknown until the stream ends.
	tracker := e.reporter.Spinner("[1/4] extracting data", "data extracted")
	defer func() {
		if retErr != nil {
			tracker.Abort()
			return
		}
		tracker.Finish()
	}()

	cr := &countingReader{r: bufio.NewReader(f)}
	zr, err := zstd.NewReader(cr)
	if err != nil {
		return fmt.Errorf("%w: failed creating zstd reader: %w", perr.ErrArchiveFormat, err)
	}
	defer func() {
		zr.Close()
		e.metrics.AddCompressedBytes(cr.n)
	}()

	bufPtr := e.bufferPool.Get()
	defer e.bufferPool.Put(bufPtr)

	tr := tar.NewReader(zr)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: failed reading tar header: %w", perr.ErrArchiveFormat, err)
		}

		// Directories, links and devices carry no payload worth keeping.
		if header.Typeflag != tar.TypeReg {
			plog.Debug("Skipping non-regular tar entry", "entry", header.Name, "type", string(header.Typeflag))
			e.metrics.AddEntriesSkipped(1)
			continue
		}

		if err := writeEntry(ws, header.Name, tr, *bufPtr, perr.ErrArchiveFormat, e.metrics); err != nil {
			return err
		}
		tracker.Increment()
	}
}

// countingReader counts the bytes pulled from the container file.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

package pathcompression

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
	"github.com/paulschiretz/pgl-modpack/pkg/pathcompressionmetrics"
	"github.com/paulschiretz/pgl-modpack/pkg/perr"
	"github.com/paulschiretz/pgl-modpack/pkg/plog"
	"github.com/paulschiretz/pgl-modpack/pkg/pool"
	"github.com/paulschiretz/pgl-modpack/pkg/progress"
	"github.com/paulschiretz/pgl-modpack/pkg/workspace"
)

type zipCompressor struct {
	ioBufferPool *pool.FixedBufferPool
	ioBufferSize int
	metrics      pathcompressionmetrics.Metrics

	// Pool for flate writers to reduce GC pressure
	zipFlatePool *sync.Pool
}

// Wrapper to return flate writer to pool on close
type pooledFlateWriter struct {
	*flate.Writer
	pool *sync.Pool
}

func (w *pooledFlateWriter) Close() error {
	err := w.Writer.Close()
	w.pool.Put(w.Writer)
	return err
}

func newZipCompressor(ioBufferPool *pool.FixedBufferPool, ioBufferSize int, metrics pathcompressionmetrics.Metrics) *zipCompressor {
	return &zipCompressor{
		ioBufferPool: ioBufferPool,
		ioBufferSize: ioBufferSize,
		metrics:      metrics,
		zipFlatePool: &sync.Pool{
			New: func() any {
				fw, _ := flate.NewWriter(io.Discard, flate.BestCompression)
				return fw
			},
		},
	}
}

func (c *zipCompressor) Compress(ctx context.Context, ws *workspace.Workspace, trgF *os.File, tracker progress.Tracker) (retErr error) {
	mw := &compressMetricWriter{w: trgF, metrics: c.metrics}
	bufWriter := bufio.NewWriterSize(mw, c.ioBufferSize)

	zw := zip.NewWriter(bufWriter)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		fw := c.zipFlatePool.Get().(*flate.Writer)
		fw.Reset(out)
		return &pooledFlateWriter{Writer: fw, pool: c.zipFlatePool}, nil
	})

	// Robust cleanup
	defer func() {
		if err := zw.Close(); err != nil && retErr == nil {
			retErr = fmt.Errorf("%w: zip writer close failed: %w", perr.ErrArchiveWrite, err)
		}
		if err := bufWriter.Flush(); err != nil && retErr == nil {
			retErr = fmt.Errorf("%w: buffer flush failed: %w", perr.ErrArchiveWrite, err)
		}
	}()

	bufPtr := c.ioBufferPool.Get()
	defer c.ioBufferPool.Put(bufPtr)

	for _, rel := range ws.Files() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := c.addFile(ws, zw, rel, *bufPtr); err != nil {
			return err
		}
		tracker.Increment()
	}
	return nil
}

func (c *zipCompressor) addFile(ws *workspace.Workspace, zw *zip.Writer, rel string, buf []byte) error {
	f, info, err := openMember(ws, rel)
	if err != nil {
		return err
	}
	defer f.Close()

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("%w: failed to create zip header for %s: %w", perr.ErrArchiveWrite, rel, err)
	}
	header.Name = rel
	header.Method = zip.Deflate

	w, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("%w: failed to write zip header for %s: %w", perr.ErrArchiveWrite, rel, err)
	}

	mr := &compressMetricReader{r: f, metrics: c.metrics}
	if _, err := io.CopyBuffer(w, mr, buf); err != nil {
		return fmt.Errorf("%w: failed to write %s: %w", perr.ErrArchiveWrite, rel, err)
	}

	plog.Notice("ADD", "file", rel)
	c.metrics.AddEntriesProcessed(1)
	return nil
}

package pathcompression

import (
	"archive/tar"
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/paulschiretz/pgl-modpack/pkg/pathcompressionmetrics"
	"github.com/paulschiretz/pgl-modpack/pkg/perr"
	"github.com/paulschiretz/pgl-modpack/pkg/plog"
	"github.com/paulschiretz/pgl-modpack/pkg/pool"
	"github.com/paulschiretz/pgl-modpack/pkg/progress"
	"github.com/paulschiretz/pgl-modpack/pkg/util"
	"github.com/paulschiretz/pgl-modpack/pkg/workspace"
)

// epoch is the modification time stamped on every tar entry.
var epoch = time.Unix(0, 0).UTC()

// tarCompressor writes a reproducible tar stream compressed as a single zstd
// frame. The tar is spooled to disk first so the frame header can carry the
// exact content size.
type tarCompressor struct {
	ioBufferPool *pool.FixedBufferPool
	ioBufferSize int
	metrics      pathcompressionmetrics.Metrics
}

func newTarCompressor(ioBufferPool *pool.FixedBufferPool, ioBufferSize int, metrics pathcompressionmetrics.Metrics) *tarCompressor {
	return &tarCompressor{
		ioBufferPool: ioBufferPool,
		ioBufferSize: ioBufferSize,
		metrics:      metrics,
	}
}

func (c *tarCompressor) Compress(ctx context.Context, ws *workspace.Workspace, trgF *os.File, tracker progress.Tracker) error {
	spool, err := os.CreateTemp(filepath.Dir(trgF.Name()), "pgl-modpack-*.tar.tmp")
	if err != nil {
		return fmt.Errorf("%w: failed to create tar spool: %w", perr.ErrArchiveWrite, err)
	}
	defer func() {
		spool.Close()
		os.Remove(spool.Name())
	}()

	size, err := c.writeTar(ctx, ws, spool, tracker)
	if err != nil {
		return err
	}

	if _, err := spool.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("%w: failed to rewind tar spool: %w", perr.ErrArchiveWrite, err)
	}
	return c.encode(spool, size, trgF)
}

// writeTar writes every workspace file, in list order, as a regular entry
// with normalized metadata and returns the size of the tar stream.
func (c *tarCompressor) writeTar(ctx context.Context, ws *workspace.Workspace, spool *os.File, tracker progress.Tracker) (int64, error) {
	bufWriter := bufio.NewWriterSize(spool, c.ioBufferSize)
	tw := tar.NewWriter(bufWriter)

	bufPtr := c.ioBufferPool.Get()
	defer c.ioBufferPool.Put(bufPtr)

	for _, rel := range ws.Files() {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		default:
		}

		if err := c.addFile(ws, tw, rel, *bufPtr); err != nil {
			return 0, err
		}
		tracker.Increment()
	}

	if err := tw.Close(); err != nil {
		return 0, fmt.Errorf("%w: tar writer close failed: %w", perr.ErrArchiveWrite, err)
	}
	if err := bufWriter.Flush(); err != nil {
		return 0, fmt.Errorf("%w: buffer flush failed: %w", perr.ErrArchiveWrite, err)
	}

	info, err := spool.Stat()
	if err != nil {
		return 0, fmt.Errorf("%w: failed to stat tar spool: %w", perr.ErrArchiveWrite, err)
	}
	return info.Size(), nil
}

func (c *tarCompressor) addFile(ws *workspace.Workspace, tw *tar.Writer, rel string, buf []byte) error {
	f, info, err := openMember(ws, rel)
	if err != nil {
		return err
	}
	defer f.Close()

	header := &tar.Header{
		Typeflag: tar.TypeReg,
		Name:     rel,
		Size:     info.Size(),
		Mode:     int64(util.UserWritableFilePerms),
		ModTime:  epoch,
	}
	if err := tw.WriteHeader(header); err != nil {
		return fmt.Errorf("%w: failed to write tar header for %s: %w", perr.ErrArchiveWrite, rel, err)
	}

	mr := &compressMetricReader{r: f, metrics: c.metrics}
	if _, err := io.CopyBuffer(tw, mr, buf); err != nil {
		return fmt.Errorf("%w: failed to write %s: %w", perr.ErrArchiveWrite, rel, err)
	}

	plog.Notice("ADD", "file", rel)
	c.metrics.AddEntriesProcessed(1)
	return nil
}

// encode compresses the spooled tar into trgF as one frame with checksum and
// declared content size.
func (c *tarCompressor) encode(spool io.Reader, size int64, trgF *os.File) error {
	mw := &compressMetricWriter{w: trgF, metrics: c.metrics}
	bufWriter := bufio.NewWriterSize(mw, c.ioBufferSize)

	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedBestCompression),
		zstd.WithEncoderCRC(true),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		return fmt.Errorf("%w: failed to create zstd writer: %w", perr.ErrArchiveWrite, err)
	}
	enc.ResetContentSize(bufWriter, size)

	bufPtr := c.ioBufferPool.Get()
	defer c.ioBufferPool.Put(bufPtr)

	if _, err := io.CopyBuffer(enc, spool, *bufPtr); err != nil {
		enc.Close()
		return fmt.Errorf("%w: failed to compress tar stream: %w", perr.ErrArchiveWrite, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("%w: zstd writer close failed: %w", perr.ErrArchiveWrite, err)
	}
	if err := bufWriter.Flush(); err != nil {
		return fmt.Errorf("%w: buffer flush failed: %w", perr.ErrArchiveWrite, err)
	}
	return nil
}

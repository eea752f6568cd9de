package pathcompression

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/paulschiretz/pgl-modpack/pkg/pathcompressionmetrics"
	"github.com/paulschiretz/pgl-modpack/pkg/perr"
	"github.com/paulschiretz/pgl-modpack/pkg/progress"
	"github.com/paulschiretz/pgl-modpack/pkg/workspace"
)

// compressor serializes the workspace file list into trgF.
type compressor interface {
	Compress(ctx context.Context, ws *workspace.Workspace, trgF *os.File, tracker progress.Tracker) error
}

// compressMetricWriter wraps an io.Writer and updates metrics on every write.
type compressMetricWriter struct {
	w       io.Writer
	metrics pathcompressionmetrics.Metrics
}

func (mw *compressMetricWriter) Write(p []byte) (n int, err error) {
	n, err = mw.w.Write(p)
	if n > 0 {
		mw.metrics.AddCompressedBytes(int64(n))
	}
	return
}

// compressMetricReader wraps an io.Reader and updates metrics on every read.
type compressMetricReader struct {
	r       io.Reader
	metrics pathcompressionmetrics.Metrics
}

func (mr *compressMetricReader) Read(p []byte) (n int, err error) {
	n, err = mr.r.Read(p)
	if n > 0 {
		mr.metrics.AddOriginalBytes(int64(n))
	}
	return
}

// openMember opens a workspace file for archiving and returns its info.
func openMember(ws *workspace.Workspace, rel string) (*os.File, os.FileInfo, error) {
	f, err := os.Open(ws.Abs(rel))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: failed opening %s: %w", perr.ErrArchiveWrite, rel, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("%w: failed to stat %s: %w", perr.ErrArchiveWrite, rel, err)
	}
	return f, info, nil
}

// writeArchive runs c into a temp file beside absArchiveFilePath and renames
// it into place once it is complete. No partial archive is ever left behind.
func writeArchive(ctx context.Context, c compressor, ws *workspace.Workspace, absArchiveFilePath string, tracker progress.Tracker) (retErr error) {
	// We create it in the same directory as the target to ensure atomic rename.
	trgF, err := os.CreateTemp(filepath.Dir(absArchiveFilePath), "pgl-modpack-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: failed to create temp archive: %w", perr.ErrArchiveWrite, err)
	}
	tempTrgPath := trgF.Name()

	defer func() {
		if retErr != nil {
			trgF.Close()
			os.Remove(tempTrgPath)
		}
	}()

	if err := c.Compress(ctx, ws, trgF, tracker); err != nil {
		return err
	}

	if err := trgF.Sync(); err != nil {
		return fmt.Errorf("%w: failed to sync temp archive: %w", perr.ErrArchiveWrite, err)
	}
	// Close explicitly to flush to disk before rename
	if err := trgF.Close(); err != nil {
		return fmt.Errorf("%w: failed to close temp archive: %w", perr.ErrArchiveWrite, err)
	}

	if err := os.Rename(tempTrgPath, absArchiveFilePath); err != nil {
		return fmt.Errorf("%w: failed to rename temp archive to final path: %w", perr.ErrArchiveWrite, err)
	}
	return nil
}

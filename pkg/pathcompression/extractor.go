package pathcompression

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/paulschiretz/pgl-modpack/pkg/pathcompressionmetrics"
	"github.com/paulschiretz/pgl-modpack/pkg/perr"
	"github.com/paulschiretz/pgl-modpack/pkg/plog"
	"github.com/paulschiretz/pgl-modpack/pkg/pool"
	"github.com/paulschiretz/pgl-modpack/pkg/progress"
	"github.com/paulschiretz/pgl-modpack/pkg/workspace"
)

// extractor populates a workspace from one kind of source.
type extractor interface {
	Extract(ctx context.Context, src string, ws *workspace.Workspace) error
	// failure is the context prepended to every error of this extractor.
	failure() string
}

// newExtractor picks the extractor for src. Directories are recognized by
// their file type, files only by their name suffix.
func newExtractor(src string, bufferPool *pool.FixedBufferPool, reporter progress.Reporter, metrics pathcompressionmetrics.Metrics, excludes []string) (extractor, error) {
	info, err := os.Stat(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", perr.ErrUnsupportedInput, src, err)
	}

	if info.IsDir() {
		return newDirExtractor(bufferPool, reporter, metrics, excludes), nil
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s is neither a regular file nor a directory", perr.ErrUnsupportedInput, src)
	}

	suffix, ok := hasInputSuffix(filepath.Base(src))
	if !ok {
		return nil, fmt.Errorf("%w: %s does not end in .zip, .tzst or .tar.zst", perr.ErrUnsupportedInput, src)
	}
	if suffix == ".zip" {
		return newZipExtractor(bufferPool, reporter, metrics), nil
	}
	return newTarExtractor(bufferPool, reporter, metrics), nil
}

// extractMetricReader wraps an entry reader, counts bytes and remembers the
// last read error so a failed copy can be blamed on the source or the target.
type extractMetricReader struct {
	r       io.Reader
	metrics pathcompressionmetrics.Metrics
	err     error
}

func (mr *extractMetricReader) Read(p []byte) (n int, err error) {
	n, err = mr.r.Read(p)
	if n > 0 {
		mr.metrics.AddOriginalBytes(int64(n))
	}
	if err != nil && !errors.Is(err, io.EOF) {
		mr.err = err
	}
	return
}

// writeEntry creates name inside ws and copies r into it. Read failures are
// reported as readKind, write failures as perr.ErrIo.
func writeEntry(ws *workspace.Workspace, name string, r io.Reader, buf []byte, readKind error, metrics pathcompressionmetrics.Metrics) (retErr error) {
	outFile, rel, err := ws.Create(name)
	if err != nil {
		return err
	}
	defer func() {
		if err := outFile.Close(); err != nil && retErr == nil {
			retErr = fmt.Errorf("%w: failed closing %s: %w", perr.ErrIo, rel, err)
		}
	}()

	mr := &extractMetricReader{r: r, metrics: metrics}
	if _, err := io.CopyBuffer(outFile, mr, buf); err != nil {
		if mr.err != nil {
			return fmt.Errorf("%w: failed reading entry %s: %w", readKind, rel, err)
		}
		return fmt.Errorf("%w: failed writing %s: %w", perr.ErrIo, rel, err)
	}
	plog.Notice("EXTRACT", "file", rel)
	metrics.AddEntriesProcessed(1)
	return nil
}

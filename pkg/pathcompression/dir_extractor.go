package pathcompression

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/paulschiretz/pgl-modpack/pkg/ignorerules"
	"github.com/paulschiretz/pgl-modpack/pkg/pathcompressionmetrics"
	"github.com/paulschiretz/pgl-modpack/pkg/perr"
	"github.com/paulschiretz/pgl-modpack/pkg/plog"
	"github.com/paulschiretz/pgl-modpack/pkg/pool"
	"github.com/paulschiretz/pgl-modpack/pkg/progress"
	"github.com/paulschiretz/pgl-modpack/pkg/util"
	"github.com/paulschiretz/pgl-modpack/pkg/workspace"
)

// dirExtractor copies a source folder into the workspace. Hidden entries,
// symlinks and anything matched by a .gitignore or .ignore file are left out.
type dirExtractor struct {
	bufferPool *pool.FixedBufferPool
	reporter   progress.Reporter
	metrics    pathcompressionmetrics.Metrics
	// excludes are gitignore patterns applied as if they were the first
	// lines of a root ignore file.
	excludes []string
}

func newDirExtractor(bufferPool *pool.FixedBufferPool, reporter progress.Reporter, metrics pathcompressionmetrics.Metrics, excludes []string) *dirExtractor {
	return &dirExtractor{
		bufferPool: bufferPool,
		reporter:   reporter,
		metrics:    metrics,
		excludes:   excludes,
	}
}

func (e *dirExtractor) failure() string { return "failed copying directory" }

func (e *dirExtractor) Extract(ctx context.Context, src string, ws *workspace.Workspace) (retErr error) {
	plog.Info("Copying folder", "source", src, "target", ws.Root())

	tracker := e.reporter.Spinner("[1/4] copying folder", "folder copied")
	defer func() {
		if retErr != nil {
			tracker.Abort()
			return
		}
		tracker.Finish()
	}()

	bufPtr := e.bufferPool.Get()
	defer e.bufferPool.Put(bufPtr)

	rules := ignorerules.New()
	if len(e.excludes) > 0 {
		if err := rules.Add("", []byte(strings.Join(e.excludes, "\n"))); err != nil {
			return fmt.Errorf("invalid exclude pattern: %w", err)
		}
	}

	return filepath.WalkDir(src, func(absPath string, d fs.DirEntry, walkErr error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if walkErr != nil {
			return fmt.Errorf("%w: failed walking %s: %w", perr.ErrIo, absPath, walkErr)
		}

		relPath, err := filepath.Rel(src, absPath)
		if err != nil {
			return fmt.Errorf("%w: failed getting relative path for %s: %w", perr.ErrIo, absPath, err)
		}
		relPath = util.NormalizePath(relPath)

		if relPath == "." {
			if err := rules.LoadDir(absPath, ""); err != nil {
				return fmt.Errorf("%w: %w", perr.ErrIo, err)
			}
			return nil
		}

		if strings.HasPrefix(d.Name(), ".") {
			return skipEntry(d)
		}
		if d.Type()&fs.ModeSymlink != 0 {
			plog.Debug("Skipping symlink", "path", relPath)
			e.metrics.AddEntriesSkipped(1)
			return nil
		}
		if rules.Ignored(relPath, d.IsDir()) {
			plog.Debug("Skipping ignored entry", "path", relPath)
			e.metrics.AddEntriesSkipped(1)
			return skipEntry(d)
		}

		if d.IsDir() {
			if err := rules.LoadDir(absPath, relPath); err != nil {
				return fmt.Errorf("%w: %w", perr.ErrIo, err)
			}
			return nil
		}
		if !d.Type().IsRegular() {
			plog.Debug("Skipping non-regular file", "path", relPath)
			e.metrics.AddEntriesSkipped(1)
			return nil
		}

		if err := e.copyFile(ws, absPath, relPath, *bufPtr); err != nil {
			return err
		}
		tracker.Increment()
		return nil
	})
}

func (e *dirExtractor) copyFile(ws *workspace.Workspace, absPath, relPath string, buf []byte) error {
	f, err := os.Open(absPath)
	if err != nil {
		return fmt.Errorf("%w: failed opening %s: %w", perr.ErrIo, relPath, err)
	}
	defer f.Close()

	return writeEntry(ws, relPath, f, buf, perr.ErrIo, e.metrics)
}

// skipEntry prunes directories and ignores files.
func skipEntry(d fs.DirEntry) error {
	if d.IsDir() {
		return filepath.SkipDir
	}
	return nil
}

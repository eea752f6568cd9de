// Package assetminify shrinks the game assets held in a workspace.
//
// JSON files are rewritten as compact standard JSON, PNG images are
// recompressed losslessly and Tiled maps and tilesets (tmx, tsx) lose their
// formatting white space. Files are processed on a bounded pool of goroutines;
// the first failure cancels the rest of the pass.
package assetminify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/json"
	"golang.org/x/sync/errgroup"

	"github.com/paulschiretz/pgl-modpack/pkg/limiter"
	"github.com/paulschiretz/pgl-modpack/pkg/metrics"
	"github.com/paulschiretz/pgl-modpack/pkg/perr"
	"github.com/paulschiretz/pgl-modpack/pkg/plog"
	"github.com/paulschiretz/pgl-modpack/pkg/pool"
	"github.com/paulschiretz/pgl-modpack/pkg/progress"
	"github.com/paulschiretz/pgl-modpack/pkg/util"
	"github.com/paulschiretz/pgl-modpack/pkg/workspace"
)

const (
	minReadBuffer = 4 * 1024
	maxReadBuffer = 16 * 1024 * 1024
)

// kind is an asset family with its own transform.
type kind int

const (
	kindNone kind = iota
	kindJSON
	kindPNG
	kindTiles
)

// AssetMinifier holds the state shared across passes.
type AssetMinifier struct {
	m        *minify.M
	readPool *pool.BucketedBufferPool
}

// NewAssetMinifier creates an AssetMinifier.
func NewAssetMinifier() *AssetMinifier {
	m := minify.New()
	m.Add(jsonMediaType, &json.Minifier{KeepNumbers: true})
	return &AssetMinifier{
		m:        m,
		readPool: pool.NewBucketedBufferPool(minReadBuffer, maxReadBuffer),
	}
}

// Minify rewrites every enabled asset in ws in place. Files whose extension
// matches no enabled kind are left untouched. The first failing file stops
// the pass and its error, naming the file, is returned.
func (a *AssetMinifier) Minify(ctx context.Context, ws *workspace.Workspace, p *Plan, reporter progress.Reporter) error {
	var m metrics.Metrics
	if p.Metrics {
		m = &metrics.MinifyMetrics{}
	} else {
		m = &metrics.NoopMetrics{}
	}

	workers := p.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	var mem *limiter.Memory
	if p.MemoryLimit > 0 {
		mem = limiter.NewMemory(p.MemoryLimit)
	}

	plog.Info("Minifying files", "files", ws.Len(), "workers", workers, "json", p.JSON, "images", p.Images, "tiles", p.Tiles)
	tracker := reporter.Bar("[2/4] minifying files", "files minified", ws.Len())

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, rel := range ws.Files() {
		if gctx.Err() != nil {
			break
		}

		k := p.kindOf(rel)
		if k == kindNone {
			m.AddFilesPassedThrough(1)
			tracker.Increment()
			continue
		}

		g.Go(func() error {
			// Files queued behind a failure are skipped.
			if err := gctx.Err(); err != nil {
				return err
			}
			if mem != nil {
				granted, err := reserve(gctx, mem, ws.Abs(rel))
				if err != nil {
					if gctx.Err() != nil {
						return err
					}
					return wrapFileErr(k, rel, fmt.Errorf("%w: %w", perr.ErrIo, err))
				}
				defer mem.Release(granted)
			}
			if err := a.minifyFile(ws, rel, k, m); err != nil {
				return err
			}
			tracker.Increment()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		tracker.Abort()
		return fmt.Errorf("failed minifying files: %w", err)
	}
	// The loop may have stopped on a cancelled parent without any goroutine failing.
	if err := ctx.Err(); err != nil {
		tracker.Abort()
		return fmt.Errorf("failed minifying files: %w", err)
	}
	tracker.Finish()
	m.Log()
	return nil
}

// kindOf maps a file to its transform. Extensions are case-sensitive.
func (p *Plan) kindOf(rel string) kind {
	switch util.Ext(rel) {
	case "json":
		if p.JSON {
			return kindJSON
		}
	case "png":
		if p.Images {
			return kindPNG
		}
	case "tmx", "tsx":
		if p.Tiles {
			return kindTiles
		}
	}
	return kindNone
}

func (a *AssetMinifier) minifyFile(ws *workspace.Workspace, rel string, k kind, m metrics.Metrics) error {
	abs := ws.Abs(rel)

	bufPtr, err := a.readFile(abs)
	if err != nil {
		return wrapFileErr(k, rel, fmt.Errorf("%w: %w", perr.ErrIo, err))
	}
	defer a.readPool.Put(bufPtr)
	data := *bufPtr

	var out []byte
	switch k {
	case kindJSON:
		out, err = minifyJSON(a.m, rel, data)
	case kindPNG:
		out, err = minifyPNG(data)
	case kindTiles:
		out, err = minifyXML(data)
	}
	if err != nil {
		return wrapFileErr(k, rel, err)
	}

	m.AddBytesBefore(int64(len(data)))
	m.AddBytesAfter(int64(len(out)))
	if bytes.Equal(out, data) {
		m.AddFilesUnchanged(1)
		plog.Debug("MINIFY unchanged", "file", rel)
		return nil
	}

	if err := writeFileAtomic(abs, out); err != nil {
		return wrapFileErr(k, rel, fmt.Errorf("%w: %w", perr.ErrIo, err))
	}
	m.AddFilesMinified(1)
	plog.Notice("MINIFY", "file", rel, "before", len(data), "after", len(out))
	return nil
}

// reserve blocks until minifying abs fits the memory budget. The input and
// the output buffer are held at the same time.
func reserve(ctx context.Context, mem *limiter.Memory, abs string) (int64, error) {
	info, err := os.Stat(abs)
	if err != nil {
		return 0, err
	}
	return mem.Acquire(ctx, 2*info.Size())
}

// readFile reads abs into a pooled buffer of exactly the file's size.
func (a *AssetMinifier) readFile(abs string) (*[]byte, error) {
	f, err := os.Open(abs)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	bufPtr := a.readPool.Get(info.Size())
	if _, err := io.ReadFull(f, *bufPtr); err != nil {
		a.readPool.Put(bufPtr)
		return nil, err
	}
	return bufPtr, nil
}

func wrapFileErr(k kind, rel string, err error) error {
	switch k {
	case kindJSON:
		return fmt.Errorf("failed minifying json file %q: %w", rel, err)
	case kindPNG:
		return fmt.Errorf("failed minifying png file %q: %w", rel, err)
	default:
		return fmt.Errorf("failed minifying tmx/tsx file %q: %w", rel, err)
	}
}

// writeFileAtomic replaces abs with data through a temp file in the same
// directory, so a failed write never leaves a truncated asset.
func writeFileAtomic(abs string, data []byte) (retErr error) {
	tmp, err := os.CreateTemp(filepath.Dir(abs), "pgl-modpack-*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Chmod(util.UserWritableFilePerms); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), abs)
}

package engine_test

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paulschiretz/pgl-modpack/pkg/config"
	"github.com/paulschiretz/pgl-modpack/pkg/engine"
	"github.com/paulschiretz/pgl-modpack/pkg/lockfile"
	"github.com/paulschiretz/pgl-modpack/pkg/pathcompression"
	"github.com/paulschiretz/pgl-modpack/pkg/perr"
	"github.com/paulschiretz/pgl-modpack/pkg/planner"
	"github.com/paulschiretz/pgl-modpack/pkg/progress"
)

func uncompressedPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 16, 16))
	for i := range img.Pix {
		img.Pix[i] = uint8(i % 5)
	}
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.NoCompression}
	require.NoError(t, enc.Encode(&buf, img))
	return buf.Bytes()
}

func writeZip(t *testing.T, path string, names []string, files map[string][]byte) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, name := range names {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(files[name])
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
}

func bundle(t *testing.T) ([]string, map[string][]byte) {
	files := map[string][]byte{
		"mod.json":            []byte("{\n  \"name\": \"demo\",\n  \"version\": \"1.0.0\",\n}\n"),
		"art/sprite.png":      uncompressedPNG(t),
		"maps/level.tmx":      []byte("<map>\n  <layer/>\n</map>\n"),
		"assets/i18n/en.json": []byte(`{ "hello" : "world" }`),
		"README":              []byte("plain text\n"),
	}
	return []string{"mod.json", "art/sprite.png", "maps/level.tmx", "assets/i18n/en.json", "README"}, files
}

// newPlan builds a plan for src whose scratch space is an isolated temp dir.
func newPlan(t *testing.T, src string, mod func(*config.Config)) (*planner.RunPlan, string) {
	t.Helper()
	scratch := t.TempDir()
	cfg := config.NewDefault()
	cfg.Source = src
	cfg.Engine.TempDir = scratch
	if mod != nil {
		mod(&cfg)
	}
	require.NoError(t, cfg.Validate())
	p, err := planner.GenerateRunPlan(cfg)
	require.NoError(t, err)
	return p, scratch
}

func readArchive(t *testing.T, path string) map[string][]byte {
	t.Helper()
	ws, err := pathcompression.NewPathCompressor(0).Extract(context.Background(), path,
		&pathcompression.Plan{TempDir: t.TempDir()}, progress.NoopReporter{})
	require.NoError(t, err)
	defer ws.Dispose()

	out := make(map[string][]byte)
	for _, rel := range ws.Files() {
		b, err := os.ReadFile(ws.Abs(rel))
		require.NoError(t, err)
		out[rel] = b
	}
	return out
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "scratch space must be cleaned up")
}

func TestExecute_Zip(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	src := filepath.Join(dir, "demo-1.0.0.zip")
	names, files := bundle(t)
	writeZip(t, src, names, files)
	plan, scratch := newPlan(t, src, nil)
	var rec progress.Recorder

	// Act
	out, err := engine.NewRunner(&rec, 0).Execute(context.Background(), plan)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "demo-1.0.0.out.tzst"), out)

	got := readArchive(t, out)
	assert.Len(t, got, len(names))
	assert.Equal(t, `{"name":"demo","version":"1.0.0"}`, string(got["mod.json"]))
	assert.Equal(t, `{"hello":"world"}`, string(got["assets/i18n/en.json"]))
	assert.Equal(t, `<map><layer/></map>`, string(got["maps/level.tmx"]))
	assert.Equal(t, files["README"], got["README"])
	assert.Less(t, len(got["art/sprite.png"]), len(files["art/sprite.png"]))

	assert.Equal(t, []string{
		"[1/4] extracting data",
		"[2/4] minifying files",
		"[3/4] creating archive",
		"[4/4] cleaning up",
	}, rec.Titles())
	for _, s := range rec.Steps() {
		assert.True(t, s.Finished(), s.Title)
	}
	assertEmptyDir(t, scratch)
	assert.NoFileExists(t, lockfile.PathFor(out))
}

func TestExecute_DirToZip(t *testing.T) {
	// Arrange
	parent := t.TempDir()
	src := filepath.Join(parent, "demo")
	names, files := bundle(t)
	for _, name := range names {
		path := filepath.Join(src, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, files[name], 0644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(src, ".gitignore"), []byte("README\n"), 0644))
	plan, scratch := newPlan(t, src, func(c *config.Config) {
		c.Format = "zip"
		c.Minify.Images = false
	})
	var rec progress.Recorder

	// Act
	out, err := engine.NewRunner(&rec, 64).Execute(context.Background(), plan)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(parent, "demo.out.zip"), out)

	got := readArchive(t, out)
	assert.NotContains(t, got, "README")
	assert.NotContains(t, got, ".gitignore")
	assert.Equal(t, files["art/sprite.png"], got["art/sprite.png"])
	assert.Equal(t, `{"name":"demo","version":"1.0.0"}`, string(got["mod.json"]))

	assert.Equal(t, "[1/4] copying folder", rec.Titles()[0])
	assert.Len(t, rec.Titles(), 4)
	assertEmptyDir(t, scratch)
}

func TestExecute_CorruptPNGLeavesNoArchive(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	src := filepath.Join(dir, "demo.zip")
	names, files := bundle(t)
	names = append(names, "art/broken.png")
	files["art/broken.png"] = []byte("\x89PNG\r\n\x1a\nnot really")
	writeZip(t, src, names, files)
	plan, scratch := newPlan(t, src, nil)
	var rec progress.Recorder

	// Act
	out, err := engine.NewRunner(&rec, 0).Execute(context.Background(), plan)

	// Assert
	require.Error(t, err)
	assert.Empty(t, out)
	assert.ErrorIs(t, err, perr.ErrImageCodec)
	assert.Contains(t, err.Error(), "failed minifying files")

	entries, readErr := os.ReadDir(dir)
	require.NoError(t, readErr)
	require.Len(t, entries, 1, "only the input may remain next to it")
	assert.Equal(t, "demo.zip", entries[0].Name())

	// The archive step never started but cleanup still ran.
	assert.Equal(t, []string{
		"[1/4] extracting data",
		"[2/4] minifying files",
		"[4/4] cleaning up",
	}, rec.Titles())
	assertEmptyDir(t, scratch)
}

func TestExecute_UnsupportedInput(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(src, []byte("hi"), 0644))

	for name, path := range map[string]string{
		"Unknown suffix": src,
		"Missing path":   filepath.Join(dir, "missing.zip"),
	} {
		t.Run(name, func(t *testing.T) {
			plan, _ := newPlan(t, path, nil)
			var rec progress.Recorder

			_, err := engine.NewRunner(&rec, 0).Execute(context.Background(), plan)

			require.ErrorIs(t, err, perr.ErrUnsupportedInput)
			assert.Empty(t, rec.Steps())
		})
	}
}

func TestExecute_Cancelled(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "demo.zip")
	names, files := bundle(t)
	writeZip(t, src, names, files)
	plan, scratch := newPlan(t, src, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.NewRunner(nil, 0).Execute(ctx, plan)

	require.ErrorIs(t, err, context.Canceled)
	assertEmptyDir(t, scratch)
}

func TestExecute_OutputLocked(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "demo.zip")
	names, files := bundle(t)
	writeZip(t, src, names, files)
	plan, scratch := newPlan(t, src, nil)

	held, err := lockfile.Acquire(context.Background(), pathcompression.OutputPath(src, pathcompression.Zstd), "other.zip")
	require.NoError(t, err)
	defer held.Release()
	var rec progress.Recorder

	_, err = engine.NewRunner(&rec, 0).Execute(context.Background(), plan)

	var locked *lockfile.ErrLocked
	require.ErrorAs(t, err, &locked)
	assert.Equal(t, "other.zip", locked.Owner.Source)
	assert.Empty(t, rec.Steps())
	assertEmptyDir(t, scratch)
	assert.NoFileExists(t, pathcompression.OutputPath(src, pathcompression.Zstd))
}

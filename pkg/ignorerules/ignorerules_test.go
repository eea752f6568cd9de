package ignorerules_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/woozymasta/pathrules"

	"github.com/paulschiretz/pgl-modpack/pkg/ignorerules"
)

func TestParseLines(t *testing.T) {
	content := []byte("# build output\r\n" +
		"*.log\n" +
		"\n" +
		"build/\n" +
		"/dist\n" +
		"assets/raw\n" +
		"!keep.log\n" +
		"\\#notacomment\n" +
		"trailing   \n")

	testCases := []struct {
		name   string
		relDir string
		want   []pathrules.Rule
	}{
		{
			name:   "Root directory",
			relDir: "",
			want: []pathrules.Rule{
				{Action: pathrules.ActionExclude, Pattern: "*.log"},
				{Action: pathrules.ActionExclude, Pattern: "build/"},
				{Action: pathrules.ActionExclude, Pattern: "/dist"},
				{Action: pathrules.ActionExclude, Pattern: "/assets/raw"},
				{Action: pathrules.ActionInclude, Pattern: "keep.log"},
				{Action: pathrules.ActionExclude, Pattern: "#notacomment"},
				{Action: pathrules.ActionExclude, Pattern: "trailing"},
			},
		},
		{
			name:   "Nested directory",
			relDir: "mods/core/",
			want: []pathrules.Rule{
				{Action: pathrules.ActionExclude, Pattern: "mods/core/**/*.log"},
				{Action: pathrules.ActionExclude, Pattern: "mods/core/**/build/"},
				{Action: pathrules.ActionExclude, Pattern: "mods/core/dist"},
				{Action: pathrules.ActionExclude, Pattern: "mods/core/assets/raw"},
				{Action: pathrules.ActionInclude, Pattern: "mods/core/**/keep.log"},
				{Action: pathrules.ActionExclude, Pattern: "mods/core/**/#notacomment"},
				{Action: pathrules.ActionExclude, Pattern: "mods/core/**/trailing"},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ignorerules.ParseLines(tc.relDir, content))
		})
	}
}

func TestSet_Ignored(t *testing.T) {
	// Arrange
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte("*.log\nbuild/\n!keep.log\n"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", ".ignore"), []byte("secret.txt\n"), 0644))

	set := ignorerules.New()
	require.NoError(t, set.LoadDir(root, ""))
	require.NoError(t, set.LoadDir(filepath.Join(root, "sub"), "sub"))

	testCases := []struct {
		path  string
		isDir bool
		want  bool
	}{
		{"debug.log", false, true},
		{"keep.log", false, false},
		{"build", true, true},
		{"mod.json", false, false},
		{"secret.txt", false, false},
		{"sub/secret.txt", false, true},
		{"sub/deeper/secret.txt", false, true},
		{"sub/visible.txt", false, false},
	}

	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			assert.Equal(t, tc.want, set.Ignored(tc.path, tc.isDir))
		})
	}
}

func TestSet_EmptyIgnoresNothing(t *testing.T) {
	set := ignorerules.New()
	require.NoError(t, set.LoadDir(t.TempDir(), ""))
	assert.Zero(t, set.Len())
	assert.False(t, set.Ignored("anything.json", false))
}

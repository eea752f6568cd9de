package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePath(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "Already normalized", input: "data/items.json", expected: "data/items.json"},
		{name: "Backslash separators", input: "data\\i18n\\ja.json", expected: "data/i18n/ja.json"},
		{name: "Redundant elements", input: "./data//maps/../tiles/a.tsx", expected: "data/tiles/a.tsx"},
		{name: "Escaping path stays escaping", input: "../../evil", expected: "../../evil"},
		{name: "Empty input", input: "", expected: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, NormalizePath(tc.input))
		})
	}
}

func TestIsLocalPath(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected bool
	}{
		{name: "Plain file", input: "mod.json", expected: true},
		{name: "Nested file", input: "assets/images/a.png", expected: true},
		{name: "Dot dot prefix in file name", input: "..hidden", expected: true},
		{name: "Parent escape", input: "../evil", expected: false},
		{name: "Only parent", input: "..", expected: false},
		{name: "Absolute path", input: "/etc/passwd", expected: false},
		{name: "Drive letter", input: "C:/Windows/evil.dll", expected: false},
		{name: "Root itself", input: ".", expected: false},
		{name: "Empty", input: "", expected: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, IsLocalPath(tc.input))
		})
	}
}

func TestFileStemAndExt(t *testing.T) {
	testCases := []struct {
		input string
		stem  string
		ext   string
	}{
		{input: "i18n/ja.json", stem: "ja", ext: "json"},
		{input: "maps/level.tmx", stem: "level", ext: "tmx"},
		{input: "README", stem: "README", ext: ""},
		{input: "archive.tar.zst", stem: "archive.tar", ext: "zst"},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.stem, FileStem(tc.input))
			assert.Equal(t, tc.ext, Ext(tc.input))
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory available")
	}

	got, err := ExpandPath("~/mods/pack.zip")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "mods/pack.zip"), got)

	got, err = ExpandPath("/abs/pack.zip")
	require.NoError(t, err)
	assert.Equal(t, "/abs/pack.zip", got, "absolute paths pass through unchanged")
}

func TestInvertMap(t *testing.T) {
	in := map[string]int{"zstd": 1, "zip": 2}
	assert.Equal(t, map[int]string{1: "zstd", 2: "zip"}, InvertMap(in))
}

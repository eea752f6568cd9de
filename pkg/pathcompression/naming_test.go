package pathcompression

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputBaseName(t *testing.T) {
	testCases := []struct {
		input string
		want  string
	}{
		{"/", "file.out"},
		{".", "file.out"},
		{"file", "file.out"},
		{"file.zip", "file.out"},
		{"file.tzst", "file.out"},
		{"file.tar.zst", "file.out"},
		{"file-1.0.0", "file-1.0.0.out"},
		{"file-1.0.0.zip", "file-1.0.0.out"},
		{"file-1.0.0.tzst", "file-1.0.0.out"},
		{"file-1.0.0.tar.zst", "file-1.0.0.out"},
		{"/temp/file-1.0.0.zip", "file-1.0.0.out"},
		{"mods/core/", "core.out"},
		{"file.out.tzst", "file.out.out"},
		{".zip", ".out"},
		{"/mods/.tar.zst", ".out"},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.want, OutputBaseName(tc.input))
		})
	}
}

func TestOutputPath(t *testing.T) {
	testCases := []struct {
		input  string
		format Format
		want   string
	}{
		{"file.zip", Zstd, "file.out.tzst"},
		{"file.tar.zst", Zip, "file.out.zip"},
		{"file-1.0.0.tar.zst", Zstd, "file-1.0.0.out.tzst"},
		{filepath.FromSlash("/temp/file-1.0.0.zip"), Zstd, filepath.FromSlash("/temp/file-1.0.0.out.tzst")},
		{filepath.FromSlash("/temp/file-1.0.0.tzst"), Zip, filepath.FromSlash("/temp/file-1.0.0.out.zip")},
		{filepath.FromSlash("/temp/mod"), Zip, filepath.FromSlash("/temp/mod.out.zip")},
	}

	for _, tc := range testCases {
		t.Run(tc.input+"_"+tc.format.String(), func(t *testing.T) {
			assert.Equal(t, tc.want, OutputPath(tc.input, tc.format))
		})
	}
}

func TestParseFormat(t *testing.T) {
	testCases := []struct {
		input   string
		want    Format
		wantExt string
		wantErr bool
	}{
		{"zstd", Zstd, "tzst", false},
		{"zip", Zip, "zip", false},
		{"tar.gz", "", "", true},
		{"", "", "", true},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseFormat(tc.input)
			if tc.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.wantExt, got.Extension())
		})
	}
}

package flagparse

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExcludeList(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected []string
	}{
		{"Simple List", "a,b,c", []string{"a", "b", "c"}},
		{"List with Spaces", " a , b, c ", []string{"a", "b", "c"}},
		{"Empty String", "", nil},
		{"Quoted Item with Spaces", "'item with spaces',b", []string{"item with spaces", "b"}},
		{"Quoted Item with Comma", "'a,b',c", []string{"a,b", "c"}},
		{"Mixed Quoted and Unquoted", "a,'b,c',d", []string{"a", "b,c", "d"}},
		{"Unmatched Quote", "'a,b", []string{"a,b"}},
		{"Multiple Quoted Items", "'a b','c d'", []string{"a b", "c d"}},
		{"Double Quoted Item with Spaces", "\"item with spaces\",b", []string{"item with spaces", "b"}},
		{"Nested Quotes", "'a \"b\" c',d", []string{"a \"b\" c", "d"}},
		{"Nested Quotes 2", "\"it's a test\",d", []string{"it's a test", "d"}},
		{"Windows Path with Backslashes", `C:\Users\Test,D:\Data`, []string{`C:\Users\Test`, `D:\Data`}},
		{"Unix Path with Slashes", "/home/user/test,/var/log", []string{"/home/user/test", "/var/log"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := ParseExcludeList(tc.input)

			// An empty input may yield either a nil or an empty slice.
			if len(tc.expected) == 0 {
				assert.Empty(t, result)
				return
			}
			assert.Equal(t, tc.expected, result)
		})
	}
}

func TestFlags_Overrides(t *testing.T) {
	testCases := []struct {
		name     string
		args     []string
		expected map[string]any
	}{
		{"No Flags", nil, map[string]any{}},
		{
			"Explicit Default Values Still Override",
			[]string{"--format=zstd", "--workers", "0", "--memory-limit-mb=512"},
			map[string]any{"format": "zstd", "engine.workers": 0, "engine.memory_limit_mb": 512},
		},
		{
			"Minifier Switches",
			[]string{"--no-json", "--no-tiles"},
			map[string]any{"minify.json": false, "minify.tiles": false},
		},
		{
			"Globals",
			[]string{"-q", "--log-level", "debug", "--progress=log", "--metrics=false"},
			map[string]any{"quiet": true, "log_level": "debug", "progress": "log", "engine.metrics": false},
		},
		{
			"Engine",
			[]string{"--buffer-size-kb", "64", "--temp-dir", "/scratch", "--exclude", "*.psd,'docs/a b.md'"},
			map[string]any{"engine.buffer_size_kb": 64, "engine.temp_dir": "/scratch", "exclude": []string{"*.psd", "docs/a b.md"}},
		},
		{
			"Config File Is Not An Override",
			[]string{"--config", "custom.toml"},
			map[string]any{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
			flags := Register(fs)
			require.NoError(t, fs.Parse(tc.args))

			assert.Equal(t, tc.expected, flags.Overrides())
		})
	}
}

func TestFlags_ConfigFile(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags := Register(fs)
	require.NoError(t, fs.Parse([]string{"--config", "custom.toml"}))

	assert.Equal(t, "custom.toml", flags.ConfigFile())
}

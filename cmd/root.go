// Package cmd wires the pgl-modpack command line onto the engine.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/paulschiretz/pgl-modpack/pkg/buildinfo"
	"github.com/paulschiretz/pgl-modpack/pkg/flagparse"
)

// NewRootCommand builds the pgl-modpack command tree.
func NewRootCommand() *cobra.Command {
	var flags *flagparse.Flags

	root := &cobra.Command{
		Use:   buildinfo.Command + " [flags] <path>",
		Short: "Repackage a game mod bundle with minified assets",
		Long: `pgl-modpack extracts a mod bundle (a .zip, a .tzst/.tar.zst or a folder),
minifies its JSON files, PNG images and Tiled maps and writes the result as
<name>.out.tzst (or .out.zip) next to the input.

Folder sources honor .gitignore and .ignore files and skip hidden entries.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(c *cobra.Command, args []string) error {
			return RunRepack(c.Context(), args[0], flags.ConfigFile(), flags.Overrides())
		},
	}
	flags = flagparse.Register(root.Flags())

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the application version",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return RunVersion(c.OutOrStdout())
		},
	})
	return root
}

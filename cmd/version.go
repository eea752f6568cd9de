package cmd

import (
	"fmt"
	"io"

	"github.com/paulschiretz/pgl-modpack/pkg/buildinfo"
)

// RunVersion prints the application version.
func RunVersion(w io.Writer) error {
	_, err := fmt.Fprintf(w, "%s version %s\n", buildinfo.Name, buildinfo.Version)
	return err
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/paulschiretz/pgl-modpack/cmd"
)

func main() {
	// Cancel the run on an interrupt signal (like Ctrl+C).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cmd.NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, cmd.FormatErrorChain(err))
		stop()
		os.Exit(1)
	}
}

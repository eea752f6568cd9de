package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/mattn/go-isatty"

	"github.com/paulschiretz/pgl-modpack/pkg/buildinfo"
	"github.com/paulschiretz/pgl-modpack/pkg/config"
	"github.com/paulschiretz/pgl-modpack/pkg/engine"
	"github.com/paulschiretz/pgl-modpack/pkg/planner"
	"github.com/paulschiretz/pgl-modpack/pkg/plog"
	"github.com/paulschiretz/pgl-modpack/pkg/progress"
)

// logProgressInterval is how often LogReporter reports a running step.
const logProgressInterval = 2 * time.Second

// RunRepack handles the logic for repackaging the bundle at source.
func RunRepack(ctx context.Context, source, configFile string, overrides map[string]any) error {
	workDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	// The positional argument is always the source.
	flagMap := make(map[string]any, len(overrides)+1)
	for k, v := range overrides {
		flagMap[k] = v
	}
	flagMap["source"] = source

	runConfig, err := config.Load(config.LoadOptions{
		ConfigFile:    configFile,
		WorkDir:       workDir,
		UserConfigDir: filepath.Join(xdg.ConfigHome, buildinfo.Command),
		Overrides:     flagMap,
	})
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// CRITICAL: Validate the config for the run
	if err := runConfig.Validate(); err != nil {
		return err
	}

	plog.SetLevel(plog.LevelFromString(runConfig.LogLevel))
	plog.SetQuiet(runConfig.Quiet)

	runConfig.LogSummary()

	runPlan, err := planner.GenerateRunPlan(runConfig)
	if err != nil {
		return err
	}

	mode, err := progress.ParseMode(runConfig.Progress)
	if err != nil {
		return err
	}
	runner := engine.NewRunner(newReporter(mode, os.Stdout), runPlan.BufferSizeKB)

	startTime := time.Now()
	outPath, err := runner.Execute(ctx, runPlan)
	duration := time.Since(startTime).Round(time.Millisecond)
	if err != nil {
		return err // The error chain is printed by main()
	}
	plog.Info(buildinfo.Name+" finished successfully.", "output", outPath, "duration", duration)
	return nil
}

// newReporter resolves mode to a Reporter. Auto picks live bars for an
// interactive terminal and periodic log lines otherwise.
func newReporter(mode progress.Mode, out *os.File) progress.Reporter {
	if mode == progress.Auto {
		if isTerminal(out) {
			mode = progress.Terminal
		} else {
			mode = progress.Log
		}
	}

	switch mode {
	case progress.Terminal:
		return progress.NewTerminalReporter(out)
	case progress.Log:
		return progress.NewLogReporter(logProgressInterval)
	default:
		return progress.NoopReporter{}
	}
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/vk/compkit/internal/app"
	"github.com/vk/compkit/internal/cli"
	"github.com/vk/compkit/internal/ctxlog"
	"github.com/vk/compkit/internal/hcl"
)

// main is the entrypoint for the compkit application.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Stdout, os.Stderr, os.Args[1:])
	stop()

	// The real main function handles errors and exit codes.
	if err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and error
// handling. Command output goes to outW, logs to logW.
func run(ctx context.Context, outW, logW io.Writer, args []string) error {
	inv, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	// Instantiate the concrete HCL loader to pass to the app.
	loader := hcl.NewLoader()

	if inv.Mode == cli.ModeManifest {
		ctx = ctxlog.WithLogger(ctx, slog.New(slog.NewTextHandler(logW, nil)))
		model, err := loader.Load(ctx, inv.Config.ManifestPaths...)
		if err != nil {
			return fmt.Errorf("failed to load manifest: %w", err)
		}
		out, err := hcl.Render(model)
		if err != nil {
			return err
		}
		_, err = outW.Write(out)
		return err
	}

	compkitApp, err := app.NewApp(logW, inv.Config, loader)
	if err != nil {
		return err
	}
	defer compkitApp.Close()

	if inv.Mode == cli.ModeDescribe {
		enc := json.NewEncoder(outW)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"enabled":    compkitApp.Framework().Enabled(),
			"components": compkitApp.Framework().Describe(),
			"gates":      compkitApp.Gates(),
		})
	}

	return compkitApp.Run(ctx)
}

// Package main is the entry point for the pensa command-line client.
//
// The main package stays minimal. Its job is to:
//  1. Read configuration (.env file, environment variables)
//  2. Create dependencies (the logger)
//  3. Hand over to internal/cli, which parses flags and runs the command
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pensaconnect/connect/internal/cli"
	"github.com/pensaconnect/connect/internal/config"
)

func main() {
	os.Exit(run())
}

func run() int {
	// === 1. READ CONFIGURATION ===
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return 1
	}

	// === 2. SET UP LOGGING ===
	// Logs go to stderr so they never mix with command output on stdout
	// (`pensa prayers list --json | jq` keeps working with PENSA_LOG_LEVEL=debug).
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// === 3. RUN ===
	// Ctrl+C cancels the context, which aborts the in-flight HTTP request.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return cli.Execute(ctx, cli.Options{
		Config: cfg,
		Logger: logger,
		Out:    os.Stdout,
	}, os.Args[1:], os.Stderr)
}

package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/iambrandonn/dailyorch/pkg/testharness"
)

func main() {
	scriptFile := flag.String("script", "", "Path to response script file (YAML or JSON)")
	flag.Parse()

	// Setup logger (stderr for diagnostics, stdout for protocol)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	logger.Info("mock bridge starting", "pid", os.Getpid(), "ppid", os.Getppid())

	game := testharness.NewFakeGame()
	if *scriptFile != "" {
		script, err := loadScript(*scriptFile)
		if err != nil {
			logger.Error("failed to load script", "error", err)
			os.Exit(1)
		}
		script.install(game)
		logger.Info("loaded script", "path", *scriptFile, "commands", len(script.Responses), "pushes", len(script.Pushes))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := game.Serve(ctx, os.Stdin, os.Stdout, logger); err != nil && ctx.Err() == nil {
		logger.Error("mock bridge failed", "error", err)
		os.Exit(1)
	}

	logger.Info("mock bridge stopped", "requests", len(game.Calls()))
}

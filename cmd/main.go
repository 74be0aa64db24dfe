package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/studyx/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	configPath := os.Getenv("STUDYX_CONFIG")
	if configPath == "" {
		configPath = "config.toml"
	}

	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if loadedConfig, err := shared.LoadConfig(configPath); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("failed to load config, using defaults", "path", configPath, "error", err)
		}
	}

	if err := config.Validate(); err != nil {
		logger.Fatal("invalid configuration", "path", configPath, "error", err)
	}

	level, err := shared.ParseLevel(config.Log.Level)
	if err != nil {
		logger.Warn("unknown log level, using info", "error", err)
	}
	shared.SetLogLevel(logger, level)

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Logger:     logger,
	})
	defer runner.Close()

	app := &cli.Command{
		Name:     "studyx",
		Usage:    "Save, fetch and follow study tasks and progress",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			runner.Close()
			logger.Fatalf("application error: %v", err)
		}
	}
}

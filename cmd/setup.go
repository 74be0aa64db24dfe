package main

import (
	"context"
	"os"

	"github.com/desertthunder/studyx/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the example configuration to the --config path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if err := shared.CreateConfigFile(configPath); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", configPath)
	r.writePlain("✓ Wrote %s\n", configPath)
	r.writePlainln("Next steps:")
	r.writePlain("1. Set backend.base_url (and backend.token if the backend needs one)\n")
	r.writePlain("2. Run 'studyx progress show' to check the connection\n")
	return nil
}

// SetupDatabase initializes the development database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd.String("config"))

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := shared.OpenDatabase(config.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	r.logger.Infof("setup complete for database: %v", config.Database.Path)
	r.writePlain("✓ Database ready at %s\n", config.Database.Path)
	return nil
}

// loadConfig reads configPath, falling back to the runner's config when the file is missing or invalid.
func (r *Runner) loadConfig(configPath string) *shared.Config {
	if configPath == "" || configPath == r.configPath {
		return r.config
	}
	if _, err := os.Stat(configPath); err != nil {
		r.logger.Warn("config file not found, using current config", "path", configPath)
		return r.config
	}

	config, err := shared.LoadConfig(configPath)
	if err != nil {
		r.logger.Warn("failed to load config, using current config", "path", configPath, "error", err)
		return r.config
	}
	return config
}

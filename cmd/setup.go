package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/wlx/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the config template to the --config path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	if _, err := os.Stat(r.configPath); err == nil {
		r.logger.Info("config file already exists", "path", r.configPath)
		return r.writePlain("Config already exists at %s\n", r.configPath)
	}

	if err := shared.CreateConfigFile(r.configPath); err != nil {
		return err
	}
	r.logger.Info("config file created", "path", r.configPath)

	r.writePlain("✓ Config written to %s\n", r.configPath)
	r.writePlainln("Next steps:")
	r.writePlain("1. Fill in [credentials.oauth], [credentials.omdb] and [credentials.completion]\n")
	r.writePlain("2. Run 'wlx setup database'\n")
	return r.writePlain("3. Run 'wlx auth login'\n")
}

// SetupDatabase initializes the database and runs migrations.
//
// A missing config file is created from the template first.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	if _, err := os.Stat(r.configPath); err != nil {
		r.logger.Info("config file not found, creating from template", "path", r.configPath)
		if err := shared.CreateConfigFile(r.configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
		} else if config, err := shared.LoadConfig(r.configPath); err == nil {
			r.config = config
		}
	}

	r.logger.Info("initializing database", "path", r.cfg().Database.Path)
	if _, err := r.database(ctx); err != nil {
		return fmt.Errorf("failed to set up database: %w", err)
	}

	r.logger.Infof("setup complete for database: %v", r.cfg().Database.Path)
	return r.writePlain("✓ Database ready at %s\n", r.cfg().Database.Path)
}

// MigrationsStatus lists every migration and whether it has been applied.
func (r *Runner) MigrationsStatus(ctx context.Context, cmd *cli.Command) error {
	db, err := r.database(ctx)
	if err != nil {
		return err
	}

	statuses, err := shared.Migrations(ctx, db)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(statuses, cmd.Bool("pretty"))
	}

	for _, s := range statuses {
		mark := "pending"
		if s.Applied {
			mark = "applied"
		}
		r.writePlain("%04d  %-30s %s\n", s.Version, s.Name, mark)
	}
	return nil
}

// MigrationsRollback reverts the most recent migration.
func (r *Runner) MigrationsRollback(ctx context.Context, cmd *cli.Command) error {
	db, err := shared.NewDatabase(r.cfg().Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := shared.RollbackMigration(ctx, db); err != nil {
		return err
	}
	return r.writePlain("✓ Rolled back the latest migration\n")
}

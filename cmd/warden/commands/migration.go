package commands

import (
	"context"
	"fmt"

	"github.com/robalyx/warden/internal/database"
	"github.com/robalyx/warden/internal/setup"
	"github.com/uptrace/bun/migrate"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// migrationAction is a migration command body.
type migrationAction func(ctx context.Context, c *cli.Command, migrator *migrate.Migrator, logger *zap.Logger) error

// MigrationCommands returns all migration-related commands.
func MigrationCommands(deps *CLIDependencies) []*cli.Command {
	return []*cli.Command{
		{
			Name:   "init",
			Usage:  "Initialize migration tables",
			Action: deps.withMigrator(handleInit),
		},
		{
			Name:   "run",
			Usage:  "Run pending migrations",
			Action: deps.withMigrator(handleMigrate),
		},
		{
			Name:   "rollback",
			Usage:  "Rollback the last migration group",
			Action: deps.withMigrator(handleRollback),
		},
		{
			Name:   "status",
			Usage:  "Show migration status",
			Action: deps.withMigrator(handleStatus),
		},
		{
			Name:      "create",
			Usage:     "Create a new Go migration file",
			ArgsUsage: "NAME",
			Action:    deps.withMigrator(handleCreate),
		},
	}
}

// withMigrator connects to the database without the pending migration check.
func (d *CLIDependencies) withMigrator(action migrationAction) cli.ActionFunc {
	opts := setup.Options{Component: "migrate", SkipMigrationCheck: true}
	return d.withApp(opts, func(ctx context.Context, c *cli.Command, app *setup.App) error {
		if app.DB == nil {
			return ErrPostgresRequired
		}
		return action(ctx, c, database.NewMigrator(app.DB.DB()), app.Logger)
	})
}

// handleInit handles the 'init' command.
func handleInit(ctx context.Context, _ *cli.Command, migrator *migrate.Migrator, logger *zap.Logger) error {
	if err := migrator.Init(ctx); err != nil {
		return err
	}

	logger.Info("Initialized migration tables")
	return nil
}

// handleMigrate handles the 'run' command.
func handleMigrate(ctx context.Context, _ *cli.Command, migrator *migrate.Migrator, logger *zap.Logger) error {
	if err := migrator.Init(ctx); err != nil {
		return err
	}

	if err := migrator.Lock(ctx); err != nil {
		return err
	}
	defer migrator.Unlock(ctx) //nolint:errcheck // -

	group, err := migrator.Migrate(ctx)
	if err != nil {
		return err
	}

	if group.IsZero() {
		logger.Info("No new migrations to run (database is up to date)")
		return nil
	}

	logger.Info("Successfully migrated",
		zap.String("group", group.String()),
	)

	return nil
}

// handleRollback handles the 'rollback' command.
func handleRollback(ctx context.Context, _ *cli.Command, migrator *migrate.Migrator, logger *zap.Logger) error {
	if err := migrator.Lock(ctx); err != nil {
		return err
	}
	defer migrator.Unlock(ctx) //nolint:errcheck // -

	group, err := migrator.Rollback(ctx)
	if err != nil {
		return err
	}

	if group.IsZero() {
		logger.Info("No groups to roll back")
		return nil
	}

	logger.Info("Successfully rolled back",
		zap.String("group", group.String()),
	)

	return nil
}

// handleStatus handles the 'status' command.
func handleStatus(ctx context.Context, c *cli.Command, migrator *migrate.Migrator, logger *zap.Logger) error {
	ms, err := migrator.MigrationsWithStatus(ctx)
	if err != nil {
		return err
	}

	logger.Info("Migration status",
		zap.String("migrations", ms.String()),
		zap.String("unapplied", ms.Unapplied().String()),
		zap.String("last_group", ms.LastGroup().String()),
	)

	w := c.Root().Writer
	for _, m := range ms {
		state := "pending"
		if m.IsApplied() {
			state = "applied"
		}
		fmt.Fprintf(w, "%-8s %s_%s\n", state, m.Name, m.Comment)
	}
	return nil
}

// handleCreate handles the 'create' command.
func handleCreate(ctx context.Context, c *cli.Command, migrator *migrate.Migrator, logger *zap.Logger) error {
	if c.Args().Len() != 1 {
		return ErrNameRequired
	}

	mf, err := migrator.CreateGoMigration(ctx, c.Args().First())
	if err != nil {
		return err
	}

	logger.Info("Created Go migration",
		zap.String("name", mf.Name),
		zap.String("path", mf.Path),
	)

	return nil
}

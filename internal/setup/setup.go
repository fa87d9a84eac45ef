// Package setup bootstraps the components shared by every warden command.
package setup

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/robalyx/warden/internal/database"
	"github.com/robalyx/warden/internal/database/dbretry"
	"github.com/robalyx/warden/internal/engine"
	"github.com/robalyx/warden/internal/metrics"
	"github.com/robalyx/warden/internal/notify"
	"github.com/robalyx/warden/internal/redis"
	"github.com/robalyx/warden/internal/reputation"
	"github.com/robalyx/warden/internal/setup/config"
	"github.com/robalyx/warden/internal/setup/telemetry"
	"github.com/robalyx/warden/internal/store"
	"github.com/robalyx/warden/pkg/utils"
	"go.uber.org/zap"
)

// ErrPendingMigrations is returned when the database schema is behind and
// automatic migration was not requested.
var ErrPendingMigrations = errors.New("database migrations are pending, run \"warden migrate run\"")

// Options selects how the application is initialized.
type Options struct {
	// Component names the log session, for example "serve" or "cli".
	Component string
	// LogDir is the base directory for session logs.
	LogDir string
	// ConfigPath overrides the config file search when set.
	ConfigPath string
	// Console mirrors warnings and errors to stderr.
	Console bool
	// AutoMigrate applies pending migrations instead of failing.
	AutoMigrate bool
	// SkipMigrationCheck connects without inspecting the schema.
	SkipMigrationCheck bool
}

// App bundles all core dependencies and services needed by the application.
// Each field represents a major subsystem that needs initialization and cleanup.
type App struct {
	Config       *config.Manager     // Active configuration and reload hooks
	Logger       *zap.Logger         // Main application logger
	DBLogger     *zap.Logger         // Database-specific logger
	DB           *database.Client    // Database connection, nil for the memory store
	Store        store.Store         // Record store used by every component
	RedisManager *redis.Manager      // Redis connection manager, nil when disabled
	Dispatcher   *notify.Dispatcher  // Staff alert queue
	Metrics      *metrics.Metrics    // Prometheus collectors
	Cache        *reputation.Cache   // Cached VPN verdicts
	Engine       *engine.Engine      // Moderation checks
	LogManager   *telemetry.Manager  // Log management system
}

// InitializeApp bootstraps all application dependencies in the correct order,
// ensuring each component has its required dependencies available.
func InitializeApp(ctx context.Context, opts Options) (*App, error) {
	cfg, configPath, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	// Logging system is initialized next to capture setup issues
	logManager := telemetry.NewManager(opts.Component, opts.LogDir, &cfg.Debug, opts.Console)

	logger, dbLogger, err := logManager.GetLoggers()
	if err != nil {
		return nil, err
	}

	dbretry.SetPolicy(dbretry.PolicyFromConfig(cfg.Retry))

	app := &App{
		Config:     config.NewManager(cfg, configPath),
		Logger:     logger,
		DBLogger:   dbLogger,
		Metrics:    metrics.New(),
		LogManager: logManager,
	}

	if err := app.openStore(ctx, cfg, opts); err != nil {
		app.Cleanup(ctx)
		return nil, err
	}

	notifiers := []notify.Notifier{notify.NewLogNotifier(logger)}
	if cfg.Redis.Enabled {
		app.RedisManager = redis.NewManager(&cfg.Redis, logger)

		client, err := app.RedisManager.GetClient(redis.AlertsDBIndex)
		if err != nil {
			app.Cleanup(ctx)
			return nil, err
		}
		notifiers = append(notifiers, notify.NewRedisNotifier(client, cfg.Notify.RedisChannel))
	}

	app.Dispatcher = notify.NewDispatcher(cfg.Notify.QueueSize, app.Metrics, logger, notifiers...)
	app.Dispatcher.Start(ctx)

	app.Cache = utils.NewTTLMap[string, bool](time.Duration(cfg.VPNDetection.CacheMinutes) * time.Minute)
	app.Engine = engine.New(cfg, app.Store, app.Cache, app.Dispatcher, app.Metrics, logger)

	app.Config.OnReload(func(cfg *config.Config) {
		dbretry.SetPolicy(dbretry.PolicyFromConfig(cfg.Retry))
		app.Engine.Reload(cfg)
	})

	logger.Info("Initialized application",
		zap.String("component", opts.Component),
		zap.String("config", configPath),
		zap.String("storage", cfg.Storage.Driver),
		zap.Bool("redis", cfg.Redis.Enabled))

	return app, nil
}

// Cleanup ensures graceful shutdown of all components in reverse initialization order.
// Logs but does not fail on cleanup errors to ensure all components get cleanup attempts.
func (a *App) Cleanup(_ context.Context) {
	// Background checks may still queue alerts
	if a.Engine != nil {
		a.Engine.Close()
	}

	if a.Dispatcher != nil {
		a.Dispatcher.Close()
	}

	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			log.Printf("Failed to close database connection: %v", err)
		}
	}

	// Close Redis connections last as alert delivery uses them until the dispatcher stops
	if a.RedisManager != nil {
		a.RedisManager.Close()
	}

	_ = a.Logger.Sync()
	_ = a.DBLogger.Sync()
	a.LogManager.Stop()
}

// openStore selects the record store from the configuration.
func (a *App) openStore(ctx context.Context, cfg *config.Config, opts Options) error {
	switch cfg.Storage.Driver {
	case config.StoragePostgres:
		db, err := connectDatabase(ctx, &cfg.PostgreSQL, a.DBLogger, opts)
		if err != nil {
			return err
		}
		a.DB = db
		a.Store = db.Model()
	case config.StorageMemory:
		a.Logger.Warn("Using the in-memory store, records are lost on exit")
		a.Store = store.NewMemory()
	default:
		return fmt.Errorf("%w: %q", config.ErrUnknownStorageDriver, cfg.Storage.Driver)
	}

	return nil
}

// connectDatabase opens the database and makes sure its schema is current.
func connectDatabase(
	ctx context.Context, cfg *config.PostgreSQL, dbLogger *zap.Logger, opts Options,
) (*database.Client, error) {
	db, err := database.NewConnection(ctx, cfg, dbLogger, opts.AutoMigrate)
	if err != nil {
		return nil, err
	}

	if opts.AutoMigrate || opts.SkipMigrationCheck {
		return db, nil
	}

	migrator := database.NewMigrator(db.DB())
	if err := migrator.Init(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize migrations: %w", err)
	}

	ms, err := migrator.MigrationsWithStatus(ctx)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to check migration status: %w", err)
	}

	if unapplied := ms.Unapplied(); len(unapplied) > 0 {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %s", ErrPendingMigrations, unapplied.String())
	}

	return db, nil
}

// loadConfig loads the explicit config file or searches the default paths.
func loadConfig(path string) (*config.Config, string, error) {
	if path != "" {
		cfg, err := config.LoadFile(path)
		if err != nil {
			return nil, "", err
		}
		return cfg, path, nil
	}

	cfg, dir, err := config.LoadConfig()
	if err != nil {
		return nil, "", err
	}
	return cfg, filepath.Join(dir, config.FileName), nil
}

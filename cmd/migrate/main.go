package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/brokercrm/backend/internal/infrastructure/config"
	"github.com/brokercrm/backend/internal/infrastructure/logger"
	"github.com/brokercrm/backend/internal/infrastructure/migration"
)

const defaultMigrationsPath = "migrations"

func main() {
	var (
		migrationsPath string
		logLevel       string
	)
	flag.StringVar(&migrationsPath, "path", "", "path to the migrations directory")
	flag.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		Level:  logLevel,
		Format: "console",
		Output: "stdout",
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger init failed:", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	path, err := resolveMigrationsPath(migrationsPath)
	if err != nil {
		log.Fatal("could not resolve migrations path", zap.Error(err))
	}

	command := args[0]
	log.Info("migrate tool started",
		zap.String("command", command),
		zap.String("migrations_path", path),
	)

	// create and list work on the filesystem alone.
	switch command {
	case "create":
		runCreate(log, path, args[1:])
		return
	case "list":
		runList(log, path)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("could not load configuration", zap.Error(err))
	}
	if cfg.Database.Driver == config.DriverSQLite {
		log.Fatal("migrations target postgres; sqlite schemas are managed by AutoMigrate")
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("could not open database", zap.Error(err))
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatal("could not reach database", zap.Error(err))
	}

	m, err := migration.New(db, path, log)
	if err != nil {
		log.Fatal("could not build migrator", zap.Error(err))
	}
	defer m.Close()

	if err := runCommand(m, log, command, args[1:]); err != nil {
		log.Fatal("migration command failed", zap.String("command", command), zap.Error(err))
	}
}

func runCommand(m *migration.Migrator, log *zap.Logger, command string, args []string) error {
	switch command {
	case "up":
		return m.Up()

	case "down":
		return m.Down()

	case "step":
		n, err := intArg(args, "step count")
		if err != nil {
			return err
		}
		return m.Steps(n)

	case "goto":
		n, err := intArg(args, "target version")
		if err != nil {
			return err
		}
		if n < 0 {
			return fmt.Errorf("target version must not be negative")
		}
		return m.GoTo(uint(n))

	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		if version == 0 {
			log.Info("no migrations applied yet")
		} else {
			log.Info("current schema version",
				zap.Uint("version", version),
				zap.Bool("dirty", dirty),
			)
		}
		return nil

	case "force":
		n, err := intArg(args, "version")
		if err != nil {
			return err
		}
		return m.Force(n)

	case "drop":
		if !hasConfirmFlag(args) {
			return fmt.Errorf("drop destroys all data; rerun as 'migrate drop -confirm'")
		}
		return m.Drop()

	default:
		printUsage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func runCreate(log *zap.Logger, path string, args []string) {
	if len(args) == 0 {
		log.Fatal("migration name required: migrate create <name> [description]")
	}
	description := ""
	if len(args) > 1 {
		description = args[1]
	}

	mf, err := migration.CreateMigration(path, args[0], description)
	if err != nil {
		log.Fatal("could not create migration", zap.Error(err))
	}

	log.Info("migration pair created",
		zap.String("version", mf.Version),
		zap.String("up", mf.UpPath),
		zap.String("down", mf.DownPath),
	)
}

func runList(log *zap.Logger, path string) {
	migrations, err := migration.ListMigrations(path)
	if err != nil {
		log.Fatal("could not list migrations", zap.Error(err))
	}
	if len(migrations) == 0 {
		log.Info("no migrations found")
		return
	}

	log.Info("available migrations", zap.Int("count", len(migrations)))
	for _, name := range migrations {
		fmt.Println("  -", name)
	}
}

// resolveMigrationsPath falls back to ./migrations, then to the
// directory two levels above the binary for containerized layouts.
func resolveMigrationsPath(flagPath string) (string, error) {
	path := flagPath
	if path == "" {
		path = defaultMigrationsPath
		if _, err := os.Stat(path); err != nil {
			if execPath, execErr := os.Executable(); execErr == nil {
				candidate := filepath.Join(filepath.Dir(execPath), "..", "..", defaultMigrationsPath)
				if _, err := os.Stat(candidate); err == nil {
					path = candidate
				}
			}
		}
	}
	return filepath.Abs(path)
}

func intArg(args []string, what string) (int, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("%s required", what)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", what, args[0])
	}
	return n, nil
}

func hasConfirmFlag(args []string) bool {
	for _, arg := range args {
		if arg == "-confirm" || arg == "--confirm" {
			return true
		}
	}
	return false
}

func printUsage() {
	fmt.Println(`BrokerCRM schema migration tool

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up                    apply all pending migrations
  down                  roll back all migrations
  step <n>              apply n migrations, negative n rolls back
  goto <version>        migrate to an exact version
  version               show the applied schema version
  force <version>       overwrite the recorded version (dirty-state repair)
  drop -confirm         drop every database object
  create <name> [desc]  generate an empty up/down pair
  list                  list migration pairs on disk

Flags:
  -path string          migrations directory (default ./migrations)
  -log-level string     debug, info, warn, error (default info)

The database connection comes from the CRM_DATABASE_* environment
variables or config file, the same way the server reads them.`)
}

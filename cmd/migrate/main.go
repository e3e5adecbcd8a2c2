package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"philbox/config"
	logs "philbox/internal/infra/log"
	"philbox/internal/infra/persistence/migration"

	"github.com/golang-migrate/migrate/v4"
	"github.com/pkg/errors"
)

// Supported subcommands:
// - up:      apply every pending migration
// - down:    roll back a number of steps
// - version: print the current schema version

func main() {
	upCmd := flag.NewFlagSet("up", flag.ExitOnError)
	downCmd := flag.NewFlagSet("down", flag.ExitOnError)
	versionCmd := flag.NewFlagSet("version", flag.ExitOnError)

	upURL := upCmd.String("database", "", "Database URL (defaults to migration.databaseUrl)")
	downURL := downCmd.String("database", "", "Database URL (defaults to migration.databaseUrl)")
	downSteps := downCmd.Int("steps", 1, "Number of migrations to roll back")
	versionURL := versionCmd.String("database", "", "Database URL (defaults to migration.databaseUrl)")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger, err := logs.New(logs.Params{Config: cfg})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	switch os.Args[1] {
	case "up":
		_ = upCmd.Parse(os.Args[2:])
		err = withMigrator(cfg, *upURL, func(m *migrate.Migrate) error {
			return migration.Up(m, logger)
		})
	case "down":
		_ = downCmd.Parse(os.Args[2:])
		if *downSteps < 1 {
			err = errors.New("steps must be at least 1")

			break
		}
		err = withMigrator(cfg, *downURL, func(m *migrate.Migrate) error {
			return migration.Down(m, *downSteps, logger)
		})
	case "version":
		_ = versionCmd.Parse(os.Args[2:])
		err = withMigrator(cfg, *versionURL, func(m *migrate.Migrate) error {
			return printVersion(m, logger)
		})
	default:
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		logger.Error("Migration command failed", slog.String("command", os.Args[1]), slog.Any("error", err))
		os.Exit(1)
	}
}

func withMigrator(cfg *config.Config, databaseURL string, fn func(m *migrate.Migrate) error) error {
	if databaseURL == "" {
		databaseURL = cfg.Migration.DatabaseURL
	}
	if databaseURL == "" {
		return errors.New("no database URL: pass -database or set migration.databaseUrl")
	}

	m, err := migration.NewFromURL(databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = m.Close()
	}()

	return fn(m)
}

func printVersion(m *migrate.Migrate, logger *slog.Logger) error {
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		logger.Info("No migrations applied yet")

		return nil
	}
	if err != nil {
		return errors.Wrap(err, "failed to read schema version")
	}
	logger.Info("Current schema version", slog.Uint64("version", uint64(version)), slog.Bool("dirty", dirty))

	return nil
}

func printUsage() {
	fmt.Println("Usage: migrate <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  up       Apply every pending migration")
	fmt.Println("  down     Roll back migrations (-steps N, default 1)")
	fmt.Println("  version  Print the current schema version")
	fmt.Println()
	fmt.Println("Every command accepts -database <url> to override migration.databaseUrl.")
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/industria/api/internal/config"
	"github.com/industria/api/internal/database"
	"github.com/industria/api/internal/logger"
)

func main() {
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Server.Env)

	db, err := database.NewPostgresPool(context.Background(), cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", err, map[string]interface{}{
			"host": cfg.Database.Host,
			"name": cfg.Database.Name,
		})
	}
	defer db.Close()

	m, err := database.NewMigrator(db, log)
	if err != nil {
		log.Fatal("Failed to create migrator", err, nil)
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Warn("Failed to close migrator", map[string]interface{}{"error": err.Error()})
		}
	}()

	if err := run(m, log, command, args[1:]); err != nil {
		log.Error("Migration command failed", err, map[string]interface{}{"command": command})
		os.Exit(1)
	}
}

// migrator is the subset of database.Migrator the CLI drives.
type migrator interface {
	Up() error
	Down() error
	Steps(n int) error
	GoTo(version uint) error
	Force(version int) error
	Version() (uint, bool, error)
}

func run(m migrator, log *logger.Logger, command string, args []string) error {
	switch command {
	case "up":
		return m.Up()

	case "down":
		return m.Down()

	case "step":
		if len(args) < 1 {
			return fmt.Errorf("step count required: migrate step <n>")
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid step count %q", args[0])
		}
		return m.Steps(n)

	case "goto":
		if len(args) < 1 {
			return fmt.Errorf("version required: migrate goto <version>")
		}
		version, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid version %q", args[0])
		}
		return m.GoTo(uint(version))

	case "force":
		if len(args) < 1 {
			return fmt.Errorf("version required: migrate force <version>")
		}
		version, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid version %q", args[0])
		}
		return m.Force(version)

	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		log.Info("Current migration version", map[string]interface{}{
			"version": version,
			"dirty":   dirty,
		})
		return nil

	default:
		printUsage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Industria database migration tool

Usage:
  migrate <command> [arguments]

Commands:
  up                Apply all pending migrations
  down              Roll back all migrations
  step <n>          Apply n migrations (positive=up, negative=down)
  goto <version>    Migrate to a specific version
  force <version>   Set the recorded version without migrating
  version           Show the current migration version

Database settings are read from the same DB_* environment variables as the server.`)
}

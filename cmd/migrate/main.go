package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"

	"listing-marketplace/internal/config"
	"listing-marketplace/internal/infra/logging"
	"listing-marketplace/migrations"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev).With().Str("component", "migrate").Logger()

	args := flag.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	m, err := migrations.New(cfg.Database.URL)
	if err != nil {
		logger.Fatal().Err(err).Msg("init migrator")
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			logger.Warn().AnErr("source", srcErr).AnErr("database", dbErr).Msg("close migrator")
		}
	}()

	switch args[0] {
	case "up":
		err := m.Up()
		switch {
		case errors.Is(err, migrate.ErrNoChange):
			logger.Info().Msg("schema already up to date")
		case err != nil:
			logger.Fatal().Err(err).Msg("migrate up")
		default:
			logger.Info().Msg("migrations applied")
		}

	case "down":
		if err := m.Steps(-1); err != nil {
			logger.Fatal().Err(err).Msg("roll back last migration")
		}
		logger.Info().Msg("last migration rolled back")

	case "goto":
		if len(args) < 2 {
			logger.Fatal().Msg("goto needs a version")
		}
		version, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			logger.Fatal().Err(err).Msg("invalid version")
		}
		if err := m.Migrate(uint(version)); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			logger.Fatal().Err(err).Uint64("version", version).Msg("migrate to version")
		}
		logger.Info().Uint64("version", version).Msg("schema at version")

	case "status":
		version, dirty, err := m.Version()
		switch {
		case errors.Is(err, migrate.ErrNilVersion):
			logger.Info().Msg("no migrations applied yet")
		case err != nil:
			logger.Fatal().Err(err).Msg("read version")
		default:
			logger.Info().Uint("version", version).Bool("dirty", dirty).Msg("schema version")
		}

	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("usage: migrate [-config config.yaml] [-env .env] <command>")
	fmt.Println("commands:")
	fmt.Println("  up     apply all pending migrations")
	fmt.Println("  down   roll back the last migration")
	fmt.Println("  goto N migrate to version N")
	fmt.Println("  status print the current schema version")
}

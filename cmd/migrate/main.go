package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"

	"github.com/alexivanou/gazetteer/internal/config"
	"github.com/alexivanou/gazetteer/internal/database"
	"github.com/golang-migrate/migrate/v4"
	"go.uber.org/zap"
)

func main() {
	var (
		command = flag.String("command", "up", "up, down, steps, force or version")
		steps   = flag.Int("n", 0, "migrations to apply for steps (negative rolls back), version for force")
		dir     = flag.String("dir", "migrations", "directory holding the sqlite and postgres migrations")
	)
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}
	if cfg.DB.IsMemory() {
		logger.Warn("In-memory database: the schema is dropped when this process exits")
	}

	db, err := database.Connect(context.Background(), cfg.DB)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	m, err := database.NewMigrate(db, cfg.DB, *dir)
	if err != nil {
		logger.Fatal("Failed to create migration instance", zap.Error(err))
	}

	if err := run(m, *command, *steps); err != nil {
		logger.Fatal("Migration command failed", zap.String("command", *command), zap.Error(err))
	}

	v, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		logger.Fatal("Failed to read version", zap.Error(err))
	}
	logger.Info("Schema version", zap.Uint("version", v), zap.Bool("dirty", dirty))
}

func run(m *migrate.Migrate, command string, n int) error {
	var err error
	switch command {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	case "steps":
		if n == 0 {
			return errors.New("steps needs -n")
		}
		err = m.Steps(n)
	case "force":
		err = m.Force(n)
	case "version":
		return nil
	default:
		return fmt.Errorf("unknown command %q", command)
	}
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}

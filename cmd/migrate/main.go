package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/serialguard/serialguard-backend/pkg/config"
	"github.com/serialguard/serialguard-backend/pkg/db"
	"github.com/serialguard/serialguard-backend/pkg/logger"
	"github.com/serialguard/serialguard-backend/pkg/migrate"
)

const usage = `usage: migrate [-dir DIR] COMMAND [ARGS]

Commands:
  up                 apply all pending migrations
  down               roll back the latest migration
  status             print migration status
  version            print the current DB version
  up-to VERSION      migrate up or down to VERSION
  create NAME        create a new SQL migration file
  validate           check migration filenames and goose headers
`

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	dir := flag.String("dir", migrate.DefaultDir, "migrations directory")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		return fmt.Errorf("command is required")
	}
	command := args[0]

	// create and validate work without a database connection.
	switch command {
	case "create":
		if len(args) < 2 {
			return fmt.Errorf("create requires a migration name")
		}
		path, err := migrate.CreateSQLMigration(*dir, args[1])
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	case "validate":
		if err := migrate.ValidateDir(*dir); err != nil {
			return err
		}
		fmt.Println("migrations ok")
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logg := logger.New(logger.Options{
		ServiceName: "serialguard-migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer client.Close()

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	switch command {
	case "up-to":
		if len(args) < 2 {
			return fmt.Errorf("up-to requires a target version")
		}
		return migrate.MigrateToVersion(ctx, sqlDB, *dir, args[1])
	case "up", "down", "status", "version":
		return migrate.Run(ctx, sqlDB, *dir, command, args[1:]...)
	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

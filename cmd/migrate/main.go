// Command migrate applies the embedded schema migrations to the clinic
// database. Usage:
//
//	migrate            apply all pending migrations
//	migrate force <v>  mark the schema as version v without running anything
package main

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/adisantoso/klinika-platform/migrations"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatalf("migrate: %v", err)
	}
}

func run(args []string) error {
	databaseURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if databaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}

	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	migrator, err := newMigrator(db)
	if err != nil {
		return err
	}
	defer func() { _, _ = migrator.Close() }()

	// Recovery path for a dirty schema after a failed migration.
	if len(args) >= 2 && args[0] == "force" {
		version, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("parse version %q: %w", args[1], err)
		}
		if err := migrator.Force(version); err != nil {
			return fmt.Errorf("force schema version: %w", err)
		}
		fmt.Printf("schema version forced to %d\n", version)
		return nil
	}

	switch err := migrator.Up(); {
	case err == nil:
		fmt.Println("schema is up to date")
	case errors.Is(err, migrate.ErrNoChange):
		fmt.Println("no pending migrations")
	default:
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func newMigrator(db *sql.DB) (*migrate.Migrate, error) {
	target, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("bind database driver: %w", err)
	}
	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return nil, fmt.Errorf("read embedded migrations: %w", err)
	}
	return migrate.NewWithInstance("iofs", source, "postgres", target)
}

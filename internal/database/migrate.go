package database

import (
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// Migrate runs all pending up-migrations from the given directory over
// an already open pool. The migrator is not closed, closing it would
// close the shared pool.
func Migrate(db *sql.DB, migrationsDir string, logger *log.Logger) error {
	if db == nil {
		return errors.New("database: nil db")
	}
	if migrationsDir == "" {
		return errors.New("database: empty migrations dir")
	}

	driver, err := migratepgx.WithInstance(db, &migratepgx.Config{})
	if err != nil {
		return fmt.Errorf("migrate driver: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance(fmt.Sprintf("file://%s", migrationsDir), "pgx5", driver)
	if err != nil {
		return fmt.Errorf("migrate new: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	if logger != nil {
		logger.Printf("migrations applied from %s", migrationsDir)
	}
	return nil
}

package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// RunMigrations applies the embedded up migrations to the database at dbPath.
func RunMigrations(dbPath string) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load embedded migrations: %w", err)
	}
	return up(dbPath, func(driver migratedb.Driver) (*migrate.Migrate, error) {
		return migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	})
}

// RunMigrationsFrom applies up migrations found in a directory instead of the
// embedded set.
func RunMigrationsFrom(dbPath, migrationsPath string) error {
	return up(dbPath, func(driver migratedb.Driver) (*migrate.Migrate, error) {
		return migrate.NewWithDatabaseInstance(
			fmt.Sprintf("file://%s", migrationsPath),
			"sqlite3",
			driver,
		)
	})
}

// up owns its connection: closing the migrator closes the database handle.
func up(dbPath string, build func(migratedb.Driver) (*migrate.Migrate, error)) error {
	db, err := sql.Open("sqlite3", dsn(dbPath))
	if err != nil {
		return err
	}
	drv, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		_ = db.Close()
		return err
	}
	m, err := build(drv)
	if err != nil {
		_ = db.Close()
		return err
	}
	defer m.Close()

	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}

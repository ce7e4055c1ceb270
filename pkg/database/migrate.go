package database

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"

	"github.com/fathussalafi/yayasan-api/migrations"
)

// Migration directions accepted by Migrate.
const (
	MigrateUp   = "up"
	MigrateDown = "down"
)

// Migrate applies the embedded schema migrations. steps <= 0 migrates all the
// way in the given direction. It returns the resulting schema version.
func Migrate(db *sqlx.DB, direction string, steps int) (uint, error) {
	if direction != MigrateUp && direction != MigrateDown {
		return 0, fmt.Errorf("unknown migration direction %q", direction)
	}
	m, err := newMigrator(db)
	if err != nil {
		return 0, err
	}

	switch {
	case direction == MigrateUp && steps > 0:
		err = m.Steps(steps)
	case direction == MigrateUp:
		err = m.Up()
	case direction == MigrateDown && steps > 0:
		err = m.Steps(-steps)
	default:
		err = m.Down()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("migrate %s: %w", direction, err)
	}

	version, _, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return 0, err
	}
	return version, nil
}

func newMigrator(db *sqlx.DB) (*migrate.Migrate, error) {
	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return nil, fmt.Errorf("open migrations: %w", err)
	}
	driver, err := postgres.WithInstance(db.DB, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("init migrate driver: %w", err)
	}
	return migrate.NewWithInstance("iofs", source, "postgres", driver)
}

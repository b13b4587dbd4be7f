package main

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"

	"burger-storefront/db"

	"github.com/sirupsen/logrus"
)

// Embedded so `burger-storefront migrate` works from any working directory.
//
//go:embed migrations/*.sql
var migrationsFS embed.FS

func migrationNames() ([]string, error) {
	names, err := fs.Glob(migrationsFS, "migrations/*.sql")
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

// applyMigrations runs every migration in name order. Migrations are idempotent
// (IF NOT EXISTS), so re-running them on boot is safe.
func applyMigrations(ctx context.Context, log logrus.FieldLogger) error {
	names, err := migrationNames()
	if err != nil {
		return err
	}
	for _, name := range names {
		sqlBytes, err := migrationsFS.ReadFile(name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := db.Pool.Exec(ctx, string(sqlBytes)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
		log.WithField("migration", name).Info("migration applied")
	}
	return nil
}

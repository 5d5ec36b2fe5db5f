package database

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
)

const migrationsTable = "schema_migrations"

// Migrate applies (or, with down, rolls back one step of) the embedded
// goose migrations found at the root of migrations.
func (db *DB) Migrate(ctx context.Context, migrations fs.FS, down bool) error {
	goose.SetBaseFS(migrations)
	defer goose.SetBaseFS(nil)

	goose.SetTableName(migrationsTable)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}

	command := "up"
	if down {
		command = "down"
	}

	if err := goose.RunContext(ctx, command, db.DB.DB, "."); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}

	db.logger.Info().Str("command", command).Msg("migrations applied")
	return nil
}

package database

import (
	"context"
	"embed"

	"mcbarchive/internal/models"

	migrate "github.com/rubenv/sql-migrate"
)

const (
	MIGRATION_DIALECT = "postgres"
	MIGRATION_TABLE   = "mcb_schema_migrations"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

var MODELS_TO_MIGRATE = []any{
	&models.Show{},
	&models.Reaction{},
}

// EnsureSchema creates the show and reaction tables, their gorm-declared
// indexes (unique show id, unique reaction triple, broadcast date) and then
// applies the SQL migrations for the indexes gorm cannot express.
func (s *DB) EnsureSchema(ctx context.Context) error {
	log := s.log.Function("EnsureSchema")

	db, err := s.SQLWithContext(ctx)
	if err != nil {
		return err
	}

	if err := db.AutoMigrate(MODELS_TO_MIGRATE...); err != nil {
		return log.Err("failed to auto migrate", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return log.Err("failed to get database from GORM", err)
	}

	migrate.SetTable(MIGRATION_TABLE)
	source := &migrate.EmbedFileSystemMigrationSource{
		FileSystem: migrationFiles,
		Root:       "migrations",
	}

	n, err := migrate.Exec(sqlDB, MIGRATION_DIALECT, source, migrate.Up)
	if err != nil {
		return log.Err("failed to run migrations", err)
	}

	if n == 0 {
		log.Info("Schema up to date")
	} else {
		log.Info("Applied migrations", "migrationCount", n)
	}

	return nil
}

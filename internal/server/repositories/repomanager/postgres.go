// Package repomanager provides a concrete RepositoryManager for PostgreSQL,
// wiring together repository constructors and database migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"

	"github.com/ChutneyCheeseball/blabber/internal/dbx"
	"github.com/ChutneyCheeseball/blabber/internal/server/migrations"
	"github.com/ChutneyCheeseball/blabber/internal/server/repositories/blabs"
	"github.com/ChutneyCheeseball/blabber/internal/server/repositories/mentions"
	"github.com/ChutneyCheeseball/blabber/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository
// implementations and exposes a schema migration hook.
type PostgresRepositoryManager struct{}

// Users returns a users.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

// Blabs returns a blabs.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Blabs(db dbx.DBTX) blabs.Repository {
	return blabs.NewPostgresRepository(db)
}

// Mentions returns a mentions.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Mentions(db dbx.DBTX) mentions.Repository {
	return mentions.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return err
	}
	return nil
}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed RepositoryManager.
func NewPostgresRepositoryManager() RepositoryManager {
	return &PostgresRepositoryManager{}
}

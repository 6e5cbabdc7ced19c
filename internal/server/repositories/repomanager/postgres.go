// Package repomanager provides a concrete RepositoryManager for PostgreSQL,
// wiring together repository constructors and database migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"

	"github.com/fakhri2406/creadev/internal/dbx"
	"github.com/fakhri2406/creadev/internal/server/migrations"
	"github.com/fakhri2406/creadev/internal/server/repositories/refreshtokens"
	"github.com/fakhri2406/creadev/internal/server/repositories/revokedtokens"
	"github.com/fakhri2406/creadev/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository implementations
// and exposes a schema migration hook.
type PostgresRepositoryManager struct {
	revoked revokedtokens.Repository
}

type Option func(*PostgresRepositoryManager)

// WithRevocationStore replaces the revoked_tokens table with an external
// store. The store then ignores the DBTX passed to RevokedTokens.
func WithRevocationStore(r revokedtokens.Repository) Option {
	return func(m *PostgresRepositoryManager) {
		m.revoked = r
	}
}

// Users returns a users.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

// RefreshTokens returns a refreshtokens.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository {
	return refreshtokens.NewPostgresRepository(db)
}

// RevokedTokens returns the configured revocation store, or a
// revokedtokens.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) RevokedTokens(db dbx.DBTX) revokedtokens.Repository {
	if m.revoked != nil {
		return m.revoked
	}
	return revokedtokens.NewPostgresRepository(db)
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
func NewPostgresRepositoryManager(db *sql.DB, opts ...Option) (RepositoryManager, error) {
	m := &PostgresRepositoryManager{}
	for _, o := range opts {
		o(m)
	}
	return m, nil
}

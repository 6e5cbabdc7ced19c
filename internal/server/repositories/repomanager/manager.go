package repomanager

import (
	"context"
	"database/sql"

	"github.com/fakhri2406/creadev/internal/dbx"
	"github.com/fakhri2406/creadev/internal/server/repositories/refreshtokens"
	"github.com/fakhri2406/creadev/internal/server/repositories/revokedtokens"
	"github.com/fakhri2406/creadev/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	RevokedTokens(db dbx.DBTX) revokedtokens.Repository
}

package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmkov83/enerhobot/internal/dbx"
	"github.com/dmkov83/enerhobot/internal/server/repositories/secrets"
	"github.com/dmkov83/enerhobot/internal/server/repositories/users"
)

// RepositoryManager vends repository implementations bound to a DBTX so
// services can run them either on the pool or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Secrets(db dbx.DBTX) secrets.Repository
}

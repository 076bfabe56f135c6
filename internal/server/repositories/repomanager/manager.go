package repomanager

import (
	"context"
	"database/sql"

	"github.com/ChutneyCheeseball/blabber/internal/dbx"
	"github.com/ChutneyCheeseball/blabber/internal/server/repositories/blabs"
	"github.com/ChutneyCheeseball/blabber/internal/server/repositories/mentions"
	"github.com/ChutneyCheeseball/blabber/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DB handle. Passing a
// transaction handle yields tx-scoped repositories, which is how the blab
// service keeps a post insert and its mention edges atomic.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Blabs(db dbx.DBTX) blabs.Repository
	Mentions(db dbx.DBTX) mentions.Repository
}

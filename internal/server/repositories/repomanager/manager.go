package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/bookreviews/internal/dbx"
	"github.com/dmitrijs2005/bookreviews/internal/server/repositories/books"
	"github.com/dmitrijs2005/bookreviews/internal/server/repositories/reviews"
	"github.com/dmitrijs2005/bookreviews/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to either the pool or a
// transaction, so services can compose several repos inside one dbx.WithTx.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Books(db dbx.DBTX) books.Repository
	Reviews(db dbx.DBTX) reviews.Repository
}

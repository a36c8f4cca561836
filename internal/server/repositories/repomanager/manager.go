// Package repomanager wires per-aggregate repositories over a shared DBTX
// so services can use the same repository code inside and outside a
// transaction.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/tbenoist/harmonia/internal/dbx"
	"github.com/tbenoist/harmonia/internal/server/repositories/entities"
	"github.com/tbenoist/harmonia/internal/server/repositories/journals"
	"github.com/tbenoist/harmonia/internal/server/repositories/profiles"
	"github.com/tbenoist/harmonia/internal/server/repositories/questions"
	"github.com/tbenoist/harmonia/internal/server/repositories/sessions"
	"github.com/tbenoist/harmonia/internal/server/repositories/widgets"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Entities(db dbx.DBTX) entities.Repository
	Journals(db dbx.DBTX) journals.Repository
	Widgets(db dbx.DBTX) widgets.Repository
	Sessions(db dbx.DBTX) sessions.Repository
	Questions(db dbx.DBTX) questions.Repository
	Profiles(db dbx.DBTX) profiles.Repository
}

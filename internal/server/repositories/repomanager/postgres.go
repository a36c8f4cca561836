package repomanager

import (
	"context"
	"database/sql"

	"github.com/tbenoist/harmonia/internal/dbx"
	"github.com/tbenoist/harmonia/internal/server/migrations"
	"github.com/tbenoist/harmonia/internal/server/repositories/entities"
	"github.com/tbenoist/harmonia/internal/server/repositories/journals"
	"github.com/tbenoist/harmonia/internal/server/repositories/profiles"
	"github.com/tbenoist/harmonia/internal/server/repositories/questions"
	"github.com/tbenoist/harmonia/internal/server/repositories/sessions"
	"github.com/tbenoist/harmonia/internal/server/repositories/widgets"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

type PostgresRepositoryManager struct {
}

func NewPostgresRepositoryManager() *PostgresRepositoryManager {
	return &PostgresRepositoryManager{}
}

func (m *PostgresRepositoryManager) Entities(db dbx.DBTX) entities.Repository {
	return entities.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Journals(db dbx.DBTX) journals.Repository {
	return journals.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Widgets(db dbx.DBTX) widgets.Repository {
	return widgets.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Sessions(db dbx.DBTX) sessions.Repository {
	return sessions.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Questions(db dbx.DBTX) questions.Repository {
	return questions.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Profiles(db dbx.DBTX) profiles.Repository {
	return profiles.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}

	if err := goose.UpContext(ctx, db, "."); err != nil {
		return err
	}

	return nil
}

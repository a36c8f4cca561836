package widgets

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/tbenoist/harmonia/internal/common"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestGet_ReturnsState(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "user_id", "widget_slug", "data", "created_at", "updated_at"}).
		AddRow("w-id", "u1", "water-tracker", []byte(`{"glasses":5}`), now, now)

	mock.ExpectQuery(`SELECT id, user_id, widget_slug, data, created_at, updated_at FROM widget_states`).
		WithArgs("u1", "water-tracker").
		WillReturnRows(rows)

	got, err := repo.Get(context.Background(), "u1", "water-tracker")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.WidgetSlug != "water-tracker" || string(got.Data) != `{"glasses":5}` {
		t.Fatalf("unexpected state: %+v", got)
	}
}

func TestGet_NeverWrittenSlugIsNotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT id, user_id, widget_slug, data`).
		WithArgs("u1", "unknown").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "u1", "unknown")
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestUpsert_ReturnsStoredRow(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "user_id", "widget_slug", "data", "created_at", "updated_at"}).
		AddRow("existing-id", "u1", "water-tracker", []byte(`{"glasses":6}`), now.Add(-time.Hour), now)

	mock.ExpectQuery(`INSERT INTO widget_states .* ON CONFLICT \(user_id, widget_slug\) .* RETURNING`).
		WithArgs(sqlmock.AnyArg(), "u1", "water-tracker", []byte(`{"glasses":6}`), sqlmock.AnyArg()).
		WillReturnRows(rows)

	got, err := repo.Upsert(context.Background(), "u1", "water-tracker", json.RawMessage(`{"glasses":6}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// On conflict the stored row keeps its original id and created_at.
	if got.ID != "existing-id" || !got.CreatedAt.Before(got.UpdatedAt) {
		t.Fatalf("unexpected row: %+v", got)
	}
}

func TestUpsert_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO widget_states`).
		WithArgs(sqlmock.AnyArg(), "u1", "notes", []byte(`{}`), sqlmock.AnyArg()).
		WillReturnError(errors.New("db is down"))

	_, err := repo.Upsert(context.Background(), "u1", "notes", json.RawMessage(`{}`))
	if err == nil {
		t.Fatalf("expected error")
	}
}

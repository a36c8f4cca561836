package questions

import (
	"context"
	"database/sql"
	"errors"
	"testing"

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

func questionColumns() []string {
	return []string{
		"number", "type",
		"text_fr", "text_en", "text_es",
		"bloc_fr", "bloc_en", "bloc_es",
		"module_fr", "module_en", "module_es",
		"options_fr", "options_en", "options_es",
		"annotation_fr", "annotation_en", "annotation_es",
		"comment_label_fr", "comment_label_en", "comment_label_es",
	}
}

func TestGetByNumber_ResolvesLocalizedFields(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows(questionColumns()).AddRow(
		7, "single_choice",
		"Dormez-vous bien ?", "Do you sleep well?", "",
		"Sommeil", "Sleep", "",
		"Corps", "Body", "",
		[]byte(`["Jamais","Souvent"]`), []byte(`["Never","Often"]`), []byte(`[]`),
		"", "", "",
		"Commentaire", "", "",
	)

	mock.ExpectQuery(`SELECT number, type,`).
		WithArgs(7).
		WillReturnRows(rows)

	q, err := repo.GetByNumber(context.Background(), 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Text.Resolve("en") != "Do you sleep well?" {
		t.Fatalf("unexpected text: %q", q.Text.Resolve("en"))
	}
	// Absent spanish falls back to french wholesale.
	if got := q.Options.Resolve("es"); len(got) != 2 || got[0] != "Jamais" {
		t.Fatalf("unexpected options: %v", got)
	}
	if q.CommentLabel.Resolve("en") != "Commentaire" {
		t.Fatalf("unexpected comment label: %q", q.CommentLabel.Resolve("en"))
	}
}

func TestGetByNumber_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT number, type,`).
		WithArgs(999).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByNumber(context.Background(), 999)
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestCount(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM questions`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(144))

	n, err := repo.Count(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 144 {
		t.Fatalf("want 144, got %d", n)
	}
}

package sessions

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/tbenoist/harmonia/internal/common"
	"github.com/tbenoist/harmonia/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestCreate_InsertsSession(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	s := &models.QuestionnaireSession{
		ID:             "s1",
		UserID:         "u1",
		Status:         models.SessionStarted,
		StartedAt:      now,
		LastActivityAt: now,
	}

	mock.ExpectExec(`INSERT INTO questionnaire_sessions`).
		WithArgs("s1", "u1", "STARTED", "", 0, now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Create(context.Background(), s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT id, user_id, status`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestUpdate_NotFoundWhenNoRows(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	s := &models.QuestionnaireSession{
		ID:             "missing",
		Status:         models.SessionInProgress,
		CurrentBloc:    "Énergie",
		LastActivityAt: now,
	}

	mock.ExpectExec(`UPDATE questionnaire_sessions`).
		WithArgs("missing", "IN_PROGRESS", "Énergie", 0, now).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), s)
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestUpsertAnswer_ReplacesInPlace(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Date(2025, 3, 1, 9, 5, 0, 0, time.UTC)
	a := &models.SessionAnswer{
		SessionID:      "s1",
		QuestionNumber: 12,
		Value:          json.RawMessage(`"souvent"`),
		AnsweredAt:     now,
	}

	mock.ExpectExec(`INSERT INTO session_answers .* ON CONFLICT \(session_id, question_number\)`).
		WithArgs("s1", 12, []byte(`"souvent"`), now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpsertAnswer(context.Background(), a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCountAnswers(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM session_answers`).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(37))

	n, err := repo.CountAnswers(context.Background(), "s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 37 {
		t.Fatalf("want 37, got %d", n)
	}
}

func TestSelectAnswers_OrderedByQuestion(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Date(2025, 3, 1, 9, 5, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"session_id", "question_number", "value", "answered_at"}).
		AddRow("s1", 1, []byte(`"oui"`), now).
		AddRow("s1", 2, []byte(`"non"`), now)

	mock.ExpectQuery(`SELECT session_id, question_number, value, answered_at FROM session_answers`).
		WithArgs("s1").
		WillReturnRows(rows)

	got, err := repo.SelectAnswers(context.Background(), "s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].QuestionNumber != 1 || got[1].QuestionNumber != 2 {
		t.Fatalf("unexpected answers: %+v", got)
	}
}

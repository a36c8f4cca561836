// Package sessions provides the PostgreSQL-backed repository for
// questionnaire sessions and their answers.
package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tbenoist/harmonia/internal/common"
	"github.com/tbenoist/harmonia/internal/dbx"
	"github.com/tbenoist/harmonia/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, session *models.QuestionnaireSession) error {
	query := `
		INSERT INTO questionnaire_sessions (id, user_id, status, current_bloc, completion_percentage, started_at, last_activity_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	_, err := r.db.ExecContext(ctx, query,
		session.ID, session.UserID, session.Status, session.CurrentBloc,
		session.CompletionPercentage, session.StartedAt, session.LastActivityAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.QuestionnaireSession, error) {
	query := `
		SELECT id, user_id, status, current_bloc, completion_percentage, started_at, last_activity_at
		FROM questionnaire_sessions WHERE id=$1
	`
	var s models.QuestionnaireSession
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&s.ID, &s.UserID, &s.Status, &s.CurrentBloc,
		&s.CompletionPercentage, &s.StartedAt, &s.LastActivityAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select session: %w", err)
	}
	return &s, nil
}

func (r *PostgresRepository) Update(ctx context.Context, session *models.QuestionnaireSession) error {
	query := `
		UPDATE questionnaire_sessions
		SET status=$2, current_bloc=$3, completion_percentage=$4, last_activity_at=$5
		WHERE id=$1;
	`
	res, err := r.db.ExecContext(ctx, query,
		session.ID, session.Status, session.CurrentBloc,
		session.CompletionPercentage, session.LastActivityAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) UpsertAnswer(ctx context.Context, answer *models.SessionAnswer) error {
	query := `
		INSERT INTO session_answers (session_id, question_number, value, answered_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (session_id, question_number)
		DO UPDATE SET value = EXCLUDED.value, answered_at = EXCLUDED.answered_at;
	`
	_, err := r.db.ExecContext(ctx, query,
		answer.SessionID, answer.QuestionNumber, answer.Value, answer.AnsweredAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) CountAnswers(ctx context.Context, sessionID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM session_answers WHERE session_id=$1`, sessionID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count answers: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) SelectAnswers(ctx context.Context, sessionID string) ([]*models.SessionAnswer, error) {
	query := `
		SELECT session_id, question_number, value, answered_at FROM session_answers
		WHERE session_id=$1
		ORDER BY question_number
	`
	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to select answers: %w", err)
	}
	defer rows.Close()

	var result []*models.SessionAnswer
	for rows.Next() {
		var a models.SessionAnswer
		if err := rows.Scan(&a.SessionID, &a.QuestionNumber, &a.Value, &a.AnsweredAt); err != nil {
			return nil, err
		}
		result = append(result, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Package questions provides read access to the multilingual question
// catalog referenced by questionnaire sessions.
package questions

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tbenoist/harmonia/internal/common"
	"github.com/tbenoist/harmonia/internal/dbx"
	"github.com/tbenoist/harmonia/internal/locale"
	"github.com/tbenoist/harmonia/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectColumns = `
	SELECT number, type,
	       text_fr, text_en, text_es,
	       bloc_fr, bloc_en, bloc_es,
	       module_fr, module_en, module_es,
	       options_fr, options_en, options_es,
	       annotation_fr, annotation_en, annotation_es,
	       comment_label_fr, comment_label_en, comment_label_es
	FROM questions`

type scanner interface {
	Scan(dest ...any) error
}

func scanQuestion(row scanner) (*models.Question, error) {
	var q models.Question
	var textFR, textEN, textES string
	var blocFR, blocEN, blocES string
	var moduleFR, moduleEN, moduleES string
	var optFR, optEN, optES []byte
	var annFR, annEN, annES string
	var comFR, comEN, comES string

	if err := row.Scan(
		&q.Number, &q.Type,
		&textFR, &textEN, &textES,
		&blocFR, &blocEN, &blocES,
		&moduleFR, &moduleEN, &moduleES,
		&optFR, &optEN, &optES,
		&annFR, &annEN, &annES,
		&comFR, &comEN, &comES,
	); err != nil {
		return nil, err
	}

	q.Text = locale.Strings{"fr": textFR, "en": textEN, "es": textES}
	q.Bloc = locale.Strings{"fr": blocFR, "en": blocEN, "es": blocES}
	q.Module = locale.Strings{"fr": moduleFR, "en": moduleEN, "es": moduleES}
	q.Annotation = locale.Strings{"fr": annFR, "en": annEN, "es": annES}
	q.CommentLabel = locale.Strings{"fr": comFR, "en": comEN, "es": comES}

	q.Options = locale.Lists{}
	for loc, raw := range map[string][]byte{"fr": optFR, "en": optEN, "es": optES} {
		var opts []string
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &opts); err != nil {
				return nil, fmt.Errorf("invalid options for locale %s: %w", loc, err)
			}
		}
		q.Options[loc] = opts
	}

	return &q, nil
}

func (r *PostgresRepository) GetByNumber(ctx context.Context, number int) (*models.Question, error) {
	row := r.db.QueryRowContext(ctx, selectColumns+` WHERE number=$1`, number)
	q, err := scanQuestion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select question: %w", err)
	}
	return q, nil
}

func (r *PostgresRepository) SelectAll(ctx context.Context) ([]*models.Question, error) {
	rows, err := r.db.QueryContext(ctx, selectColumns+` ORDER BY number`)
	if err != nil {
		return nil, fmt.Errorf("failed to select questions: %w", err)
	}
	defer rows.Close()

	var result []*models.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM questions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count questions: %w", err)
	}
	return n, nil
}

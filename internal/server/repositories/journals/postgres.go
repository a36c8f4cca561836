// Package journals provides the PostgreSQL-backed repository for the
// singleton-per-date daily journal.
package journals

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

// Merge upserts the journal row for (user_id, entry_date) under the same
// strictly-greater timestamp rule as sync entities.
func (r *PostgresRepository) Merge(ctx context.Context, journal *models.DailyJournal) error {
	query := `
		INSERT INTO daily_journals (user_id, entry_date, payload, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, entry_date)
		DO UPDATE SET
			payload = EXCLUDED.payload,
			updated_at = EXCLUDED.updated_at
			WHERE EXCLUDED.updated_at > daily_journals.updated_at
			   OR (EXCLUDED.updated_at = daily_journals.updated_at AND daily_journals.payload = EXCLUDED.payload);
	`
	res, err := r.db.ExecContext(ctx, query,
		journal.UserID, journal.Date, journal.Payload, journal.CreatedAt, journal.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrConflictSkipped
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

// GetByDate returns the journal for one calendar date, or ErrNotFound.
func (r *PostgresRepository) GetByDate(ctx context.Context, userID string, date string) (*models.DailyJournal, error) {
	query := `
		SELECT user_id, to_char(entry_date, 'YYYY-MM-DD'), payload, created_at, updated_at FROM daily_journals
		WHERE user_id=$1 AND entry_date=$2
	`
	var j models.DailyJournal
	err := r.db.QueryRowContext(ctx, query, userID, date).Scan(
		&j.UserID, &j.Date, &j.Payload, &j.CreatedAt, &j.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select journal: %w", err)
	}
	return &j, nil
}

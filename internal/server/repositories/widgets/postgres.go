// Package widgets provides the PostgreSQL-backed repository for opaque
// per-(user, widget) state blobs.
package widgets

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
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

// Get returns the state for one (user, slug) key, or ErrNotFound when the
// slug has never been written.
func (r *PostgresRepository) Get(ctx context.Context, userID, slug string) (*models.WidgetState, error) {
	query := `
		SELECT id, user_id, widget_slug, data, created_at, updated_at FROM widget_states
		WHERE user_id=$1 AND widget_slug=$2
	`
	var w models.WidgetState
	err := r.db.QueryRowContext(ctx, query, userID, slug).Scan(
		&w.ID, &w.UserID, &w.WidgetSlug, &w.Data, &w.CreatedAt, &w.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select widget state: %w", err)
	}
	return &w, nil
}

// Upsert inserts the row on first write and fully replaces data afterwards.
// The insert-or-update runs as one statement keyed on the unique constraint,
// so two concurrent first-writes converge to a single row with the last
// commit winning. The stored row keeps its original id and created_at.
func (r *PostgresRepository) Upsert(ctx context.Context, userID, slug string, data json.RawMessage) (*models.WidgetState, error) {
	query := `
		INSERT INTO widget_states (id, user_id, widget_slug, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (user_id, widget_slug)
		DO UPDATE SET
			data = EXCLUDED.data,
			updated_at = EXCLUDED.updated_at
		RETURNING id, user_id, widget_slug, data, created_at, updated_at;
	`
	now := time.Now().UTC()
	var w models.WidgetState
	err := r.db.QueryRowContext(ctx, query, uuid.NewString(), userID, slug, data, now).Scan(
		&w.ID, &w.UserID, &w.WidgetSlug, &w.Data, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &w, nil
}

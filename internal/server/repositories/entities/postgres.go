// Package entities provides the PostgreSQL-backed repository for syncable
// entity collections (tasks, projects, rituals, alarms).
package entities

import (
	"context"
	"fmt"

	"github.com/tbenoist/harmonia/internal/common"
	"github.com/tbenoist/harmonia/internal/dbx"
	"github.com/tbenoist/harmonia/internal/server/models"
)

// PostgresRepository implements entity storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Merge upserts an entity by (user_id, kind, entity_id). The incoming row
// wins only with a strictly greater updated_at; an equal timestamp keeps the
// stored row unless the payload is identical, which makes resubmitting the
// same batch a no-op that still reports success. Losing the comparison
// returns ErrConflictSkipped.
func (r *PostgresRepository) Merge(ctx context.Context, entity *models.SyncEntity) error {
	query := `
		INSERT INTO sync_entities (user_id, kind, entity_id, payload, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, kind, entity_id)
		DO UPDATE SET
			payload = EXCLUDED.payload,
			updated_at = EXCLUDED.updated_at
			WHERE EXCLUDED.updated_at > sync_entities.updated_at
			   OR (EXCLUDED.updated_at = sync_entities.updated_at AND sync_entities.payload = EXCLUDED.payload);
	`
	res, err := r.db.ExecContext(ctx, query,
		entity.UserID, entity.Kind, entity.EntityID, entity.Payload, entity.CreatedAt, entity.UpdatedAt)
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

// SelectByKind returns the full server-side view of one collection for a user.
func (r *PostgresRepository) SelectByKind(ctx context.Context, userID string, kind models.EntityKind) ([]*models.SyncEntity, error) {
	query := `
		SELECT user_id, kind, entity_id, payload, created_at, updated_at FROM sync_entities
		WHERE user_id=$1 AND kind=$2
		ORDER BY entity_id
	`
	rows, err := r.db.QueryContext(ctx, query, userID, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to select entities: %w", err)
	}
	defer rows.Close()

	var result []*models.SyncEntity
	for rows.Next() {
		var item models.SyncEntity
		if err := rows.Scan(
			&item.UserID, &item.Kind, &item.EntityID, &item.Payload, &item.CreatedAt, &item.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

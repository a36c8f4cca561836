// Package profiles provides the PostgreSQL-backed repository for versioned
// holistic profile artifacts.
package profiles

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

func (r *PostgresRepository) MaxVersion(ctx context.Context, sessionID string) (int, error) {
	var v int
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM holistic_profiles WHERE session_id=$1`, sessionID).Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("failed to select max version: %w", err)
	}
	return v, nil
}

func (r *PostgresRepository) DeactivateAll(ctx context.Context, sessionID string) error {
	query := `
		UPDATE holistic_profiles
		SET is_active=FALSE, updated_at=NOW()
		WHERE session_id=$1 AND is_active;
	`
	if _, err := r.db.ExecContext(ctx, query, sessionID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Create(ctx context.Context, profile *models.HolisticProfile) error {
	query := `
		INSERT INTO holistic_profiles (id, session_id, user_id, version, version_name, is_active, content, storage_key, generated_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	_, err := r.db.ExecContext(ctx, query,
		profile.ID, profile.SessionID, profile.UserID, profile.Version, profile.VersionName,
		profile.IsActive, profile.Content, profile.StorageKey, profile.GeneratedAt, profile.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetActive(ctx context.Context, sessionID string) (*models.HolisticProfile, error) {
	query := selectColumns + ` WHERE session_id=$1 AND is_active`
	var p models.HolisticProfile
	err := r.db.QueryRowContext(ctx, query, sessionID).Scan(
		&p.ID, &p.SessionID, &p.UserID, &p.Version, &p.VersionName,
		&p.IsActive, &p.Content, &p.StorageKey, &p.GeneratedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select active profile: %w", err)
	}
	return &p, nil
}

func (r *PostgresRepository) SelectBySession(ctx context.Context, sessionID string) ([]*models.HolisticProfile, error) {
	query := selectColumns + ` WHERE session_id=$1 ORDER BY version`
	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to select profiles: %w", err)
	}
	defer rows.Close()

	var result []*models.HolisticProfile
	for rows.Next() {
		var p models.HolisticProfile
		if err := rows.Scan(
			&p.ID, &p.SessionID, &p.UserID, &p.Version, &p.VersionName,
			&p.IsActive, &p.Content, &p.StorageKey, &p.GeneratedAt, &p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

const selectColumns = `
	SELECT id, session_id, user_id, version, version_name, is_active, content, storage_key, generated_at, updated_at
	FROM holistic_profiles`

package entities

import (
	"context"

	"github.com/tbenoist/harmonia/internal/server/models"
)

type Repository interface {
	// Merge applies last-writer-wins on the entity's client timestamp.
	// Returns common.ErrConflictSkipped when the stored record wins.
	Merge(ctx context.Context, entity *models.SyncEntity) error
	SelectByKind(ctx context.Context, userID string, kind models.EntityKind) ([]*models.SyncEntity, error)
}

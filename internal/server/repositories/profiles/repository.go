package profiles

import (
	"context"

	"github.com/tbenoist/harmonia/internal/server/models"
)

type Repository interface {
	// MaxVersion returns the highest version for a session, 0 when none exist.
	MaxVersion(ctx context.Context, sessionID string) (int, error)
	// DeactivateAll clears is_active on every profile of a session. Callers
	// run it inside the same transaction as Create so readers never observe
	// zero or multiple active versions.
	DeactivateAll(ctx context.Context, sessionID string) error
	Create(ctx context.Context, profile *models.HolisticProfile) error
	GetActive(ctx context.Context, sessionID string) (*models.HolisticProfile, error)
	SelectBySession(ctx context.Context, sessionID string) ([]*models.HolisticProfile, error)
}

package widgets

import (
	"context"
	"encoding/json"

	"github.com/tbenoist/harmonia/internal/server/models"
)

type Repository interface {
	Get(ctx context.Context, userID, slug string) (*models.WidgetState, error)
	// Upsert atomically creates or fully replaces the blob for one
	// (user, slug) key; the unique constraint serializes concurrent
	// first-writes so exactly one row ever exists per key.
	Upsert(ctx context.Context, userID, slug string, data json.RawMessage) (*models.WidgetState, error)
}

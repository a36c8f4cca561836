package journals

import (
	"context"

	"github.com/tbenoist/harmonia/internal/server/models"
)

type Repository interface {
	// Merge applies the same last-writer-wins rule as sync entities, keyed
	// by (user_id, entry date). The mood check-in array inside the payload
	// is replaced wholesale with the winning write.
	Merge(ctx context.Context, journal *models.DailyJournal) error
	GetByDate(ctx context.Context, userID string, date string) (*models.DailyJournal, error)
}

package questions

import (
	"context"

	"github.com/tbenoist/harmonia/internal/server/models"
)

// Repository is the read-only view of the question catalog. The catalog is
// mutated only by the administrative import tooling.
type Repository interface {
	GetByNumber(ctx context.Context, number int) (*models.Question, error)
	SelectAll(ctx context.Context) ([]*models.Question, error)
	Count(ctx context.Context) (int, error)
}

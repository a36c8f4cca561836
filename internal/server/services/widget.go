package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/tbenoist/harmonia/internal/common"
	"github.com/tbenoist/harmonia/internal/logging"
	"github.com/tbenoist/harmonia/internal/server/models"
	"github.com/tbenoist/harmonia/internal/server/repositories/repomanager"
)

// WidgetService stores opaque per-(user, widget) blobs. The data schema
// belongs entirely to the client; the server replaces the whole value on
// every write, mirroring the journal mood check-ins policy.
type WidgetService struct {
	db     *sql.DB
	repos  repomanager.RepositoryManager
	logger logging.Logger
}

func NewWidgetService(db *sql.DB, repos repomanager.RepositoryManager, logger logging.Logger) *WidgetService {
	return &WidgetService{db: db, repos: repos, logger: logger.With("module", "widget_service")}
}

// Get returns the stored state, or ErrNotFound for a never-written slug.
func (s *WidgetService) Get(ctx context.Context, userID, slug string) (*models.WidgetState, error) {
	if slug == "" {
		return nil, fmt.Errorf("%w: missing widget slug", common.ErrValidation)
	}
	return s.repos.Widgets(s.db).Get(ctx, userID, slug)
}

// Put upserts the blob for one key. The upsert is a single atomic statement
// keyed on the (user, slug) unique constraint, never read-then-write, so
// concurrent writers converge to one row with the last commit winning.
func (s *WidgetService) Put(ctx context.Context, userID, slug string, data json.RawMessage) (*models.WidgetState, error) {
	if slug == "" {
		return nil, fmt.Errorf("%w: missing widget slug", common.ErrValidation)
	}
	if len(data) == 0 || !json.Valid(data) {
		return nil, fmt.Errorf("%w: data must be a JSON value", common.ErrValidation)
	}

	stored, err := s.repos.Widgets(s.db).Upsert(ctx, userID, slug, data)
	if err != nil {
		return nil, err
	}
	s.logger.Debug(ctx, "widget state stored", "slug", slug)
	return stored, nil
}

// Package services implements the Harmonia core operations: batch entity
// merging, widget state, questionnaire sessions and profile versioning.
package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tbenoist/harmonia/internal/common"
	"github.com/tbenoist/harmonia/internal/dbx"
	"github.com/tbenoist/harmonia/internal/logging"
	"github.com/tbenoist/harmonia/internal/server/models"
	"github.com/tbenoist/harmonia/internal/server/repositories/repomanager"
)

// SyncService reconciles client-submitted entity batches against server
// state. Conflict resolution is per-entity-id and timestamp-based, so
// concurrent syncs from two devices of the same user need no cross-request
// locking; the merge is idempotent, which is what makes client-side retries
// safe.
type SyncService struct {
	db     *sql.DB
	repos  repomanager.RepositoryManager
	logger logging.Logger
}

func NewSyncService(db *sql.DB, repos repomanager.RepositoryManager, logger logging.Logger) *SyncService {
	return &SyncService{db: db, repos: repos, logger: logger.With("module", "sync_service")}
}

// SyncBatch is one sync request: every locally changed item per collection,
// plus the optional daily journal for one date. Item payloads are opaque
// apart from the envelope fields (id, createdAt, updatedAt).
type SyncBatch struct {
	Tasks        []json.RawMessage `json:"tasks"`
	Projects     []json.RawMessage `json:"projects"`
	Rituals      []json.RawMessage `json:"rituals"`
	DailyJournal json.RawMessage   `json:"dailyJournal"`
	Alarms       []json.RawMessage `json:"alarms"`
	LastUpdated  string            `json:"lastUpdated"`
}

// ItemError reports one malformed item. Item failures are independent; they
// never abort the rest of the batch.
type ItemError struct {
	ID    string `json:"id,omitempty"`
	Error string `json:"error"`
}

// KindResult is the merge outcome for one collection, including the full
// server-side view the client should reconcile against.
type KindResult struct {
	Applied int         `json:"applied"`
	Skipped int         `json:"skipped"`
	Errors  []ItemError `json:"errors,omitempty"`
	// FailedKind carries the storage error when this whole collection could
	// not be merged; the other collections still proceed.
	FailedKind string            `json:"failedKind,omitempty"`
	Items      []json.RawMessage `json:"items"`
}

// JournalResult mirrors KindResult for the singleton-per-date journal.
type JournalResult struct {
	Applied bool             `json:"applied"`
	Skipped bool             `json:"skipped"`
	Error   string           `json:"error,omitempty"`
	Journal *json.RawMessage `json:"journal,omitempty"`
}

// SyncResult is the authoritative superset returned to the client.
type SyncResult struct {
	Tasks        KindResult     `json:"tasks"`
	Projects     KindResult     `json:"projects"`
	Rituals      KindResult     `json:"rituals"`
	Alarms       KindResult     `json:"alarms"`
	DailyJournal *JournalResult `json:"dailyJournal,omitempty"`
	SyncedAt     time.Time      `json:"syncedAt"`
}

// itemEnvelope is the only part of an item payload the server understands.
type itemEnvelope struct {
	ID        string `json:"id"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// journalEnvelope is the envelope of the daily journal payload.
type journalEnvelope struct {
	Date      string `json:"date"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

func parseClientTime(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid timestamp %q", common.ErrValidation, value)
	}
	return t.UTC(), nil
}

// Merge reconciles one batch. Each collection is merged in its own
// transaction so a storage failure in one kind leaves the others applied;
// the server never deletes an entity — absence from the batch is not
// deletion. Resubmitting an identical batch yields the same state and the
// same result.
func (s *SyncService) Merge(ctx context.Context, userID string, batch *SyncBatch) (*SyncResult, error) {
	result := &SyncResult{SyncedAt: time.Now().UTC()}

	kinds := []struct {
		kind  models.EntityKind
		items []json.RawMessage
		out   *KindResult
	}{
		{models.KindTask, batch.Tasks, &result.Tasks},
		{models.KindProject, batch.Projects, &result.Projects},
		{models.KindRitual, batch.Rituals, &result.Rituals},
		{models.KindAlarm, batch.Alarms, &result.Alarms},
	}

	for _, k := range kinds {
		*k.out = s.mergeKind(ctx, userID, k.kind, k.items)
	}

	if len(batch.DailyJournal) > 0 && string(batch.DailyJournal) != "null" {
		jr := s.mergeJournal(ctx, userID, batch.DailyJournal)
		result.DailyJournal = &jr
	}

	return result, nil
}

func (s *SyncService) mergeKind(ctx context.Context, userID string, kind models.EntityKind, items []json.RawMessage) KindResult {
	var res KindResult

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repos.Entities(tx)

		for _, raw := range items {
			entity, err := parseItem(userID, kind, raw)
			if err != nil {
				res.Errors = append(res.Errors, ItemError{ID: envelopeID(raw), Error: err.Error()})
				continue
			}

			switch err := repo.Merge(ctx, entity); {
			case err == nil:
				res.Applied++
			case errors.Is(err, common.ErrConflictSkipped):
				res.Skipped++
				s.logger.Debug(ctx, "merge skipped", "kind", kind, "entity_id", entity.EntityID)
			default:
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error(ctx, "kind merge failed", "kind", kind, "error", err.Error())
		res.FailedKind = err.Error()
		return res
	}

	view, err := s.repos.Entities(s.db).SelectByKind(ctx, userID, kind)
	if err != nil {
		s.logger.Error(ctx, "kind view failed", "kind", kind, "error", err.Error())
		res.FailedKind = err.Error()
		return res
	}
	res.Items = make([]json.RawMessage, 0, len(view))
	for _, e := range view {
		res.Items = append(res.Items, e.Payload)
	}
	return res
}

func (s *SyncService) mergeJournal(ctx context.Context, userID string, raw json.RawMessage) JournalResult {
	var res JournalResult

	journal, err := parseJournal(userID, raw)
	if err != nil {
		res.Error = err.Error()
		return res
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		switch err := s.repos.Journals(tx).Merge(ctx, journal); {
		case err == nil:
			res.Applied = true
			return nil
		case errors.Is(err, common.ErrConflictSkipped):
			res.Skipped = true
			return nil
		default:
			return err
		}
	})
	if err != nil {
		s.logger.Error(ctx, "journal merge failed", "date", journal.Date, "error", err.Error())
		res.Error = err.Error()
		return res
	}

	stored, err := s.repos.Journals(s.db).GetByDate(ctx, userID, journal.Date)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Journal = &stored.Payload
	return res
}

func envelopeID(raw json.RawMessage) string {
	var env itemEnvelope
	_ = json.Unmarshal(raw, &env)
	return env.ID
}

func parseItem(userID string, kind models.EntityKind, raw json.RawMessage) (*models.SyncEntity, error) {
	var env itemEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: malformed item payload", common.ErrValidation)
	}
	if env.ID == "" {
		return nil, fmt.Errorf("%w: missing id", common.ErrValidation)
	}
	if env.UpdatedAt == "" {
		return nil, fmt.Errorf("%w: missing updatedAt", common.ErrValidation)
	}
	updatedAt, err := parseClientTime(env.UpdatedAt)
	if err != nil {
		return nil, err
	}
	createdAt := updatedAt
	if env.CreatedAt != "" {
		if createdAt, err = parseClientTime(env.CreatedAt); err != nil {
			return nil, err
		}
	}
	return &models.SyncEntity{
		UserID:    userID,
		Kind:      kind,
		EntityID:  env.ID,
		Payload:   raw,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}

func parseJournal(userID string, raw json.RawMessage) (*models.DailyJournal, error) {
	var env journalEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: malformed journal payload", common.ErrValidation)
	}
	if env.Date == "" {
		return nil, fmt.Errorf("%w: missing date", common.ErrValidation)
	}
	if _, err := time.Parse("2006-01-02", env.Date); err != nil {
		return nil, fmt.Errorf("%w: invalid date %q", common.ErrValidation, env.Date)
	}
	if env.UpdatedAt == "" {
		return nil, fmt.Errorf("%w: missing updatedAt", common.ErrValidation)
	}
	updatedAt, err := parseClientTime(env.UpdatedAt)
	if err != nil {
		return nil, err
	}
	createdAt := updatedAt
	if env.CreatedAt != "" {
		if createdAt, err = parseClientTime(env.CreatedAt); err != nil {
			return nil, err
		}
	}
	return &models.DailyJournal{
		UserID:    userID,
		Date:      env.Date,
		Payload:   raw,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}

package services

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
	"github.com/tbenoist/harmonia/internal/locale"
	"github.com/tbenoist/harmonia/internal/logging"
	"github.com/tbenoist/harmonia/internal/server/models"
	"github.com/tbenoist/harmonia/internal/server/repositories/repomanager"
)

// SessionService drives the resumable questionnaire state machine.
//
// Transitions are monotonic: STARTED -> IN_PROGRESS -> COMPLETED, with
// ABANDONED reachable only from the two non-terminal states. Every stored
// timestamp is UTC; idle-duration arithmetic by the external abandonment
// policy must never compare aware and naive values.
type SessionService struct {
	db     *sql.DB
	repos  repomanager.RepositoryManager
	logger logging.Logger
}

func NewSessionService(db *sql.DB, repos repomanager.RepositoryManager, logger logging.Logger) *SessionService {
	return &SessionService{db: db, repos: repos, logger: logger.With("module", "session_service")}
}

// Start creates a new session in the STARTED state.
func (s *SessionService) Start(ctx context.Context, userID string) (*models.QuestionnaireSession, error) {
	now := time.Now().UTC()
	session := &models.QuestionnaireSession{
		ID:             uuid.NewString(),
		UserID:         userID,
		Status:         models.SessionStarted,
		StartedAt:      now,
		LastActivityAt: now,
	}
	if err := s.repos.Sessions(s.db).Create(ctx, session); err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "session started", "session_id", session.ID)
	return session, nil
}

// Get loads a session so the client can resume exactly where it left off.
func (s *SessionService) Get(ctx context.Context, sessionID string) (*models.QuestionnaireSession, error) {
	return s.repos.Sessions(s.db).GetByID(ctx, sessionID)
}

// SubmitAnswer records one answer, moves current_bloc to the bloc containing
// the question, recomputes the completion percentage and refreshes
// last_activity_at. Re-answering a question replaces the value without
// changing the answered count, so the percentage never decreases. Reaching
// 100% only marks the session COMPLETED; profile generation is a decoupled
// follow-up so a generation failure cannot corrupt session state.
func (s *SessionService) SubmitAnswer(ctx context.Context, sessionID string, questionNumber int, value json.RawMessage) (*models.QuestionnaireSession, error) {
	if len(value) == 0 || !json.Valid(value) {
		return nil, fmt.Errorf("%w: answer value must be a JSON value", common.ErrValidation)
	}

	session, err := s.repos.Sessions(s.db).GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status.Terminal() {
		return nil, fmt.Errorf("%w: session is %s", common.ErrInvalidState, session.Status)
	}

	question, err := s.repos.Questions(s.db).GetByNumber(ctx, questionNumber)
	if errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("%w: unknown question number %d", common.ErrValidation, questionNumber)
	}
	if err != nil {
		return nil, err
	}

	total, err := s.repos.Questions(s.db).Count(ctx)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return nil, fmt.Errorf("%w: question catalog is empty", common.ErrInternal)
	}

	now := time.Now().UTC()
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repos.Sessions(tx)

		if err := repo.UpsertAnswer(ctx, &models.SessionAnswer{
			SessionID:      sessionID,
			QuestionNumber: questionNumber,
			Value:          value,
			AnsweredAt:     now,
		}); err != nil {
			return err
		}

		answered, err := repo.CountAnswers(ctx, sessionID)
		if err != nil {
			return err
		}

		pct := answered * 100 / total
		if pct > 100 {
			pct = 100
		}
		if pct < session.CompletionPercentage {
			pct = session.CompletionPercentage
		}

		session.CompletionPercentage = pct
		session.CurrentBloc = question.Bloc.Resolve(locale.Default)
		session.LastActivityAt = now
		if pct >= 100 {
			session.Status = models.SessionCompleted
		} else {
			session.Status = models.SessionInProgress
		}

		return repo.Update(ctx, session)
	})
	if err != nil {
		return nil, err
	}

	if session.Status == models.SessionCompleted {
		s.logger.Info(ctx, "session completed", "session_id", sessionID)
	}
	return session, nil
}

// Abandon marks a session ABANDONED. The inactivity policy belongs to the
// external scheduler; this only guards the transition rules.
func (s *SessionService) Abandon(ctx context.Context, sessionID string) (*models.QuestionnaireSession, error) {
	session, err := s.repos.Sessions(s.db).GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status.Terminal() {
		return nil, fmt.Errorf("%w: session is %s", common.ErrInvalidState, session.Status)
	}

	session.Status = models.SessionAbandoned
	session.LastActivityAt = time.Now().UTC()
	if err := s.repos.Sessions(s.db).Update(ctx, session); err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "session abandoned", "session_id", sessionID)
	return session, nil
}

// ListQuestions returns the catalog flattened into one locale.
func (s *SessionService) ListQuestions(ctx context.Context, requestedLocale string) ([]models.LocalizedQuestion, error) {
	catalog, err := s.repos.Questions(s.db).SelectAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.LocalizedQuestion, 0, len(catalog))
	for _, q := range catalog {
		out = append(out, q.Localize(requestedLocale))
	}
	return out, nil
}

package sessions

import (
	"context"

	"github.com/tbenoist/harmonia/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, session *models.QuestionnaireSession) error
	GetByID(ctx context.Context, id string) (*models.QuestionnaireSession, error)
	Update(ctx context.Context, session *models.QuestionnaireSession) error
	// UpsertAnswer replaces the value in place when the question was
	// already answered.
	UpsertAnswer(ctx context.Context, answer *models.SessionAnswer) error
	CountAnswers(ctx context.Context, sessionID string) (int, error)
	SelectAnswers(ctx context.Context, sessionID string) ([]*models.SessionAnswer, error)
}

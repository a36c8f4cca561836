// Package httpapi exposes the Harmonia core over a JSON HTTP surface.
// Routing stays deliberately thin: request parsing, auth, and the response
// envelope live here; all semantics live in the services.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/tbenoist/harmonia/internal/logging"
	"github.com/tbenoist/harmonia/internal/server/models"
	"github.com/tbenoist/harmonia/internal/server/services"
)

// SyncAPI is the slice of the sync service the handlers need.
type SyncAPI interface {
	Merge(ctx context.Context, userID string, batch *services.SyncBatch) (*services.SyncResult, error)
}

// WidgetAPI is the slice of the widget service the handlers need.
type WidgetAPI interface {
	Get(ctx context.Context, userID, slug string) (*models.WidgetState, error)
	Put(ctx context.Context, userID, slug string, data json.RawMessage) (*models.WidgetState, error)
}

// SessionAPI is the slice of the session service the handlers need.
type SessionAPI interface {
	Start(ctx context.Context, userID string) (*models.QuestionnaireSession, error)
	Get(ctx context.Context, sessionID string) (*models.QuestionnaireSession, error)
	SubmitAnswer(ctx context.Context, sessionID string, questionNumber int, value json.RawMessage) (*models.QuestionnaireSession, error)
	Abandon(ctx context.Context, sessionID string) (*models.QuestionnaireSession, error)
	ListQuestions(ctx context.Context, requestedLocale string) ([]models.LocalizedQuestion, error)
}

// ProfileAPI is the slice of the profile service the handlers need.
type ProfileAPI interface {
	Generate(ctx context.Context, sessionID string) (*services.GeneratedProfile, error)
	GetActive(ctx context.Context, sessionID string) (*models.HolisticProfile, error)
	ListVersions(ctx context.Context, sessionID string) ([]*models.HolisticProfile, error)
	DocumentURL(ctx context.Context, sessionID string) (string, error)
}

type Server struct {
	address   string
	logger    logging.Logger
	jwtSecret []byte

	sync     SyncAPI
	widgets  WidgetAPI
	sessions SessionAPI
	profiles ProfileAPI
}

func NewServer(address string, logger logging.Logger, secretKey string,
	sync SyncAPI, widgets WidgetAPI, sessions SessionAPI, profiles ProfileAPI) *Server {
	return &Server{
		address:   address,
		logger:    logger.With("module", "http_server"),
		jwtSecret: []byte(secretKey),
		sync:      sync,
		widgets:   widgets,
		sessions:  sessions,
		profiles:  profiles,
	}
}

// Routes builds the request multiplexer. Exposed for tests.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("POST /api/sync", s.auth(http.HandlerFunc(s.handleSync)))
	mux.Handle("GET /api/widgets/{slug}", s.auth(http.HandlerFunc(s.handleWidgetGet)))
	mux.Handle("PUT /api/widgets/{slug}", s.auth(http.HandlerFunc(s.handleWidgetPut)))

	mux.Handle("POST /api/questionnaire/sessions", s.auth(http.HandlerFunc(s.handleSessionStart)))
	mux.Handle("GET /api/questionnaire/sessions/{id}", s.auth(http.HandlerFunc(s.handleSessionGet)))
	mux.Handle("POST /api/questionnaire/sessions/{id}/answers", s.auth(http.HandlerFunc(s.handleSessionAnswer)))
	mux.Handle("POST /api/questionnaire/sessions/{id}/abandon", s.auth(http.HandlerFunc(s.handleSessionAbandon)))
	mux.Handle("GET /api/questions", s.auth(http.HandlerFunc(s.handleQuestions)))

	mux.Handle("POST /api/profiles/{sessionID}/generate", s.auth(http.HandlerFunc(s.handleProfileGenerate)))
	mux.Handle("GET /api/profiles/{sessionID}/active", s.auth(http.HandlerFunc(s.handleProfileActive)))
	mux.Handle("GET /api/profiles/{sessionID}/versions", s.auth(http.HandlerFunc(s.handleProfileVersions)))
	mux.Handle("GET /api/profiles/{sessionID}/document", s.auth(http.HandlerFunc(s.handleProfileDocument)))

	return mux
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:    s.address,
		Handler: s.Routes(),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "Starting HTTP server", "address", s.address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Stopping HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// Package server initializes and runs the Harmonia server: storage,
// migrations, services and the HTTP API, with graceful shutdown on signal.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/tbenoist/harmonia/internal/logging"
	"github.com/tbenoist/harmonia/internal/server/config"
	"github.com/tbenoist/harmonia/internal/server/httpapi"
	"github.com/tbenoist/harmonia/internal/server/repositories/repomanager"
	"github.com/tbenoist/harmonia/internal/server/services"
)

type App struct {
	config         *config.Config
	logger         logging.Logger
	db             *sql.DB
	syncService    *services.SyncService
	widgetService  *services.WidgetService
	sessionService *services.SessionService
	profileService *services.ProfileService
}

// logMailer stands in for the external email collaborator: regeneration
// notices are logged, never blocking and never retried.
type logMailer struct {
	logger logging.Logger
}

func (m *logMailer) SendProfileRegenerated(ctx context.Context, userID string, version int) error {
	m.logger.Info(ctx, "profile regenerated notice", "user_id", userID, "version", version)
	return nil
}

func NewApp(cfg *config.Config) (*App, error) {

	sl := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(sl)

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	repos := repomanager.NewPostgresRepositoryManager()
	if err := repos.RunMigrations(context.Background(), db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	mailer := &logMailer{logger: logger.With("module", "mailer")}

	return &App{
		config:         cfg,
		logger:         logger,
		db:             db,
		syncService:    services.NewSyncService(db, repos, logger),
		widgetService:  services.NewWidgetService(db, repos, logger),
		sessionService: services.NewSessionService(db, repos, logger),
		profileService: services.NewProfileService(db, repos, cfg, logger, mailer),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s := httpapi.NewServer(app.config.EndpointAddr, app.logger, app.config.SecretKey,
		app.syncService, app.widgetService, app.sessionService, app.profileService)

	if err := s.Run(ctx, app.config.ShutdownTimeout); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err.Error())
	}
}

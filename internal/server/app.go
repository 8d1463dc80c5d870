// Package server initializes and runs the bot backend: it wires the
// database, the link-authorization services, the conversation state
// machine and the HTTP endpoint, and handles graceful shutdown.
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

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/dmkov83/enerhobot/internal/logging"
	"github.com/dmkov83/enerhobot/internal/server/bot"
	"github.com/dmkov83/enerhobot/internal/server/config"
	"github.com/dmkov83/enerhobot/internal/server/repositories/repomanager"
	"github.com/dmkov83/enerhobot/internal/server/services"
	"github.com/dmkov83/enerhobot/internal/server/telegram"
	"github.com/dmkov83/enerhobot/internal/server/web"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	machine *bot.Machine
	auth    *services.AuthService
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	slogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(slogger)

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm, err := repomanager.NewPostgresRepositoryManager(db)
	if err != nil {
		return nil, fmt.Errorf("repository init error: %w", err)
	}
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	authService := services.NewAuthService(db, rm, cfg, logger)
	secretService := services.NewSecretService(db, rm)

	sessions := bot.NewSessionStore()
	sender := telegram.NewClient(cfg, logger)
	machine := bot.NewMachine(sessions, sender, authService, secretService, cfg, logger)

	return &App{config: cfg, logger: logger, db: db, machine: machine, auth: authService}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startWebServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := web.NewServer(app.config, app.machine, app.auth, app.logger)
	if err := s.Run(ctx); err != nil {
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
		app.startWebServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err.Error())
	}
}

// internal/app.go
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jmoiron/sqlx"

	"angpao-ledger/internal/aggregate"
	router "angpao-ledger/internal/api"
	"angpao-ledger/internal/api/handler"
	"angpao-ledger/internal/config"
	"angpao-ledger/internal/identity"
	"angpao-ledger/internal/navigation"
	"angpao-ledger/internal/notify"
	"angpao-ledger/internal/service"
	"angpao-ledger/internal/storage"
	"angpao-ledger/internal/store"
	memstore "angpao-ledger/internal/store/memory"
	pgstore "angpao-ledger/internal/store/postgres"
	"angpao-ledger/internal/util"
	"angpao-ledger/pkg/db"
)

// Application holds all the initialized components of the application.
type Application struct {
	Config *config.AppConfig
	Logger *slog.Logger
	DB     *sqlx.DB

	Store     store.Store
	Bus       *notify.Bus
	Identity  *identity.StaticProvider
	Navigator *navigation.Navigator
	Engine    *aggregate.Engine
	Ledger    service.LedgerService

	HTTPHandler http.Handler
}

// NewApplication creates a new Application instance.
func NewApplication() *Application {
	return &Application{}
}

// Initialize initializes all application components.
func (app *Application) Initialize(ctx context.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	app.Config = cfg

	util.InitLogger()
	app.Logger = util.GetLogger()
	app.Logger.Info("Application configuration loaded successfully.", "backend", cfg.Backend)

	switch cfg.Backend {
	case config.BackendPostgres:
		database, err := db.NewPostgresDB(cfg.DB)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		app.DB = database
		if err := storage.RunMigrations(database); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		app.Store = pgstore.New(database)
		app.Logger.Info("Database connection established and migrations applied.")
	case config.BackendMemory:
		app.Store = memstore.New()
		app.Logger.Info("Using in-memory document store.")
	}

	app.Bus = notify.NewBus()
	app.Identity = identity.NewStaticProvider(cfg.UserID)
	app.Navigator = navigation.New(app.Bus)
	app.Engine = aggregate.NewEngine(app.Store, app.Logger)
	app.Ledger = service.NewLedgerService(
		app.Store,
		app.Engine,
		app.Identity,
		app.Bus,
		app.Navigator,
		cfg.DefaultCurrency,
		app.Logger,
	)
	app.Logger.Info("Services initialized.")

	ledgerHandler := handler.NewLedgerHandler(app.Ledger, app.Logger)
	navHandler := handler.NewNavigationHandler(app.Navigator, app.Ledger, app.Logger)
	sessionHandler := handler.NewSessionHandler(app.Identity, app.Ledger, app.Navigator, cfg.AuthToken, app.Logger)
	eventsHandler := handler.NewEventsHandler(app.Bus, app.Logger)
	app.HTTPHandler = router.NewRouter(ledgerHandler, navHandler, sessionHandler, eventsHandler, cfg.AuthToken, app.Logger)
	app.Logger.Info("HTTP router and handlers initialized.")

	return nil
}

// Shutdown gracefully shuts down application resources.
func (app *Application) Shutdown(ctx context.Context) error {
	app.Logger.Info("Shutting down application...")
	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			app.Logger.Error("Failed to close database connection", "error", err)
			return fmt.Errorf("failed to close database connection: %w", err)
		}
		app.Logger.Info("Database connection closed.")
	}
	app.Logger.Info("Application shut down gracefully.")
	return nil
}
